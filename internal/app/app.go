package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/config"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/scheduler"
	"github.com/MrSnakeDoc/gitmark/internal/version"
)

// App is the HTTP front end over a Core.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	core   *Core
}

func New(cfg *config.Config, loggerClient logger.Logger) *App {
	return &App{cfg: cfg, logger: loggerClient}
}

// Run builds the core, serves the API until SIGINT/SIGTERM, then shuts down
// the server, waits for a running import and closes storage.
func (a *App) Run() error {
	a.logger.Infof("🚀 Starting gitmark %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := NewCore(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.core = core

	d := deps.Deps{
		Logger:         a.logger,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		BaseContext:    ctx,
		AllowedHosts:   a.cfg.AllowedHosts,
		AllowedCIDRS:   a.cfg.AllowedCIDRS,
		AllowedOrigins: a.cfg.AllowedOrigins,
		TrustProxy:     a.cfg.TrustProxy,
		SearchBurst:    a.cfg.SearchBurst,
		SearchPerMin:   a.cfg.SearchPerMin,
		StorageKind:    a.cfg.Storage,
		Backend:        core.Backend,
		RedisClient:    core.RedisClient,
		Credentials:    core.Credentials,
		Session:        core.Session,
		Bookmarks:      core.Bookmarks,
		Importer:       core.Importer,
		GitHub:         core.GitHub,
		Lookup:         core.Lookup,
	}
	server := httpserver.New(a.cfg, a.logger, d)

	if a.cfg.HomepageExportPath != "" {
		exporter := scheduler.NewHomepageExporter(core.Bookmarks, core.Session,
			a.cfg.HomepageExportPath, a.logger, a.cfg.HomepageExportInterval)
		if err := exporter.Start(ctx); err != nil {
			a.logger.Warn("homepage export disabled", logger.Error(err))
		} else {
			defer exporter.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		_ = core.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		_ = core.Close()
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := core.Close(); err != nil {
		a.logger.Warnf("failed to close storage: %v", err)
	} else {
		a.logger.Info("✅ Storage closed cleanly")
	}

	a.logger.Info("✅ gitmark stopped cleanly")
	return nil
}
