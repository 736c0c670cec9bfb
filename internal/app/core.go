package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/gitmark/internal/bookmark"
	"github.com/MrSnakeDoc/gitmark/internal/config"
	"github.com/MrSnakeDoc/gitmark/internal/credential"
	"github.com/MrSnakeDoc/gitmark/internal/github"
	"github.com/MrSnakeDoc/gitmark/internal/importer"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/redis"
	"github.com/MrSnakeDoc/gitmark/internal/session"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
	"github.com/MrSnakeDoc/gitmark/internal/storage/memory"
	redisstore "github.com/MrSnakeDoc/gitmark/internal/store/redis"
	"github.com/MrSnakeDoc/gitmark/internal/store/sqlite"
)

// Core holds the services shared by the HTTP server and the CLI.
// Build it with NewCore and release it with Close.
type Core struct {
	Config      *config.Config
	Logger      logger.Logger
	Backend     storage.Backend
	RedisClient *goredis.Client // nil when redis is not configured
	Credentials *credential.Store
	Session     *session.Holder
	Bookmarks   *bookmark.Store
	GitHub      *github.Client
	Lookup      github.Lookup
	Importer    *importer.Importer

	unbind func()
}

// NewCore opens the configured backend, wires the services and restores the
// persisted session, so the returned Core is ready to use.
func NewCore(ctx context.Context, cfg *config.Config, log logger.Logger) (*Core, error) {
	c := &Core{Config: cfg, Logger: log}

	if cfg.UsesRedis() {
		client, err := redis.New(ctx, redisOptions(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.RedisClient = client
	}

	backend, err := openBackend(ctx, cfg, c.RedisClient)
	if err != nil {
		c.closeRedis()
		return nil, err
	}
	c.Backend = backend

	c.Credentials = credential.NewStore(backend, log.Named("credential"))
	c.Session = session.NewHolder(backend, c.Credentials, log.Named("session"))
	c.Bookmarks = bookmark.NewStore(backend, log.Named("bookmark"))
	c.unbind = c.Bookmarks.Bind(c.Session)

	c.GitHub = github.NewClient(log.Named("github"),
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithTimeout(cfg.GitHubTimeout))
	c.Lookup = c.GitHub
	cached := c.RedisClient != nil && cfg.LookupCacheTTL > 0
	if cached {
		cache := redisstore.NewStore(c.RedisClient, cfg.Profile)
		c.Lookup = github.NewCachedLookup(c.GitHub, cache, cfg.LookupCacheTTL, log)
		log.Info("repository lookup cache enabled", logger.Duration("ttl", cfg.LookupCacheTTL))
	}

	c.Importer = importer.New(c.Lookup, c.Bookmarks, log.Named("importer"),
		importer.WithLookupTimeout(cfg.LookupTimeout))

	if err := c.Session.Restore(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	log.Info("core ready",
		logger.String("storage", cfg.Storage),
		logger.String("profile", cfg.Profile),
		logger.Bool("lookup_cache", cached),
		logger.String("state", c.Session.State().String()))
	return c, nil
}

// Close waits for a running import and releases the backend.
func (c *Core) Close() error {
	if c.Importer != nil {
		c.Importer.Wait()
	}
	if c.unbind != nil {
		c.unbind()
	}

	var err error
	if c.Backend != nil {
		err = c.Backend.Close()
	}
	// The redis backend owns the client; close it here only when it served the cache alone.
	if c.Config.Storage != config.StorageRedis {
		c.closeRedis()
	}
	return err
}

func (c *Core) closeRedis() {
	if c.RedisClient == nil {
		return
	}
	if err := c.RedisClient.Close(); err != nil {
		c.Logger.Warnf("failed to close redis: %v", err)
	}
}

func openBackend(ctx context.Context, cfg *config.Config, client *goredis.Client) (storage.Backend, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageRedis:
		return redisstore.NewStore(client, cfg.Profile), nil
	case config.StorageSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		store, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func redisOptions(cfg *config.Config) redis.ConnectOptions {
	return redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
}
