package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/gitmark/internal/app"
	"github.com/MrSnakeDoc/gitmark/internal/config"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bookmark API over HTTP",
	Long: `Serve the JSON API used by the web front end.

Listens on GITMARK_LISTEN_PORT and stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)
		defer func() { _ = log.Sync() }()

		return app.New(cfg, log).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
