// Command gitmark bookmarks GitHub repositories from the terminal and
// serves the same bookmarks over an HTTP API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/gitmark/internal/app"
	"github.com/MrSnakeDoc/gitmark/internal/config"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/version"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gitmark",
	Short: "Search GitHub and keep bookmarks of repositories",
	Long: `gitmark keeps a local list of bookmarked GitHub repositories per account.

Storage is chosen with GITMARK_STORAGE (memory, redis, sqlite) and
GITMARK_PROFILE. The signed-in account is remembered between runs.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable logging to stderr")
}

// cliLogger logs only when -v is set so command output stays clean.
func cliLogger(cfg *config.Config) logger.Logger {
	if !verbose {
		return logger.NewNop()
	}
	return logger.New(cfg.LogLevel, cfg.PrettyLog)
}

// withCore opens the configured storage, restores the session and hands the
// services to run. The core is closed afterwards.
func withCore(run func(cmd *cobra.Command, args []string, core *app.Core) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := cliLogger(cfg)
		defer func() { _ = log.Sync() }()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		core, err := app.NewCore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer core.Close()

		return run(cmd, args, core)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
