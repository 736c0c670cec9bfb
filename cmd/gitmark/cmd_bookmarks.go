package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/gitmark/internal/app"
	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/homepage"
)

var (
	listJSON   bool
	exportPath string
)

// bookmarksCmd is the parent of the bookmark subcommands
var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"bm"},
	Short:   "Manage the signed-in account's bookmarks",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks in the order they were added",
	Args:  cobra.NoArgs,
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		if err := requireSignedIn(core); err != nil {
			return err
		}
		list := core.Bookmarks.List()
		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks yet")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tREPOSITORY\tLANGUAGE\tSTARS\tBOOKMARKED")
		for _, e := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
				e.ID, e.FullName, e.Language, e.StarCount, e.BookmarkedAt.Format("2006-01-02"))
		}
		return tw.Flush()
	}),
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add <owner/repo>",
	Short: "Look a repository up on GitHub and bookmark it",
	Args:  cobra.ExactArgs(1),
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		if err := requireSignedIn(core); err != nil {
			return err
		}
		repo, err := core.Lookup.GetRepository(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if repo == nil {
			return fmt.Errorf("%s: %w", args[0], domain.ErrRepoNotFound)
		}

		entry, err := core.Bookmarks.Add(cmd.Context(), repo)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "⭐ Bookmarked %s (id %d)\n", entry.FullName, entry.ID)
		return nil
	}),
}

var bookmarksRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a bookmark by repository id",
	Args:    cobra.ExactArgs(1),
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		if err := requireSignedIn(core); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid bookmark id %q", args[0])
		}
		if !core.Bookmarks.IsBookmarked(id) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d is not bookmarked\n", id)
			return nil
		}
		if err := core.Bookmarks.Remove(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d\n", id)
		return nil
	}),
}

var bookmarksImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import bookmarks from a CSV with a full_name column",
	Long: `Import bookmarks from a CSV file.

The header row must contain full_name ("owner/repo"). An optional date column
sets when the bookmark was made. Rows whose repository cannot be found are
skipped. A malformed file imports nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		n, err := core.Importer.Run(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %d bookmark(s)\n", n)
		return nil
	}),
}

var bookmarksStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count bookmarks per day",
	Args:  cobra.NoArgs,
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		if err := requireSignedIn(core); err != nil {
			return err
		}
		days := core.Bookmarks.Stats()
		peak := 0
		for _, d := range days {
			peak = max(peak, d.Count)
		}
		for _, d := range days {
			bar := strings.Repeat("█", scaleBar(d.Count, peak, 40))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %4d %s\n", d.Date, d.Count, bar)
		}
		return nil
	}),
}

var bookmarksExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export bookmarks as a Homepage bookmarks.yaml",
	Args:  cobra.NoArgs,
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		if err := requireSignedIn(core); err != nil {
			return err
		}
		data, err := homepage.Marshal(core.Bookmarks.List())
		if err != nil {
			return err
		}
		if exportPath == "" || exportPath == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportPath, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", exportPath)
		return nil
	}),
}

func requireSignedIn(core *app.Core) error {
	if _, ok := core.Session.Current(); !ok {
		return fmt.Errorf("%w: run gitmark login first", domain.ErrNoActiveAccount)
	}
	return nil
}

// scaleBar maps count onto at most width cells, never less than one.
func scaleBar(count, peak, width int) int {
	if peak <= width {
		return count
	}
	return max(count*width/peak, 1)
}

func init() {
	bookmarksListCmd.Flags().BoolVar(&listJSON, "json", false, "Print bookmarks as JSON")
	bookmarksExportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Write to file instead of stdout")

	bookmarksCmd.AddCommand(
		bookmarksListCmd,
		bookmarksAddCmd,
		bookmarksRemoveCmd,
		bookmarksImportCmd,
		bookmarksStatsCmd,
		bookmarksExportCmd,
	)
	rootCmd.AddCommand(bookmarksCmd)
}
