package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/gitmark/internal/app"
	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/github"
)

var searchPage int

// searchCmd is the parent of the GitHub search subcommands
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search GitHub repositories and users",
}

var searchReposCmd = &cobra.Command{
	Use:   "repos <query>",
	Short: "Search repositories; bookmarked ones are starred",
	Args:  cobra.MinimumNArgs(1),
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		page, err := core.GitHub.SearchRepositories(cmd.Context(), strings.Join(args, " "), searchPage)
		if err != nil {
			return err
		}
		return printRepos(cmd, core, page)
	}),
}

var searchUsersCmd = &cobra.Command{
	Use:   "users <query>",
	Short: "Search users",
	Args:  cobra.MinimumNArgs(1),
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		page, err := core.GitHub.SearchUsers(cmd.Context(), strings.Join(args, " "), searchPage)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LOGIN\tPROFILE")
		for _, u := range page.Items {
			fmt.Fprintf(tw, "%s\t%s\n", u.Login, u.HTMLURL)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		printFooter(cmd, page.Page, page.TotalCount, page.HasMore)
		return nil
	}),
}

var searchUserReposCmd = &cobra.Command{
	Use:   "user-repos <login>",
	Short: "List a user's repositories, most recently updated first",
	Args:  cobra.ExactArgs(1),
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		page, err := core.GitHub.UserRepositories(cmd.Context(), args[0], searchPage)
		if err != nil {
			return err
		}
		return printRepos(cmd, core, page)
	}),
}

func printRepos(cmd *cobra.Command, core *app.Core, page *github.Page[domain.Repository]) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tREPOSITORY\tLANGUAGE\tSTARS")
	for _, r := range page.Items {
		mark := " "
		if core.Bookmarks.IsBookmarked(r.ID) {
			mark = "★"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\n", mark, r.ID, r.FullName, r.Language, r.StargazersCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printFooter(cmd, page.Page, page.TotalCount, page.HasMore)
	return nil
}

func printFooter(cmd *cobra.Command, page, total int, more bool) {
	line := fmt.Sprintf("page %d", page)
	if total > 0 {
		line += fmt.Sprintf(" of %d results", total)
	}
	if more {
		line += fmt.Sprintf(", next: --page %d", page+1)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), line)
}

func init() {
	searchCmd.PersistentFlags().IntVarP(&searchPage, "page", "p", 1, "Result page (30 per page)")
	searchCmd.AddCommand(searchReposCmd, searchUsersCmd, searchUserReposCmd)
	rootCmd.AddCommand(searchCmd)
}
