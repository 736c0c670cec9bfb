package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/gitmark/internal/app"
)

var (
	authName     string
	authEmail    string
	authPassword string
	whoamiJSON   bool
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register an account and sign in",
	Args:  cobra.NoArgs,
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		name, err := promptLine(cmd, "Name", authName)
		if err != nil {
			return err
		}
		email, err := promptLine(cmd, "Email", authEmail)
		if err != nil {
			return err
		}
		password, err := promptPassword(cmd, authPassword)
		if err != nil {
			return err
		}

		id, err := core.Session.Signup(cmd.Context(), name, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Signed up as %s <%s>\n", id.Name, id.Email)
		return nil
	}),
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to an existing account",
	Args:  cobra.NoArgs,
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		email, err := promptLine(cmd, "Email", authEmail)
		if err != nil {
			return err
		}
		password, err := promptPassword(cmd, authPassword)
		if err != nil {
			return err
		}

		id, err := core.Session.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Signed in as %s <%s>\n", id.Name, id.Email)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the signed-in account",
	Args:  cobra.NoArgs,
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		if err := core.Session.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE: withCore(func(cmd *cobra.Command, args []string, core *app.Core) error {
		snap := core.Session.Snapshot()
		if whoamiJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		if snap.Identity == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", snap.Identity.Name, snap.Identity.Email)
		return nil
	}),
}

func init() {
	signupCmd.Flags().StringVar(&authName, "name", "", "Display name (prompted when empty)")
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email (prompted when empty)")
		c.Flags().StringVar(&authPassword, "password", "", "Password (prompted without echo when empty)")
	}
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Print the session as JSON")

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
}
