// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatmon-tui/internal/auth"
)

func newLoginCmd(app *App) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the login",
		Long: `Sign in with the shared password. The login is stored in the state
database and reused by later runs until 'chatmon logout'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
			if err != nil {
				return err
			}
			user, err := app.auth.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Logged in as "+user.Name))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", auth.DefaultUsername, "user name")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, ok := app.auth.CurrentUser()
			if !ok {
				return ErrNotLoggedIn
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return NewJSONResponse("whoami", user).Write(out)
			}
			fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("User:"), ValueStyle.Render(user.Name))
			fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("ID:  "), ValueStyle.Render(user.ID))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the user as JSON")
	return cmd
}
