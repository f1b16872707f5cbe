// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// annotationBare marks commands that run without config, logging or the
// login store.
const annotationBare = "chatmon/bare"

// NewRootCmd builds the command tree around app. Running the root with no
// subcommand starts the TUI.
func NewRootCmd(app *App) *cobra.Command {
	tf := &turnFlags{}

	root := &cobra.Command{
		Use:   "chatmon",
		Short: "Dual-pane streaming chat client",
		Long: `chatmon sends each prompt to a chat backend over Server-Sent Events and
streams the answer into a panel. Compare mode sends the same prompt to two
models side by side.

Run without a command to start the interactive TUI.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			lipgloss.SetColorProfile(colorProfile(cmd.OutOrStdout()))
			if cmd.Annotations[annotationBare] == "true" {
				return nil
			}
			return app.setup(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, app, *tf)
		},
	}
	root.SetVersionTemplate("chatmon {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default ~/.chatmon/config.toml)")
	pf.StringVar(&app.flags.apiHost, "api-host", "", "chat backend base URL")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&app.flags.ephemeral, "ephemeral", false, "keep the login in memory only")

	addTurnFlags(root, tf)

	root.AddCommand(
		newTUICmd(app),
		newAskCmd(app),
		newChatCmd(app),
		newModelsCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newConfigCmd(app),
		newServeCmd(app),
		newVersionCmd(app),
	)
	return root
}

// addTurnFlags registers --compare, --left and --right.
func addTurnFlags(cmd *cobra.Command, tf *turnFlags) {
	cmd.Flags().BoolVar(&tf.compare, "compare", false, "send to both panels")
	cmd.Flags().StringVar(&tf.left, "left", "", "left panel model id")
	cmd.Flags().StringVar(&tf.right, "right", "", "right panel model id")
}

// Run executes args against a fresh command tree and releases app's
// resources afterwards.
func Run(ctx context.Context, app *App, args []string) error {
	root := NewRootCmd(app)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := app.Close(context.Background()); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Execute runs the CLI with os.Args and returns the exit code.
func Execute(version string) int {
	err := Run(context.Background(), NewApp(version), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
	}
	return exitCode(err)
}

// interruptContext is canceled by the first Ctrl-C. Commands install it
// around a single turn so an interrupt aborts the stream, not the process.
func interruptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}
