// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/chatmon-tui/internal/chat"
	"github.com/jeranaias/chatmon-tui/internal/config"
	uichat "github.com/jeranaias/chatmon-tui/internal/ui/chat"
	"github.com/jeranaias/chatmon-tui/internal/ui/styles"
)

func newTUICmd(app *App) *cobra.Command {
	tf := &turnFlags{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive dual-pane chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, app, *tf)
		},
	}
	addTurnFlags(cmd, tf)
	return cmd
}

// uiSettings extracts the live-reloadable display settings.
func uiSettings(cfg *config.Config) uichat.Settings {
	return uichat.Settings{
		ShowStats: cfg.UI.ShowStats,
		Markdown:  cfg.UI.Markdown,
		MaxFPS:    cfg.UI.MaxFPS,
	}
}

func runTUI(cmd *cobra.Command, app *App, tf turnFlags) error {
	if !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
		return &UsageError{Message: "the TUI needs a terminal; use 'chatmon ask' or 'chatmon chat' instead"}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ss := uichat.NewScrollSync(app.cfg.UI.MaxFPS)
	defer ss.Close()

	orch, err := app.newOrchestrator(tf, chat.WithScrollSync(ss.Notify))
	if err != nil {
		return err
	}
	defer orch.Close()

	m := uichat.New(ctx, uichat.Options{
		Conversation: orch,
		Auth:         app.auth,
		Sync:         ss,
		Theme:        styles.NewTheme(app.cfg.UI.Theme),
		Settings:     uiSettings(app.cfg),
		Logger:       app.logger.Named("tui"),
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(os.Stdin),
		tea.WithOutput(os.Stdout),
	)

	if app.cfg.UI.WatchConfig {
		if stop := app.watchConfig(ctx, p); stop != nil {
			defer stop()
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// watchConfig forwards edits of the config file to the running program.
// A missing file or watcher failure only disables reloading.
func (a *App) watchConfig(ctx context.Context, p *tea.Program) func() {
	path, err := a.configPath()
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := config.NewWatcher(path, config.DefaultDebounce, func(cfg *config.Config, err error) {
		if err != nil {
			a.logger.Warn("config reload rejected", zap.Error(err))
			return
		}
		config.SetGlobal(cfg)
		a.logger.Info("config reloaded", zap.String("path", path))
		p.Send(uichat.SettingsMsg{Settings: uiSettings(cfg)})
	})
	if err != nil {
		a.logger.Warn("config watcher disabled", zap.Error(err))
		return nil
	}
	go w.Run(ctx)
	return func() { _ = w.Close() }
}
