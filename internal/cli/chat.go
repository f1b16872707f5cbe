// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatmon-tui/internal/chat"
	"github.com/jeranaias/chatmon-tui/internal/commands"
	"github.com/jeranaias/chatmon-tui/internal/config"
	"github.com/jeranaias/chatmon-tui/internal/model"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one line of REPL input.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// linerInput provides history and line editing on a terminal.
type linerInput struct {
	line        *liner.State
	historyFile string
}

func newLinerInput(complete func(string) []string) *linerInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &linerInput{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(in.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return in
}

func (l *linerInput) ReadInput(prompt string) (string, error) {
	input, err := l.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		l.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (l *linerInput) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(l.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = l.line.WriteHistory(f)
			f.Close()
		}
	}
	l.line.Close()
}

// =============================================================================
// LIVE ECHO
// =============================================================================

// liveEcho prints the left panel's answer as chunks arrive. It is only
// active outside compare mode; compare answers are printed when they settle.
type liveEcho struct {
	out  io.Writer
	orch *chat.Orchestrator

	mu      sync.Mutex
	enabled bool
	printed map[int64]int
}

func newLiveEcho(out io.Writer) *liveEcho {
	return &liveEcho{out: out, printed: make(map[int64]int)}
}

func (e *liveEcho) attach(orch *chat.Orchestrator) {
	e.mu.Lock()
	e.orch = orch
	e.mu.Unlock()
}

func (e *liveEcho) setEnabled(on bool) {
	e.mu.Lock()
	e.enabled = on
	e.mu.Unlock()
}

// notify is the orchestrator's update hook.
func (e *liveEcho) notify(side model.Side) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled || e.orch == nil || side != model.Left {
		return
	}
	msgs := e.orch.Messages(side)
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Sender != model.SenderAI || last.Error {
		return
	}
	if n := e.printed[last.ID]; n < len(last.Text) {
		fmt.Fprint(e.out, last.Text[n:])
		e.printed[last.ID] = len(last.Text)
	}
}

// streamed reports whether msg was echoed while streaming.
func (e *liveEcho) streamed(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.printed[id] > 0
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCmd(app *App) *cobra.Command {
	tf := &turnFlags{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat with history",
		Long: `Line-mode chat for terminals without full-screen support.

Commands (tab completes names and model ids):
  /new              start a new chat
  /compare [on|off] toggle compare mode
  /left <model>     select the left model
  /right <model>    select the right model
  /models           list models
  /help             list commands
  /quit             exit

Ctrl-C while an answer is streaming aborts it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, app, *tf)
		},
	}
	addTurnFlags(cmd, tf)
	return cmd
}

func runChat(cmd *cobra.Command, app *App, tf turnFlags) error {
	out := cmd.OutOrStdout()
	if err := app.requireLogin(cmd.Context(), cmd.InOrStdin(), out); err != nil {
		return err
	}

	echo := newLiveEcho(out)
	orch, err := app.newOrchestrator(tf, chat.WithScrollSync(echo.notify))
	if err != nil {
		return err
	}
	defer orch.Close()
	echo.attach(orch)

	registry := commands.NewRegistry()
	completer := commands.NewCompleter(registry)
	completer.ModelsFn = func() []string { return orch.Catalog().IDs() }

	newInput := app.newInput
	if newInput == nil {
		newInput = func(complete func(string) []string) lineReader { return newLinerInput(complete) }
	}
	input := newInput(completer.Lines)
	defer input.Close()
	cmdCtx := &commands.Context{Conv: orch}

	if user, ok := app.auth.CurrentUser(); ok {
		fmt.Fprintf(out, "%s %s\n", TitleStyle.Render("chatmon"), DimStyle.Render("signed in as "+user.Name+", /help for commands"))
	}

	for {
		line, err := input.ReadInput(promptFor(orch))
		if err != nil {
			// Ctrl-C at the prompt, Ctrl-D or a closed stdin.
			fmt.Fprintln(out)
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if commands.IsCommand(line) {
			res, err := registry.Execute(cmdCtx, line)
			if err != nil {
				fmt.Fprintln(out, ErrorStyle.Render("[Error] "+err.Error()))
				continue
			}
			if res.Quit {
				return nil
			}
			if res.Message != "" {
				fmt.Fprintln(out, SuccessStyle.Render(res.Message))
			}
			continue
		}

		if err := chatTurn(cmd, orch, echo, line); err != nil {
			fmt.Fprintln(out, ErrorStyle.Render("[Error] "+err.Error()))
		}
	}
}

// promptFor shows the active model(s) in the prompt.
func promptFor(orch *chat.Orchestrator) string {
	if orch.Compare() {
		return fmt.Sprintf("%s|%s> ", orch.Model(model.Left), orch.Model(model.Right))
	}
	return orch.Model(model.Left) + "> "
}

// chatTurn sends line and prints the answers.
func chatTurn(cmd *cobra.Command, orch *chat.Orchestrator, echo *liveEcho, line string) error {
	out := cmd.OutOrStdout()
	compare := orch.Compare()
	echo.setEnabled(!compare)
	defer echo.setEnabled(false)

	ctx, stop := interruptContext(cmd.Context())
	err := orch.SendMessage(ctx, line)
	aborted := ctx.Err() != nil
	stop()
	if err != nil {
		return err
	}

	state := orch.Snapshot()
	for i, side := range activeSides(state) {
		panel := state.Panels[side]
		p := collectAnswer(side, panel)
		last := panel.Messages[len(panel.Messages)-1]

		if !compare && echo.streamed(last.ID) && !p.Failed {
			fmt.Fprintln(out)
			if p.Stats != "" {
				fmt.Fprintln(out, DimStyle.Render(p.Stats))
			}
			continue
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		printAnswer(out, orch.Catalog(), p, compare)
	}
	if aborted {
		fmt.Fprintln(out, DimStyle.Render("[Aborted]"))
	}
	return nil
}
