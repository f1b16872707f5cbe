// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatmon-tui/internal/chat"
	"github.com/jeranaias/chatmon-tui/internal/model"
)

// askPanel is the --json shape of one panel's answer.
type askPanel struct {
	Side      string `json:"side"`
	Model     string `json:"model"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Failed    bool   `json:"failed"`
	Stats     string `json:"stats,omitempty"`
}

type askResult struct {
	Prompt  string     `json:"prompt"`
	Compare bool       `json:"compare"`
	Panels  []askPanel `json:"panels"`
}

func newAskCmd(app *App) *cobra.Command {
	tf := &turnFlags{}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send one prompt and print the answer",
		Long: `Send one prompt and print each panel's answer once it has finished.

The prompt is read from the arguments, or from stdin when none are given.
Ctrl-C aborts the request and prints whatever arrived so far.`,
		Example: `  chatmon ask "What is a goroutine?"
  chatmon ask --compare --left o4-mini --right gpt-4.1 "Explain SSE"
  echo "hello" | chatmon ask --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runAsk(cmd, app, *tf, prompt, asJSON)
		},
	}
	addTurnFlags(cmd, tf)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// readPrompt joins args, falling back to piped stdin.
func readPrompt(in io.Reader, args []string) (string, error) {
	prompt := strings.Join(args, " ")
	if prompt == "" && !isTerminal(in) {
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt: %w", err)
		}
		prompt = string(b)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &UsageError{Message: "no prompt given"}
	}
	return prompt, nil
}

func runAsk(cmd *cobra.Command, app *App, tf turnFlags, prompt string, asJSON bool) error {
	if err := app.requireLogin(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
		return err
	}

	orch, err := app.newOrchestrator(tf)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, stop := interruptContext(cmd.Context())
	err = orch.SendMessage(ctx, prompt)
	stop()
	if err != nil {
		return err
	}

	state := orch.Snapshot()
	result := askResult{Prompt: prompt, Compare: state.Compare}
	var failed []string
	for _, side := range activeSides(state) {
		p := collectAnswer(side, state.Panels[side])
		if p.Failed {
			failed = append(failed, side.String())
		}
		result.Panels = append(result.Panels, p)
	}

	var turnErr error
	if len(failed) > 0 {
		turnErr = &CommandError{Command: "ask", Reason: "no answer from " + strings.Join(failed, " and ") + " panel"}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		resp := NewJSONResponse("ask", result)
		if turnErr != nil {
			resp = NewJSONErrorResponse("ask", turnErr)
			resp.Data = result
		}
		if err := resp.Write(out); err != nil {
			return err
		}
		return turnErr
	}

	catalog := orch.Catalog()
	for i, p := range result.Panels {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printAnswer(out, catalog, p, state.Compare)
	}
	return turnErr
}

// activeSides lists the panels that took part in the last turn.
func activeSides(state chat.State) []model.Side {
	if state.Compare {
		return model.Sides[:]
	}
	return []model.Side{model.Left}
}

// collectAnswer takes the last AI message of a panel.
func collectAnswer(side model.Side, panel chat.PanelState) askPanel {
	p := askPanel{Side: side.String(), Model: panel.Model, SessionID: panel.SessionID}
	for i := len(panel.Messages) - 1; i >= 0; i-- {
		msg := panel.Messages[i]
		if msg.Sender != model.SenderAI {
			continue
		}
		p.Text = msg.Text
		p.Failed = msg.Error
		p.Stats = msg.FormatStats()
		break
	}
	return p
}

// printAnswer writes one panel's answer. The header is only printed when
// more than one panel answered.
func printAnswer(out io.Writer, catalog model.Catalog, p askPanel, withHeader bool) {
	if withHeader {
		info := catalog.Info(p.Model)
		cost := LowCostStyle
		if info.Cost == model.CostHigh {
			cost = HighCostStyle
		}
		fmt.Fprintf(out, "%s %s %s\n",
			TitleStyle.Render("["+p.Side+"]"),
			ValueStyle.Render(info.Name),
			cost.Render(info.CostString()))
	}

	switch {
	case p.Failed:
		fmt.Fprintln(out, ErrorStyle.Render(p.Text))
		return
	case p.Text == "":
		fmt.Fprintln(out, DimStyle.Render("(no response)"))
	default:
		fmt.Fprintln(out, renderMarkdown(out, p.Text))
	}
	if p.Stats != "" {
		fmt.Fprintln(out, DimStyle.Render(p.Stats))
	}
}

// renderMarkdown formats text with glamour when out is a terminal.
func renderMarkdown(out io.Writer, text string) string {
	if !isTerminal(out) {
		return text
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
