// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/ui/styles"
)

// Settings are the display switches that can change while the TUI runs.
type Settings struct {
	ShowStats bool
	Markdown  bool
	MaxFPS    int
}

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// markdownRenderer renders settled AI answers. Output is cached per message
// and width because settled text never changes.
type markdownRenderer struct {
	style     string
	renderers map[int]*glamour.TermRenderer
	cache     map[cacheKey]string
}

type cacheKey struct {
	id    int64
	width int
}

func newMarkdownRenderer(dark bool) *markdownRenderer {
	style := "light"
	if dark {
		style = "dark"
	}
	return &markdownRenderer{
		style:     style,
		renderers: make(map[int]*glamour.TermRenderer),
		cache:     make(map[cacheKey]string),
	}
}

// Render returns the rendered text, or ok=false when glamour is unavailable.
func (r *markdownRenderer) Render(msg model.ChatMessage, width int) (string, bool) {
	key := cacheKey{id: msg.ID, width: width}
	if out, ok := r.cache[key]; ok {
		return out, true
	}

	tr, ok := r.renderers[width]
	if !ok {
		var err error
		tr, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", false
		}
		r.renderers[width] = tr
	}

	out, err := tr.Render(msg.Text)
	if err != nil {
		return "", false
	}
	out = strings.Trim(out, "\n")
	r.cache[key] = out
	return out, true
}

// Reset drops cached output, e.g. after a new chat.
func (r *markdownRenderer) Reset() {
	clear(r.cache)
}

// =============================================================================
// PANEL CONTENT
// =============================================================================

// panelRenderer renders one panel's message log into viewport content.
type panelRenderer struct {
	theme    *styles.Theme
	markdown *markdownRenderer
	settings Settings
}

// Render lays out msgs for a viewport width columns wide. typing is the
// spinner frame shown in placeholders.
func (pr panelRenderer) Render(msgs []model.ChatMessage, width int, typing string) string {
	if width < 10 {
		width = 10
	}
	if len(msgs) == 0 {
		return pr.theme.EmptyPanel.Width(width).Render("No messages yet")
	}

	var b strings.Builder
	for i := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pr.renderMessage(msgs[i], width, typing))
	}
	return b.String()
}

func (pr panelRenderer) renderMessage(msg model.ChatMessage, width int, typing string) string {
	t := pr.theme
	if msg.Sender == model.SenderUser {
		label := t.UserLabel.Render(msg.Sender.DisplayName())
		return label + "\n" + t.UserBubble.Width(width).Render(msg.Text)
	}

	label := t.AILabel.Render(msg.Sender.DisplayName())
	switch {
	case msg.Error:
		return label + "\n" + t.ErrorNotice.Width(width-1).Render(styles.StatusIndicators.Error+" "+msg.Text)
	case msg.Typing:
		return label + "\n" + t.TypingText.Render(typing+" Typing...")
	}

	body := msg.Text
	if body == "" && msg.Settled() {
		return label + "\n" + t.TypingText.Render("(no response)")
	}

	rendered := false
	if pr.settings.Markdown && msg.Markdown && msg.Settled() && pr.markdown != nil {
		if out, ok := pr.markdown.Render(msg, width-2); ok {
			body, rendered = out, true
		}
	}
	if !rendered {
		body = t.AIBubble.Width(width - 1).Render(body)
	}

	out := label + "\n" + body
	if pr.settings.ShowStats {
		if stats := msg.FormatStats(); stats != "" {
			out += "\n" + t.StatsText.Render(stats)
		}
	}
	return out
}
