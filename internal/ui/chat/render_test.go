// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/ui/styles"
)

func newTestRenderer(settings Settings) panelRenderer {
	theme := styles.NewTheme(styles.ModeDark)
	return panelRenderer{theme: theme, markdown: newMarkdownRenderer(true), settings: settings}
}

func TestPanelRenderer(t *testing.T) {
	settled := *model.NewPlaceholder(4)
	settled.AppendChunk("plain answer")
	settled.Finish()

	failed := *model.NewPlaceholder(5)
	failed.Fail("Unable to load the AI response.")

	stopped := *model.NewPlaceholder(6)
	stopped.Finish()

	tests := []struct {
		name string
		msgs []model.ChatMessage
		want []string
	}{
		{"empty", nil, []string{"No messages yet"}},
		{"user", []model.ChatMessage{*model.NewUserMessage(1, "Hello")}, []string{"Hello"}},
		{"typing", []model.ChatMessage{*model.NewPlaceholder(2)}, []string{"* Typing..."}},
		{"settled", []model.ChatMessage{settled}, []string{"plain answer"}},
		{"failed", []model.ChatMessage{failed}, []string{"[X] Unable to load the AI response."}},
		{"aborted before any chunk", []model.ChatMessage{stopped}, []string{"(no response)"}},
	}

	pr := newTestRenderer(Settings{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := pr.Render(tt.msgs, 80, "*")
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestPanelRenderer_Markdown(t *testing.T) {
	msg := *model.NewPlaceholder(7)
	msg.AppendChunk("# Title\n\nSome **bold** text")
	msg.Finish()

	plain := newTestRenderer(Settings{Markdown: false}).Render([]model.ChatMessage{msg}, 60, "")
	assert.Contains(t, plain, "**bold**")

	md := newTestRenderer(Settings{Markdown: true})
	out := md.Render([]model.ChatMessage{msg}, 60, "")
	assert.NotContains(t, out, "**bold**")
	assert.Contains(t, out, "bold")

	again := md.Render([]model.ChatMessage{msg}, 60, "")
	assert.Equal(t, out, again)
	assert.Len(t, md.markdown.cache, 1)

	md.markdown.Reset()
	assert.Empty(t, md.markdown.cache)
}

func TestPanelRenderer_StreamingStaysPlain(t *testing.T) {
	msg := *model.NewPlaceholder(8)
	msg.AppendChunk("partial **bold")

	out := newTestRenderer(Settings{Markdown: true}).Render([]model.ChatMessage{msg}, 60, "")
	assert.Contains(t, out, "partial **bold")
}

func TestPanelRenderer_Stats(t *testing.T) {
	msg := *model.NewPlaceholder(9)
	msg.CreatedAt = time.Now().Add(-2 * time.Second)
	msg.AppendChunk("done")
	msg.Finish()

	with := newTestRenderer(Settings{ShowStats: true}).Render([]model.ChatMessage{msg}, 60, "")
	assert.Contains(t, with, "TTFT")

	without := newTestRenderer(Settings{}).Render([]model.ChatMessage{msg}, 60, "")
	assert.NotContains(t, without, "TTFT")
}
