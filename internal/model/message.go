// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sync/atomic"
	"time"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAI:
		return "AI"
	default:
		return string(s)
	}
}

// =============================================================================
// CHAT MESSAGE TYPE
// =============================================================================

// ChatMessage is one entry in a panel's log. AI messages are created empty
// with Typing set and are then mutated in place while their stream runs.
type ChatMessage struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender Sender `json:"sender"`

	// Typing is true until the first chunk or a terminal event arrives.
	Typing bool `json:"typing"`
	// Error is true when the stream failed; Text then holds the failure notice.
	Error bool `json:"error"`
	// Markdown marks text that should be rendered rather than shown raw.
	Markdown bool `json:"markdown,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	FirstChunk time.Time `json:"-"`
	SettledAt  time.Time `json:"-"`
}

// NewUserMessage creates a settled user message.
func NewUserMessage(id int64, text string) *ChatMessage {
	return &ChatMessage{
		ID:        id,
		Text:      text,
		Sender:    SenderUser,
		CreatedAt: time.Now(),
	}
}

// NewPlaceholder creates an empty AI message waiting for its first chunk.
func NewPlaceholder(id int64) *ChatMessage {
	return &ChatMessage{
		ID:        id,
		Sender:    SenderAI,
		Typing:    true,
		Markdown:  true,
		CreatedAt: time.Now(),
	}
}

// AppendChunk appends a streamed fragment. The first call clears Typing.
func (m *ChatMessage) AppendChunk(chunk string) {
	if m.Typing {
		m.Typing = false
		m.FirstChunk = time.Now()
	}
	m.Text += chunk
}

// Finish marks the message as complete.
func (m *ChatMessage) Finish() {
	m.Typing = false
	m.SettledAt = time.Now()
}

// Fail marks the message as failed and replaces its text with notice.
func (m *ChatMessage) Fail(notice string) {
	m.Typing = false
	m.Error = true
	m.Text = notice
	m.SettledAt = time.Now()
}

// Settled reports whether a terminal event has been applied.
func (m *ChatMessage) Settled() bool {
	return !m.SettledAt.IsZero()
}

// TTFT returns the time from creation to the first chunk, or zero.
func (m *ChatMessage) TTFT() time.Duration {
	if m.FirstChunk.IsZero() {
		return 0
	}
	return m.FirstChunk.Sub(m.CreatedAt)
}

// FormatStats returns a short summary like "TTFT 120ms | 2.4s" for settled AI
// messages and an empty string otherwise.
func (m *ChatMessage) FormatStats() string {
	if m.Sender != SenderAI || !m.Settled() || m.Error {
		return ""
	}
	total := m.SettledAt.Sub(m.CreatedAt)
	if ttft := m.TTFT(); ttft > 0 {
		return fmt.Sprintf("TTFT %dms | %.1fs", ttft.Milliseconds(), total.Seconds())
	}
	return fmt.Sprintf("%.1fs", total.Seconds())
}

// =============================================================================
// ID COUNTER
// =============================================================================

// IDCounter hands out message ids. One counter is shared by both panels so
// ids are unique across them. The zero value starts at 1.
type IDCounter struct {
	n atomic.Int64
}

// Next returns the next id.
func (c *IDCounter) Next() int64 {
	return c.n.Add(1)
}

// Peek returns the last id handed out.
func (c *IDCounter) Peek() int64 {
	return c.n.Load()
}
