// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// SIDE
// =============================================================================

// Side selects one of the two chat panels.
type Side int

const (
	Left Side = iota
	Right
)

// Sides lists both panels in display order.
var Sides = [...]Side{Left, Right}

// String returns "left" or "right".
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// =============================================================================
// PANEL
// =============================================================================

// Panel is one chat column: a session id, the selected model and an ordered
// message log. Messages are only appended; existing entries are located by id
// and mutated in place. Panel is not safe for concurrent use.
type Panel struct {
	sessionID     string
	selectedModel string
	messages      []*ChatMessage
}

// NewPanel creates an empty panel.
func NewPanel(sessionID, modelID string) *Panel {
	return &Panel{
		sessionID:     sessionID,
		selectedModel: modelID,
		messages:      make([]*ChatMessage, 0, 32),
	}
}

// SessionID returns the panel's current session id.
func (p *Panel) SessionID() string {
	return p.sessionID
}

// Model returns the selected model id.
func (p *Panel) Model() string {
	return p.selectedModel
}

// SetModel changes the selected model. It does not touch the history.
func (p *Panel) SetModel(modelID string) {
	p.selectedModel = modelID
}

// Append adds a message to the end of the log.
func (p *Panel) Append(msg *ChatMessage) {
	p.messages = append(p.messages, msg)
}

// Find returns the message with the given id, or nil.
// Search runs from the end since updates target recent messages.
func (p *Panel) Find(id int64) *ChatMessage {
	for i := len(p.messages) - 1; i >= 0; i-- {
		if p.messages[i].ID == id {
			return p.messages[i]
		}
	}
	return nil
}

// Reset clears the log and installs a new session id in one step.
func (p *Panel) Reset(sessionID string) {
	p.sessionID = sessionID
	p.messages = make([]*ChatMessage, 0, 32)
}

// Len returns the number of messages.
func (p *Panel) Len() int {
	return len(p.messages)
}

// Snapshot returns copies of all messages.
func (p *Panel) Snapshot() []ChatMessage {
	out := make([]ChatMessage, len(p.messages))
	for i, m := range p.messages {
		out[i] = *m
	}
	return out
}
