// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen.
type KeyMap struct {
	Send          key.Binding
	Abort         key.Binding
	NewChat       key.Binding
	ToggleCompare key.Binding
	CycleLeft     key.Binding
	CycleRight    key.Binding
	Logout        key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Help          key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Abort: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "abort/quit"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		ToggleCompare: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "compare"),
		),
		CycleLeft: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "left model"),
		),
		CycleRight: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "right model"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "logout"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Abort, k.NewChat, k.ToggleCompare, k.Help}
}

// FullHelp returns the bindings shown in the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Conversation
		{k.Send, k.Abort, k.NewChat},
		// Panels
		{k.ToggleCompare, k.CycleLeft, k.CycleRight},
		// Scrolling
		{k.PageUp, k.PageDown},
		// Session
		{k.Logout, k.Help, k.Quit},
	}
}
