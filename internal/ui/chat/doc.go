// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the dual-pane chat view for the chatmon TUI.

The view is a Bubble Tea model wrapped around a chat Orchestrator. The
orchestrator owns all conversation state; this package only renders
snapshots of it and turns key presses into orchestrator calls.

# Key Components

## Model (model.go)

The Model switches between the login form and the chat screen using the
auth navigation guard. On the chat screen it holds one viewport per panel,
the prompt input and a spinner for typing placeholders.

## Scroll synchronization (scroll.go)

ScrollSync receives the orchestrator's per-panel update hook from stream
goroutines. It marks the panel dirty and, within the configured frame rate,
wakes the Bubble Tea loop with a PanelUpdatedMsg. A flush tick picks up
anything the limiter held back. Every refresh pins the viewport to the
bottom.

## Rendering (render.go, view.go)

Settled AI answers are rendered as markdown with glamour; answers still
streaming are shown as plain wrapped text.

# Key Bindings

	Enter    send            Esc     abort (quit when idle)
	Ctrl+N   new chat        Ctrl+T  toggle comparison
	Ctrl+L   cycle left      Ctrl+R  cycle right model
	Ctrl+O   logout          Ctrl+C  quit
	PgUp/PgDn scroll panels
*/
package chat
