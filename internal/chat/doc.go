// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the dual-panel orchestrator.
//
// One user message is sent to the left panel's model and, when comparison
// is on, to the right panel's model as well. Each answer streams into its
// own placeholder message, located by id and mutated in place.
//
// # Key Types
//
//   - Orchestrator: owns both panels, the id counter and the turn in flight
//   - Transport: anything that turns a stream.Request into an event channel
//   - State: a consistent copy for rendering
//
// # Turn Rules
//
//   - One turn at a time; a second SendMessage gets ErrTurnInFlight
//   - A failing panel shows FailureText and never affects the other one
//   - Abort and context cancellation settle placeholders as done, not failed
//   - StartNewSession aborts first, then resets both panels and session ids
//
// # Usage
//
//	orch := chat.New(client,
//	    chat.WithUserSource(authProvider),
//	    chat.WithScrollSync(func(side model.Side) { ... }),
//	)
//	orch.SetCompare(true)
//	_ = orch.SendMessage(ctx, "Hello")
//	left := orch.Messages(model.Left)
package chat
