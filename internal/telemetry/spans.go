// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

// Span names.
const (
	SpanTurn   = "chat.turn"
	SpanStream = "chat.stream"
)

// Span attribute keys.
const (
	AttrCompare     = "chat.compare"
	AttrPromptRunes = "chat.prompt.runes"
	AttrSide        = "chat.panel"
	AttrModel       = "chat.model"
	AttrSessionID   = "chat.session.id"
	AttrChunks      = "chat.stream.chunks"
	AttrOutcome     = "chat.stream.outcome"
)

// Span events.
const (
	EventFirstChunk = "first_chunk"
	EventAborted    = "aborted"
)
