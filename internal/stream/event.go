// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// Kind tags a stream event.
type Kind int

const (
	// KindContent carries a text fragment to append.
	KindContent Kind = iota
	// KindDone ends the stream normally. Cancellation also ends in Done.
	KindDone
	// KindError ends the stream with a failure.
	KindError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one item from a stream: zero or more Content events followed by
// exactly one Done or Error.
type Event struct {
	Kind Kind
	Text string
	Err  error
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Kind != KindContent
}

// Content builds a content event.
func Content(text string) Event { return Event{Kind: KindContent, Text: text} }

// Done builds a done event.
func Done() Event { return Event{Kind: KindDone} }

// Failed builds an error event.
func Failed(err error) Event { return Event{Kind: KindError, Err: err} }

// =============================================================================
// PAYLOAD DECODING
// =============================================================================

// DoneSentinel is the data payload that marks the end of a stream.
const DoneSentinel = "[DONE]"

// DecodeContent extracts the text fragment from an event payload. A JSON
// object with a string "content" field yields that field. Anything else is
// returned verbatim.
func DecodeContent(data []byte) string {
	var payload struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Content != nil {
		return *payload.Content
	}
	return string(data)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrIdleTimeout is reported when no event arrives within the idle window.
	ErrIdleTimeout = errors.New("stream idle timeout")
	// ErrNotEventStream is reported when the response is not text/event-stream.
	ErrNotEventStream = errors.New("response is not an event stream")

	// errSentinelSeen cancels the subscription after [DONE].
	errSentinelSeen = errors.New("done sentinel received")
)

// StatusError is reported for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected status: %s", e.Status)
	}
	return fmt.Sprintf("unexpected status: %d", e.Code)
}
