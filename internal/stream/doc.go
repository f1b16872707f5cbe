// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream is the chat backend's Server-Sent Events transport.
//
// Each call to Client.Stream opens one GET request and turns the event
// stream into a finite channel of tagged events. SSE framing is handled by
// github.com/r3labs/sse/v2 with reconnection switched off, so a stream
// produces exactly one terminal event.
//
// # Key Types
//
//   - Client: immutable endpoint configuration, safe for concurrent streams
//   - Request: prompt, session id, model id and optional user id
//   - Event: Content(text), Done or Error(err)
//
// # Terminal Rules
//
//   - A "[DONE]" payload or a clean close ends with Done
//   - Cancelling the caller's context ends with Done, never Error
//   - Transport failures, non-2xx status and non-event-stream responses
//     end with Error
//   - With an idle timeout set, silence ends with Error(ErrIdleTimeout)
//
// # Usage
//
//	client, err := stream.NewClient(stream.Options{Host: "http://localhost:8080"})
//	for ev := range client.Stream(ctx, stream.Request{Prompt: "hi", SessionID: id, ModelID: "gpt-4o"}) {
//	    switch ev.Kind {
//	    case stream.KindContent:
//	        fmt.Print(ev.Text)
//	    case stream.KindError:
//	        return ev.Err
//	    }
//	}
package stream
