// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a local stand-in for the chat backend.
//
// It answers the streaming endpoint with Server-Sent Events in the same
// format the real backend uses, so the client can be developed and tested
// without one. The default reply echoes the prompt back word by word.
//
// # Endpoints
//
//   - GET {path}   - stream a reply (prompt, uuid and model query parameters)
//   - GET /models  - the model catalog as JSON
//   - GET /health  - liveness and request counters
//
// # Usage
//
//	srv := server.New(server.Options{Addr: "127.0.0.1:8080"})
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
package server
