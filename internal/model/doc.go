// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat panels and messages.
//
// This package defines the core domain types shared by the orchestrator, the
// terminal UI and the command line.
//
// # Key Types
//
//   - ChatMessage: one message with sender, text and streaming flags
//   - Panel: a chat column with session id, selected model and message log
//   - IDCounter: atomic id source shared by both panels
//   - Catalog / ModelInfo: the static list of selectable models
//
// # Usage
//
// Build a panel and stream into a placeholder:
//
//	var ids model.IDCounter
//	p := model.NewPanel(sessionID, model.DefaultLeftModel)
//	p.Append(model.NewUserMessage(ids.Next(), "Hello"))
//	ai := model.NewPlaceholder(ids.Next())
//	p.Append(ai)
//	p.Find(ai.ID).AppendChunk("Hi")
//
// Look up a model:
//
//	info, ok := model.DefaultCatalog.Lookup("gpt-4o")
package model
