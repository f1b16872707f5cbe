// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session issues the identifiers that correlate a chat panel with
// backend conversation state.
//
// Each panel holds one session id. It is sent with every request from that
// panel and replaced when the user starts a new chat.
//
//	id := session.Default.NewID()
//
// Tests inject a deterministic source with ProviderFunc.
package session
