// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the chatmon command tree.
//
// # Commands
//
//   - chatmon / chatmon tui: dual-pane terminal UI
//   - ask: one turn without the UI, prints each panel's answer
//   - chat: line-based REPL
//   - models: list the model catalog
//   - login, logout, whoami: manage the persisted login
//   - config show|path|init: inspect or create the config file
//   - version
//
// Global flags --config, --api-host, --verbose and --ephemeral apply to all
// commands. ask and chat require a login; the TUI shows its own login form.
//
// # Usage
//
//	os.Exit(cli.Execute(version))
package cli
