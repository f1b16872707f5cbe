// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash commands shared by the TUI input line
// and the chat REPL.
//
// A Registry holds the commands, a Parser splits input into a command and
// its arguments, and a Completer offers command names and model ids for tab
// completion. Handlers act on a Conversation and return a Result for the
// caller to display.
//
//	reg := commands.NewRegistry()
//	res, err := reg.Execute(&commands.Context{Conv: orch}, "/left gpt-4.1")
package commands
