// chatmon - a dual-pane streaming chat client for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/chatmon-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(cli.Execute(fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)))
}
