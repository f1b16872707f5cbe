// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across chatmon.
//
//   - TruncateRunes, TruncateWidth, PadWidth: display-safe string trimming
//     for panel headers and model names (go-runewidth aware)
//   - AtomicWriteFile: crash-safe file writes used by config.Save
package util
