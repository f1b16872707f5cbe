// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/chatmon-tui/internal/auth"
	"github.com/jeranaias/chatmon-tui/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// PanelUpdatedMsg asks the view to re-render one panel and pin it to the
// bottom.
type PanelUpdatedMsg struct {
	Side model.Side
}

// FlushTickMsg drives the fallback redraw of panels left dirty by the rate
// limiter.
type FlushTickMsg struct{}

// TurnCompleteMsg is sent when SendMessage returns.
type TurnCompleteMsg struct {
	Err error
}

// =============================================================================
// AUTH MESSAGES
// =============================================================================

// LoginResultMsg carries the outcome of a login attempt.
type LoginResultMsg struct {
	User auth.User
	Err  error
}

// LogoutResultMsg carries the outcome of a logout.
type LogoutResultMsg struct {
	Err error
}

// =============================================================================
// SETTINGS MESSAGES
// =============================================================================

// SettingsMsg replaces the live display settings, e.g. after the config file
// changed on disk.
type SettingsMsg struct {
	Settings Settings
}
