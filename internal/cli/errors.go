// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/chatmon-tui/internal/auth"
	"github.com/jeranaias/chatmon-tui/internal/chat"
	"github.com/jeranaias/chatmon-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a missing or rejected login
	ExitAuthError = 4
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrNotLoggedIn is returned by commands that need a login.
var ErrNotLoggedIn = errors.New("not logged in, run 'chatmon login' first")

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError marks bad arguments or flags.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var usage *UsageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage), errors.Is(err, chat.ErrUnknownModel):
		return ExitUsageError
	case config.IsValidation(err):
		return ExitConfigError
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, auth.ErrInvalidCredentials):
		return ExitAuthError
	default:
		return ExitGeneralError
	}
}
