// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// ValueStyle is used for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	// ErrorStyle is used for failed answers and errors
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// DimStyle is used for hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// LowCostStyle and HighCostStyle color model cost badges
	LowCostStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	HighCostStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)
