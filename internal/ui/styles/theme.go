// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/chatmon-tui/internal/model"
)

// Mode names accepted by NewTheme.
const (
	ModeDark  = "dark"
	ModeLight = "light"
	ModeAuto  = "auto"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER AND STATUS
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderUser  lipgloss.Style
	StatusBar   lipgloss.Style
	ShortcutKey lipgloss.Style
	ShortcutDsc lipgloss.Style
	CompareOn   lipgloss.Style
	CompareOff  lipgloss.Style
	Loading     lipgloss.Style

	// ==========================================================================
	// PANELS
	// ==========================================================================

	Panel        lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelMuted   lipgloss.Style
	CostLow      lipgloss.Style
	CostHigh     lipgloss.Style
	ModelSubtext lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel   lipgloss.Style
	UserBubble  lipgloss.Style
	AILabel     lipgloss.Style
	AIBubble    lipgloss.Style
	ErrorNotice lipgloss.Style
	TypingText  lipgloss.Style
	StatsText   lipgloss.Style
	EmptyPanel  lipgloss.Style

	// ==========================================================================
	// INPUT AND LOGIN
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	LoginBox       lipgloss.Style
	LoginTitle     lipgloss.Style
	LoginHint      lipgloss.Style
	LoginError     lipgloss.Style
}

// NewTheme creates a theme for mode ("dark", "light" or "auto"). Auto asks
// the terminal for its background.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case ModeLight:
		isDark = false
	case ModeDark:
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header and status bar
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderUser = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDsc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.CompareOn = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.CompareOff = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Loading = lipgloss.NewStyle().
		Foreground(Amber)

	// Panels
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)

	t.PanelTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.PanelMuted = t.Panel.
		BorderForeground(OverlayDim).
		Foreground(TextMuted)

	t.CostLow = lipgloss.NewStyle().
		Foreground(Emerald)

	t.CostHigh = lipgloss.NewStyle().
		Foreground(Amber)

	t.ModelSubtext = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		Padding(0, 1)

	t.AILabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.AIBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(AssistantBubbleBorder).
		BorderLeft(true).
		PaddingLeft(1)

	t.ErrorNotice = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Rose).
		BorderLeft(true).
		PaddingLeft(1)

	t.TypingText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.StatsText = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.EmptyPanel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Align(lipgloss.Center)

	// Input and login
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 3)

	t.LoginTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		MarginBottom(1)

	t.LoginHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.LoginError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
}

// CostStyle returns the badge style for a model's cost tier.
func (t *Theme) CostStyle(tier model.CostTier) lipgloss.Style {
	if tier == model.CostLow {
		return t.CostLow
	}
	return t.CostHigh
}

// PanelStyle returns the border style for a panel, muted when it is not
// taking part in the turn.
func (t *Theme) PanelStyle(active bool) lipgloss.Style {
	if active {
		return t.Panel
	}
	return t.PanelMuted
}

// Shortcut renders a "key desc" pair for the status bar.
func (t *Theme) Shortcut(key, desc string) string {
	return t.ShortcutKey.Render(key) + " " + t.ShortcutDsc.Render(desc)
}
