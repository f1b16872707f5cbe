// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatmon-tui/internal/model"
)

func TestNewTheme_Modes(t *testing.T) {
	tests := []struct {
		mode string
		dark bool
	}{
		{ModeDark, true},
		{ModeLight, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			theme := NewTheme(tt.mode)
			if theme.IsDark != tt.dark {
				t.Errorf("NewTheme(%q).IsDark = %v, want %v", tt.mode, theme.IsDark, tt.dark)
			}
			if lipgloss.HasDarkBackground() != tt.dark {
				t.Errorf("lipgloss background not updated for %q", tt.mode)
			}
		})
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme(ModeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Panel", theme.Panel},
		{"UserBubble", theme.UserBubble},
		{"AIBubble", theme.AIBubble},
		{"ErrorNotice", theme.ErrorNotice},
		{"InputContainer", theme.InputContainer},
		{"LoginBox", theme.LoginBox},
	}

	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style lost its content", s.name)
		}
	}
}

func TestCostStyle(t *testing.T) {
	theme := NewTheme(ModeDark)

	low := theme.CostStyle(model.CostLow)
	high := theme.CostStyle(model.CostHigh)
	if low.GetForeground() != Emerald {
		t.Errorf("low cost foreground = %v, want Emerald", low.GetForeground())
	}
	if high.GetForeground() != Amber {
		t.Errorf("high cost foreground = %v, want Amber", high.GetForeground())
	}
}

func TestPanelStyle(t *testing.T) {
	theme := NewTheme(ModeDark)

	if theme.PanelStyle(true).GetBorderTopForeground() != Overlay {
		t.Error("active panel should use the Overlay border")
	}
	if theme.PanelStyle(false).GetBorderTopForeground() != OverlayDim {
		t.Error("inactive panel should use the dimmed border")
	}
}

func TestShortcut(t *testing.T) {
	theme := NewTheme(ModeDark)
	out := theme.Shortcut("esc", "abort")
	if !strings.Contains(out, "esc") || !strings.Contains(out, "abort") {
		t.Errorf("Shortcut() = %q, want both key and description", out)
	}
}

func TestRenderError(t *testing.T) {
	out := RenderError("stream failed")
	if !strings.Contains(out, "[X] stream failed") {
		t.Errorf("RenderError() = %q", out)
	}
}
