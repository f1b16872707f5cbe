// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatmon-tui/internal/auth"
	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/ui/styles"
	"github.com/jeranaias/chatmon-tui/internal/util"
)

// View renders the current screen.
func (m Model) View() string {
	if m.route == auth.RouteLogin {
		return m.viewLogin()
	}
	if m.width == 0 {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderPanels(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme

	parts := []string{t.HeaderBrand.Render("chatmon")}
	if user, ok := m.auth.CurrentUser(); ok {
		parts = append(parts, t.HeaderUser.Render(util.TruncateWidth(user.Name, 24)))
	}
	if m.state.Compare {
		parts = append(parts, t.CompareOn.Render(styles.StatusIndicators.Active+" compare"))
	} else {
		parts = append(parts, t.CompareOff.Render("single"))
	}
	if m.loading {
		parts = append(parts, t.Loading.Render(m.spinner.View()+" streaming"))
	}

	return t.Header.Width(m.width).MaxHeight(headerHeight).Render(strings.Join(parts, "  "))
}

// =============================================================================
// PANELS
// =============================================================================

func (m Model) renderPanels() string {
	widths := m.panelWidths()
	var cols []string
	for _, side := range m.visibleSides() {
		cols = append(cols, m.viewPanel(side, widths[side]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) viewPanel(side model.Side, width int) string {
	t := m.theme
	inner := width - 2
	panel := m.state.Panels[side]
	info := m.conv.Catalog().Info(panel.Model)

	badge := info.CostString()
	name := util.TruncateWidth(info.Name, inner-len(badge)-1)
	title := t.PanelTitle.Render(name) + " " + t.CostStyle(info.Cost).Render(badge)

	sub := info.Description
	if sid := panel.SessionID; sid != "" {
		sub = util.TruncateRunes(sid, 11) + "  " + sub
	}
	subtitle := t.ModelSubtext.Render(util.TruncateWidth(sub, inner))

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		m.viewports[side].View(),
	)
	return t.PanelStyle(true).Width(inner).Render(body)
}

// =============================================================================
// INPUT AND STATUS BAR
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	t := m.theme
	if m.help.ShowAll {
		return m.help.View(m.keys)
	}
	if m.status != "" {
		if m.statusErr {
			return t.StatusBar.Width(m.width).Render(t.LoginError.Render(util.TruncateWidth(m.status, m.width-4)))
		}
		return t.StatusBar.Width(m.width).Render(util.TruncateWidth(m.status, m.width-2))
	}
	return t.StatusBar.Width(m.width).Render(m.help.View(m.keys))
}
