// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chatmon TUI.

All colors use Lip Gloss AdaptiveColor so one palette serves light and dark
terminals. NewTheme takes the configured ui.theme: "dark" and "light" pin the
palette, "auto" asks the terminal through termenv.

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.Header.Render(theme.HeaderBrand.Render("chatmon"))
	badge := theme.CostStyle(info.Cost).Render(info.CostString())
*/
package styles
