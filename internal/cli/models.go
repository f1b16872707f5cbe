// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/util"
)

// modelEntry is the --json shape of a catalog entry.
type modelEntry struct {
	model.ModelInfo
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

func newModelsCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"list-models"},
		Short:   "List the selectable models",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := app.cfg.Catalog()
			left, right := app.cfg.Models.Left, app.cfg.Models.Right
			out := cmd.OutOrStdout()

			if asJSON {
				entries := make([]modelEntry, len(catalog))
				for i, m := range catalog {
					entries[i] = modelEntry{ModelInfo: m, Left: m.ID == left, Right: m.ID == right}
				}
				return NewJSONResponse("models", entries).Write(out)
			}
			writeModelTable(out, catalog, left, right)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

// writeModelTable prints the catalog with L/R markers for the selected
// models.
func writeModelTable(out io.Writer, catalog model.Catalog, left, right string) {
	idWidth, nameWidth := len("ID"), len("NAME")
	for _, m := range catalog {
		idWidth = max(idWidth, util.StringWidth(m.ID))
		nameWidth = max(nameWidth, util.StringWidth(m.Name))
	}

	fmt.Fprintf(out, "    %s  %s  %s  %s\n",
		LabelStyle.Render(util.PadWidth("ID", idWidth)),
		LabelStyle.Render(util.PadWidth("NAME", nameWidth)),
		LabelStyle.Render(util.PadWidth("COST", 4)),
		LabelStyle.Render("DESCRIPTION"))

	for _, m := range catalog {
		marker := "  "
		switch {
		case m.ID == left && m.ID == right:
			marker = "LR"
		case m.ID == left:
			marker = "L "
		case m.ID == right:
			marker = " R"
		}
		cost := LowCostStyle
		if m.Cost == model.CostHigh {
			cost = HighCostStyle
		}
		fmt.Fprintf(out, "%s  %s  %s  %s  %s\n",
			TitleStyle.Render(marker),
			ValueStyle.Render(util.PadWidth(m.ID, idWidth)),
			util.PadWidth(m.Name, nameWidth),
			cost.Render(util.PadWidth(m.CostString(), 4)),
			DimStyle.Render(m.Description))
	}
}
