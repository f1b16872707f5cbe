// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// COST TIER
// =============================================================================

// CostTier is a coarse price indicator shown next to each model.
type CostTier string

const (
	CostLow  CostTier = "low"
	CostHigh CostTier = "high"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a selectable model.
type ModelInfo struct {
	// ID is the value sent as the model query parameter
	ID string `json:"id" toml:"id"`

	// Name is the human-readable display name
	Name string `json:"name" toml:"name"`

	Description string   `json:"description" toml:"description"`
	Cost        CostTier `json:"cost" toml:"cost"`
}

// CostString returns a formatted cost badge.
func (m ModelInfo) CostString() string {
	switch m.Cost {
	case CostLow:
		return "$"
	case CostHigh:
		return "$$$"
	default:
		return "?"
	}
}

// Label returns "Name (cost)" for pickers and headers.
func (m ModelInfo) Label() string {
	return fmt.Sprintf("%s (%s)", m.Name, m.CostString())
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is an ordered, read-only list of models.
type Catalog []ModelInfo

// DefaultCatalog is the built-in model list.
var DefaultCatalog = Catalog{
	{
		ID:          "o4-mini",
		Name:        "o4-mini",
		Description: "Fastest at advanced reasoning",
		Cost:        CostLow,
	},
	{
		ID:          "gpt-4.1",
		Name:        "GPT-4.1",
		Description: "(High cost) Excellent for fast coding and analysis",
		Cost:        CostHigh,
	},
	{
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		Description: "(High cost) Great for most tasks",
		Cost:        CostHigh,
	},
}

const (
	// DefaultLeftModel is selected in the left panel at startup.
	DefaultLeftModel = "o4-mini"
	// DefaultRightModel is selected in the right panel at startup.
	DefaultRightModel = "gpt-4o"
)

// Lookup returns the model with the given id.
func (c Catalog) Lookup(id string) (ModelInfo, bool) {
	for _, m := range c {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Info returns the model with the given id, or a stub carrying only the id.
func (c Catalog) Info(id string) ModelInfo {
	if m, ok := c.Lookup(id); ok {
		return m
	}
	return ModelInfo{ID: id, Name: id}
}

// Next returns the id following current, wrapping around. An unknown id
// yields the first entry.
func (c Catalog) Next(current string) string {
	if len(c) == 0 {
		return current
	}
	for i, m := range c {
		if m.ID == current {
			return c[(i+1)%len(c)].ID
		}
	}
	return c[0].ID
}

// IDs returns all model ids in order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c))
	for i, m := range c {
		ids[i] = m.ID
	}
	return ids
}

// Validate checks that ids are non-empty and unique and tiers are known.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c))
	var problems []string
	for i, m := range c {
		switch {
		case strings.TrimSpace(m.ID) == "":
			problems = append(problems, fmt.Sprintf("model %d: empty id", i))
		case seen[m.ID]:
			problems = append(problems, fmt.Sprintf("model %q: duplicate id", m.ID))
		}
		seen[m.ID] = true
		if m.Cost != CostLow && m.Cost != CostHigh {
			problems = append(problems, fmt.Sprintf("model %q: cost must be low or high", m.ID))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid model catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}
