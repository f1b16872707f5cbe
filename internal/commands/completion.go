// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
)

// Completion is one candidate.
type Completion struct {
	Value       string
	Description string
	Score       int
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// ModelsFn returns the selectable model ids.
	ModelsFn func() []string
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns candidates for the last word of input.
func (c *Completer) Complete(input string) []Completion {
	if !strings.HasPrefix(strings.TrimLeft(input, " "), "/") {
		return nil
	}
	trailingSpace := strings.HasSuffix(input, " ")

	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return c.completeCommands("")
	}
	if len(parts) == 1 && !trailingSpace {
		return c.completeCommands(parts[0])
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil {
		return nil
	}

	// -1 for the command, -1 for the 0-based index
	argIndex := len(parts) - 2
	partial := parts[len(parts)-1]
	if trailingSpace {
		argIndex++
		partial = ""
	}
	return c.completeArg(cmd, argIndex, partial)
}

// Lines returns whole-line completions, the form line editors expect.
func (c *Completer) Lines(line string) []string {
	completions := c.Complete(line)
	if len(completions) == 0 {
		return nil
	}

	prefix := ""
	if i := strings.LastIndex(line, " "); i >= 0 {
		prefix = line[:i+1]
	}
	lines := make([]string, len(completions))
	for i, comp := range completions {
		lines[i] = prefix + comp.Value
	}
	return lines
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// completeCommands matches names and aliases, names first.
func (c *Completer) completeCommands(partial string) []Completion {
	partial = strings.ToLower(partial)

	var completions []Completion
	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}
		if strings.HasPrefix(cmd.Name, partial) {
			completions = append(completions, Completion{
				Value:       cmd.Name,
				Description: cmd.Description,
				Score:       calculateScore(cmd.Name, partial),
			})
			continue
		}
		for _, alias := range cmd.Aliases {
			if strings.HasPrefix(alias, partial) && partial != "/" {
				completions = append(completions, Completion{
					Value:       alias,
					Description: cmd.Description,
					Score:       calculateScore(alias, partial) - 10,
				})
			}
		}
	}
	sortCompletions(completions)
	return completions
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

func (c *Completer) completeArg(cmd *Command, argIndex int, partial string) []Completion {
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}
	arg := cmd.Args[argIndex]

	switch arg.Type {
	case ArgTypeModel:
		if c.ModelsFn == nil {
			return nil
		}
		return completeFromList(c.ModelsFn(), partial)
	case ArgTypeEnum:
		return completeFromList(arg.Values, partial)
	default:
		return nil
	}
}

func completeFromList(values []string, partial string) []Completion {
	partial = strings.ToLower(partial)
	var completions []Completion
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), partial) {
			completions = append(completions, Completion{
				Value: v,
				Score: calculateScore(v, partial),
			})
		}
	}
	sortCompletions(completions)
	return completions
}

// =============================================================================
// SCORING
// =============================================================================

// calculateScore ranks exact matches first, then shorter prefix matches.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100
	if value == partial {
		return score + 100
	}
	if strings.HasPrefix(value, partial) {
		score += 50
		score += 20 - len(value)
	}
	score -= len(value) / 2
	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}
