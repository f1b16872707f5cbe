// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/chatmon-tui/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// ErrUnknownCommand is returned by Execute for names not in the registry.
var ErrUnknownCommand = errors.New("unknown command")

// Conversation is the part of the orchestrator commands act on.
type Conversation interface {
	StartNewSession()
	SetCompare(on bool)
	Compare() bool
	SetModel(side model.Side, id string) error
	Catalog() model.Catalog
}

// Context is passed to every handler.
type Context struct {
	Conv Conversation
}

// Result tells the caller what to show and what changed.
type Result struct {
	// Message is a one-line confirmation for the user.
	Message string
	// Quit asks the caller to exit.
	Quit bool
	// Reset is set when the panels were cleared.
	Reset bool
	// Layout is set when compare mode or a model changed.
	Layout bool
}

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	Description string

	// Usage shows argument syntax (e.g., "/left <model>")
	Usage string

	Args []ArgDef

	Handler func(ctx *Context, args []string) (Result, error)

	// Hidden commands don't appear in help
	Hidden bool
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeModel                 // Model id from the catalog
	ArgTypeEnum                  // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias, ignoring case.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Execute parses input and runs the command it names.
func (r *Registry) Execute(ctx *Context, input string) (Result, error) {
	res := NewParser(r).Parse(input)
	if !res.IsCommand || res.CommandName == "" {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, input)
	}
	if res.Command == nil {
		return Result{}, fmt.Errorf("%w %s, try /help", ErrUnknownCommand, res.CommandName)
	}
	if err := ValidateArgs(res.Command, res.Args); err != nil {
		return Result{}, err
	}
	return res.Command.Handler(ctx, res.Args)
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "List commands",
		Handler:     r.handleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit chatmon",
		Handler:     handleQuit,
	})

	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n", "/clear"},
		Description: "Start a new chat in both panels",
		Handler:     handleNew,
	})

	r.Register(&Command{
		Name:        "/compare",
		Aliases:     []string{"/c"},
		Description: "Toggle side-by-side comparison",
		Usage:       "/compare [on|off]",
		Args: []ArgDef{
			{Name: "state", Type: ArgTypeEnum, Values: []string{"on", "off"}, Description: "on or off"},
		},
		Handler: handleCompare,
	})

	r.Register(&Command{
		Name:        "/left",
		Aliases:     []string{"/l"},
		Description: "Select the left panel model",
		Usage:       "/left <model>",
		Args: []ArgDef{
			{Name: "model", Required: true, Type: ArgTypeModel, Description: "a model id"},
		},
		Handler: modelHandler(model.Left),
	})

	r.Register(&Command{
		Name:        "/right",
		Aliases:     []string{"/r"},
		Description: "Select the right panel model",
		Usage:       "/right <model>",
		Args: []ArgDef{
			{Name: "model", Required: true, Type: ArgTypeModel, Description: "a model id"},
		},
		Handler: modelHandler(model.Right),
	})

	r.Register(&Command{
		Name:        "/models",
		Aliases:     []string{"/m"},
		Description: "List the selectable models",
		Handler:     handleModels,
	})
}

func (r *Registry) handleHelp(_ *Context, _ []string) (Result, error) {
	var parts []string
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		parts = append(parts, usage)
	}
	return Result{Message: "Commands: " + strings.Join(parts, "  ")}, nil
}

func handleQuit(_ *Context, _ []string) (Result, error) {
	return Result{Quit: true}, nil
}

func handleNew(ctx *Context, _ []string) (Result, error) {
	ctx.Conv.StartNewSession()
	return Result{Message: "New chat started", Reset: true}, nil
}

func handleCompare(ctx *Context, args []string) (Result, error) {
	on := !ctx.Conv.Compare()
	if len(args) > 0 {
		on = strings.EqualFold(args[0], "on")
	}
	ctx.Conv.SetCompare(on)
	msg := "Comparison off"
	if on {
		msg = "Comparison on"
	}
	return Result{Message: msg, Layout: true}, nil
}

func modelHandler(side model.Side) func(*Context, []string) (Result, error) {
	return func(ctx *Context, args []string) (Result, error) {
		id := args[0]
		if err := ctx.Conv.SetModel(side, id); err != nil {
			return Result{}, err
		}
		info := ctx.Conv.Catalog().Info(id)
		name := "Left"
		if side == model.Right {
			name = "Right"
		}
		return Result{Message: fmt.Sprintf("%s model: %s", name, info.Label()), Layout: true}, nil
	}
}

func handleModels(ctx *Context, _ []string) (Result, error) {
	catalog := ctx.Conv.Catalog()
	labels := make([]string, len(catalog))
	for i, m := range catalog {
		labels[i] = m.ID + " " + m.CostString()
	}
	return Result{Message: "Models: " + strings.Join(labels, ", ")}, nil
}
