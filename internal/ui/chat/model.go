// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chatmon-tui/internal/auth"
	orchestrator "github.com/jeranaias/chatmon-tui/internal/chat"
	"github.com/jeranaias/chatmon-tui/internal/commands"
	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Conversation is the part of the orchestrator the TUI drives.
type Conversation interface {
	SendMessage(ctx context.Context, text string) error
	Abort()
	StartNewSession()
	SetCompare(on bool)
	Compare() bool
	SetModel(side model.Side, id string) error
	Catalog() model.Catalog
	Snapshot() orchestrator.State
}

// Options wires a Model. Conversation, Auth and Sync are required.
type Options struct {
	Conversation Conversation
	Auth         Authenticator
	// Sync must be the same ScrollSync whose Notify is installed as the
	// orchestrator's scroll hook.
	Sync     *ScrollSync
	Theme    *styles.Theme
	Settings Settings
	Logger   *zap.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Layout heights outside the panels.
const (
	headerHeight     = 1
	inputAreaHeight  = 2
	statusBarHeight  = 1
	panelChromeLines = 4 // border top/bottom + title + subtitle
	minViewportLines = 3
)

// Model is the Bubble Tea model for the whole TUI.
type Model struct {
	ctx    context.Context
	route  auth.Route
	conv   Conversation
	auth   Authenticator
	sync   *ScrollSync
	logger *zap.Logger

	// Styling
	theme  *styles.Theme
	render panelRenderer
	keys   KeyMap
	help   help.Model

	// Slash commands typed into the input line
	commands  *commands.Registry
	completer *commands.Completer

	// Dimensions
	width  int
	height int

	// UI components
	viewports [2]viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	login     loginForm

	// Last orchestrator snapshot
	state   orchestrator.State
	loading bool

	// Status line
	status    string
	statusErr bool
}

// New creates the TUI model. The first screen follows the navigation guard:
// chat when a login is persisted, the login form otherwise.
func New(ctx context.Context, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ss := opts.Sync
	if ss == nil {
		ss = NewScrollSync(opts.Settings.MaxFPS)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.ShowSuggestions = true
	ti.Focus()

	registry := commands.NewRegistry()
	completer := commands.NewCompleter(registry)
	conv := opts.Conversation
	completer.ModelsFn = func() []string { return conv.Catalog().IDs() }

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    spinner.Line.FPS,
	}

	var vps [2]viewport.Model
	for i := range vps {
		vps[i] = viewport.New(40, 10)
	}

	m := Model{
		ctx:       ctx,
		route:     auth.Resolve(auth.RouteHome, opts.Auth.IsAuthenticated()),
		conv:      opts.Conversation,
		auth:      opts.Auth,
		sync:      ss,
		logger:    logger,
		theme:     theme,
		render:    panelRenderer{theme: theme, markdown: newMarkdownRenderer(theme.IsDark), settings: opts.Settings},
		keys:      DefaultKeyMap(),
		help:      help.New(),
		commands:  registry,
		completer: completer,
		viewports: vps,
		input:     ti,
		spinner:   sp,
		login:     newLoginForm(),
	}
	m.state = m.conv.Snapshot()
	return m
}

// Route returns the screen currently shown.
func (m Model) Route() auth.Route {
	return m.route
}

// Init starts the cursor blink, the spinner and the scroll listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.sync.Wait())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refreshAll()
		return m, nil

	case tea.KeyMsg:
		if m.route == auth.RouteLogin {
			return m.handleLoginKey(msg)
		}
		return m.handleKey(msg)

	case PanelUpdatedMsg:
		m.refresh(msg.Side)
		return m, m.sync.Wait()

	case FlushTickMsg:
		if len(m.sync.Flush()) > 0 {
			m.refreshAll()
		}
		if m.loading {
			return m, flushTick()
		}
		return m, nil

	case TurnCompleteMsg:
		return m.handleTurnComplete(msg)

	case LoginResultMsg:
		return m.handleLoginResult(msg)

	case LogoutResultMsg:
		m.route = auth.Resolve(auth.RouteHome, false)
		m.login.reset()
		if msg.Err != nil {
			m.login.err = msg.Err.Error()
		}
		return m, nil

	case SettingsMsg:
		m.render.settings = msg.Settings
		m.render.markdown.Reset()
		m.sync.SetMaxFPS(msg.Settings.MaxFPS)
		m.refreshAll()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading {
			m.refreshAll()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	if m.route == auth.RouteLogin {
		m.login, cmd = m.login.update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Abort):
		if !m.loading {
			return m.quit()
		}
		m.conv.Abort()
		m.setStatus("Aborted", false)
		m.refreshAll()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.NewChat):
		m.conv.StartNewSession()
		m.render.markdown.Reset()
		m.setStatus("New chat started", false)
		m.refreshAll()
		return m, nil

	case key.Matches(msg, m.keys.ToggleCompare):
		if m.busy() {
			return m, nil
		}
		m.conv.SetCompare(!m.conv.Compare())
		if m.conv.Compare() {
			m.setStatus("Comparison on", false)
		} else {
			m.setStatus("Comparison off", false)
		}
		m.state = m.conv.Snapshot()
		m.layout()
		m.refreshAll()
		return m, nil

	case key.Matches(msg, m.keys.CycleLeft):
		return m.cycleModel(model.Left)

	case key.Matches(msg, m.keys.CycleRight):
		return m.cycleModel(model.Right)

	case key.Matches(msg, m.keys.Logout):
		m.conv.Abort()
		a, ctx := m.auth, m.ctx
		return m, func() tea.Msg {
			return LogoutResultMsg{Err: a.Logout(ctx)}
		}

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmds []tea.Cmd
		for _, side := range m.visibleSides() {
			var cmd tea.Cmd
			m.viewports[side], cmd = m.viewports[side].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		m.refreshAll()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.input.SetSuggestions(m.completer.Lines(m.input.Value()))
	return m, cmd
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m.quit()
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.login.toggleFocus()
		return m, nil
	case tea.KeyEnter:
		if m.login.busy {
			return m, nil
		}
		m.login.busy = true
		m.login.err = ""
		return m, m.login.submit(m.ctx, m.auth)
	}

	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

// send starts a turn with the input text. The turn runs in a command so the
// UI keeps drawing while answers stream in.
func (m Model) send() (tea.Model, tea.Cmd) {
	if m.loading {
		m.setStatus("Wait for the current answer or press esc", true)
		return m, nil
	}
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	if commands.IsCommand(text) {
		return m.runCommand(text)
	}

	m.input.Reset()
	m.loading = true
	m.status = ""

	conv, ctx, logger := m.conv, m.ctx, m.logger
	turn := func() tea.Msg {
		err := conv.SendMessage(ctx, text)
		if err != nil {
			logger.Warn("turn rejected", zap.Error(err))
		}
		return TurnCompleteMsg{Err: err}
	}
	return m, tea.Batch(turn, flushTick())
}

// runCommand executes a slash command typed into the input line.
func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.input.SetSuggestions(nil)

	res, err := m.commands.Execute(&commands.Context{Conv: m.conv}, text)
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	if res.Quit {
		return m.quit()
	}
	if res.Reset {
		m.render.markdown.Reset()
	}
	m.setStatus(res.Message, false)
	m.state = m.conv.Snapshot()
	if res.Layout {
		m.layout()
	}
	m.refreshAll()
	return m, nil
}

func (m Model) handleTurnComplete(msg TurnCompleteMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
		m.setStatus(msg.Err.Error(), true)
	}
	m.sync.Flush()
	m.refreshAll()
	return m, nil
}

func (m Model) handleLoginResult(msg LoginResultMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.Err != nil {
		m.login.err = loginErrorText(msg.Err)
		m.login.password.Reset()
		return m, nil
	}

	m.route = auth.Resolve(auth.RouteLogin, true)
	m.login.reset()
	m.conv.StartNewSession()
	m.render.markdown.Reset()
	m.setStatus(fmt.Sprintf("Signed in as %s", msg.User.Name), false)
	m.layout()
	m.refreshAll()
	return m, nil
}

func (m Model) cycleModel(side model.Side) (tea.Model, tea.Cmd) {
	if m.busy() {
		return m, nil
	}
	catalog := m.conv.Catalog()
	next := catalog.Next(m.state.Panels[side].Model)
	if err := m.conv.SetModel(side, next); err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	m.setStatus(fmt.Sprintf("%s model: %s", sideLabel(side), catalog.Info(next).Name), false)
	m.refreshAll()
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.conv.Abort()
	m.sync.Close()
	return m, tea.Quit
}

// busy reports a running turn and says so in the status line.
func (m *Model) busy() bool {
	if m.loading {
		m.setStatus("Not while an answer is streaming", true)
	}
	return m.loading
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// =============================================================================
// LAYOUT AND REFRESH
// =============================================================================

// visibleSides returns the panels on screen.
func (m Model) visibleSides() []model.Side {
	if m.state.Compare {
		return []model.Side{model.Left, model.Right}
	}
	return []model.Side{model.Left}
}

// panelWidths splits the terminal width between the visible panels.
func (m Model) panelWidths() [2]int {
	if m.state.Compare {
		left := m.width / 2
		return [2]int{left, m.width - left}
	}
	return [2]int{m.width, 0}
}

// layout sizes the viewports and the input for the current window.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	statusLines := statusBarHeight
	if m.help.ShowAll {
		statusLines = len(m.keys.FullHelp()[0]) + 1
	}

	vpHeight := m.height - headerHeight - inputAreaHeight - statusLines - panelChromeLines
	if vpHeight < minViewportLines {
		vpHeight = minViewportLines
	}
	widths := m.panelWidths()
	for _, side := range model.Sides {
		w := widths[side] - 2
		if w < 10 {
			w = 10
		}
		m.viewports[side].Width = w
		m.viewports[side].Height = vpHeight
	}
	m.input.Width = m.width - len(m.input.Prompt) - 3
	m.help.Width = m.width
}

// refreshAll takes a fresh snapshot and re-renders every visible panel,
// pinning each to its newest message.
func (m *Model) refreshAll() {
	m.state = m.conv.Snapshot()
	for _, side := range m.visibleSides() {
		m.renderPanel(side)
	}
}

// refresh re-renders one panel from a fresh snapshot.
func (m *Model) refresh(side model.Side) {
	m.state = m.conv.Snapshot()
	if side == model.Right && !m.state.Compare {
		return
	}
	m.renderPanel(side)
}

func (m *Model) renderPanel(side model.Side) {
	vp := &m.viewports[side]
	vp.SetContent(m.render.Render(m.state.Panels[side].Messages, vp.Width, m.spinner.View()))
	vp.GotoBottom()
}

func sideLabel(side model.Side) string {
	if side == model.Right {
		return "Right"
	}
	return "Left"
}
