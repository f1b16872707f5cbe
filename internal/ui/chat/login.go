// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatmon-tui/internal/auth"
)

// Authenticator is the part of auth.Provider the TUI needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (auth.User, error)
	Logout(ctx context.Context) error
	IsAuthenticated() bool
	CurrentUser() (auth.User, bool)
}

// loginForm is the username/password screen.
type loginForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
	err      string
	busy     bool
}

func newLoginForm() loginForm {
	user := textinput.New()
	user.Prompt = "Username: "
	user.Placeholder = auth.DefaultUsername
	user.CharLimit = 64
	user.Focus()

	pass := textinput.New()
	pass.Prompt = "Password: "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'
	pass.CharLimit = 128

	return loginForm{username: user, password: pass}
}

// toggleFocus moves focus between the two fields.
func (f *loginForm) toggleFocus() {
	f.focus = 1 - f.focus
	if f.focus == 0 {
		f.password.Blur()
		f.username.Focus()
	} else {
		f.username.Blur()
		f.password.Focus()
	}
}

// reset clears the form for the next login.
func (f *loginForm) reset() {
	f.username.Reset()
	f.password.Reset()
	f.err = ""
	f.busy = false
	if f.focus != 0 {
		f.toggleFocus()
	}
}

// update routes a message to the focused field.
func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

// submit returns the command performing the login.
func (f loginForm) submit(ctx context.Context, a Authenticator) tea.Cmd {
	username := strings.TrimSpace(f.username.Value())
	password := f.password.Value()
	return func() tea.Msg {
		user, err := a.Login(ctx, username, password)
		return LoginResultMsg{User: user, Err: err}
	}
}

// loginErrorText maps a login error to the line shown under the form.
func loginErrorText(err error) string {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return "Invalid username or password"
	}
	return "Login failed: " + err.Error()
}

func (m Model) viewLogin() string {
	t := m.theme
	f := m.login

	lines := []string{
		t.LoginTitle.Render("chatmon login"),
		f.username.View(),
		f.password.View(),
		"",
	}
	switch {
	case f.busy:
		lines = append(lines, t.LoginHint.Render(m.spinner.View()+" Signing in..."))
	case f.err != "":
		lines = append(lines, t.LoginError.Render(f.err))
	default:
		lines = append(lines, t.LoginHint.Render("tab switch field · enter sign in · ctrl+c quit"))
	}

	box := t.LoginBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
