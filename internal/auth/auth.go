// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/chatmon-tui/internal/storage"
)

// =============================================================================
// CONSTANTS AND ERRORS
// =============================================================================

const (
	// KeyToken and KeyUser are the only keys written to the store.
	KeyToken = "token"
	KeyUser  = "user"

	// DefaultUsername is used when login is called without a name.
	DefaultUsername = "user"
	// DefaultPassword is the shared password unless configured otherwise.
	DefaultPassword = "1234"
)

// ErrInvalidCredentials is returned by Login for a wrong password.
var ErrInvalidCredentials = errors.New("invalid login credentials")

// =============================================================================
// USER
// =============================================================================

// User is the signed-in identity. ID is attached to chat requests.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// =============================================================================
// PROVIDER
// =============================================================================

// Provider checks credentials and keeps the login state in a KV store so it
// survives restarts.
type Provider struct {
	store    storage.KV
	password string
	logger   *zap.Logger

	mu    sync.RWMutex
	token string
	user  *User
}

// NewProvider restores any persisted login from store. An empty password
// means DefaultPassword.
func NewProvider(ctx context.Context, store storage.KV, password string, logger *zap.Logger) (*Provider, error) {
	if store == nil {
		return nil, errors.New("auth store cannot be nil")
	}
	if password == "" {
		password = DefaultPassword
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Provider{store: store, password: password, logger: logger}

	token, err := store.Get(ctx, KeyToken)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load token: %w", err)
	default:
		p.token = token
	}

	raw, err := store.Get(ctx, KeyUser)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load user: %w", err)
	default:
		var u User
		if jsonErr := json.Unmarshal([]byte(raw), &u); jsonErr != nil {
			logger.Warn("ignoring unreadable stored user", zap.Error(jsonErr))
		} else {
			p.user = &u
		}
	}

	return p, nil
}

// Login checks password and persists a new token and user. An empty
// username becomes DefaultUsername.
func (p *Provider) Login(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = DefaultUsername
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(p.password)) != 1 {
		p.logger.Info("login rejected", zap.String("user", username))
		return User{}, ErrInvalidCredentials
	}

	user := User{ID: username, Name: username}
	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("failed to encode user: %w", err)
	}
	token := uuid.NewString()

	if err := p.store.Set(ctx, KeyToken, token); err != nil {
		return User{}, fmt.Errorf("failed to save token: %w", err)
	}
	if err := p.store.Set(ctx, KeyUser, string(data)); err != nil {
		return User{}, fmt.Errorf("failed to save user: %w", err)
	}

	p.mu.Lock()
	p.token = token
	p.user = &user
	p.mu.Unlock()

	p.logger.Info("login", zap.String("user", username))
	return user, nil
}

// Logout clears the in-memory state and removes both keys.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	p.token = ""
	p.user = nil
	p.mu.Unlock()

	err := errors.Join(
		p.store.Delete(ctx, KeyToken),
		p.store.Delete(ctx, KeyUser),
	)
	if err != nil {
		return fmt.Errorf("failed to clear login: %w", err)
	}
	p.logger.Info("logout")
	return nil
}

// IsAuthenticated reports whether a token is held.
func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token != ""
}

// Token returns the current token, or "".
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// CurrentUser returns the signed-in user.
func (p *Provider) CurrentUser() (User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return User{}, false
	}
	return *p.user, true
}

// UserID returns the current user's id, or "" when nobody is signed in.
func (p *Provider) UserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return ""
	}
	return p.user.ID
}
