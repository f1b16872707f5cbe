// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatmon-tui/internal/session"
	"github.com/jeranaias/chatmon-tui/internal/storage"
)

func newProvider(t *testing.T, store storage.KV, password string) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), store, password, nil)
	require.NoError(t, err)
	return p
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := newProvider(t, store, "")

	require.False(t, p.IsAuthenticated())
	require.Equal(t, "", p.UserID())

	user, err := p.Login(ctx, "alice", DefaultPassword)
	require.NoError(t, err)
	require.Equal(t, User{ID: "alice", Name: "alice"}, user)

	require.True(t, p.IsAuthenticated())
	require.True(t, session.Valid(p.Token()), "token should be a uuid")
	require.Equal(t, "alice", p.UserID())

	token, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.Equal(t, p.Token(), token)

	raw, err := store.Get(ctx, KeyUser)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"alice","name":"alice"}`, raw)
}

func TestLogin_DefaultUsername(t *testing.T) {
	p := newProvider(t, storage.NewMemoryStore(), "")

	user, err := p.Login(context.Background(), "  ", DefaultPassword)
	require.NoError(t, err)
	require.Equal(t, DefaultUsername, user.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := newProvider(t, store, "")

	_, err := p.Login(ctx, "alice", "0000")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.False(t, p.IsAuthenticated())

	_, err = store.Get(ctx, KeyToken)
	require.ErrorIs(t, err, storage.ErrNotFound, "nothing persisted on failure")
}

func TestLogin_ConfiguredPassword(t *testing.T) {
	p := newProvider(t, storage.NewMemoryStore(), "s3cret")

	_, err := p.Login(context.Background(), "bob", DefaultPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.Login(context.Background(), "bob", "s3cret")
	require.NoError(t, err)
}

func TestLogout_RemovesKeys(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := newProvider(t, store, "")

	_, err := p.Login(ctx, "alice", DefaultPassword)
	require.NoError(t, err)
	require.NoError(t, p.Logout(ctx))

	require.False(t, p.IsAuthenticated())
	_, ok := p.CurrentUser()
	require.False(t, ok)

	for _, key := range []string{KeyToken, KeyUser} {
		_, err := store.Get(ctx, key)
		require.ErrorIs(t, err, storage.ErrNotFound, key)
	}
}

func TestProvider_RestoresPersistedLogin(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	first := newProvider(t, store, "")
	_, err = first.Login(ctx, "carol", DefaultPassword)
	require.NoError(t, err)
	token := first.Token()
	require.NoError(t, store.Close())

	reopened, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	second := newProvider(t, reopened, "")
	require.True(t, second.IsAuthenticated())
	require.Equal(t, token, second.Token())
	user, ok := second.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "carol", user.Name)
}

func TestProvider_IgnoresCorruptUser(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyToken, "tok"))
	require.NoError(t, store.Set(ctx, KeyUser, "{not json"))

	p := newProvider(t, store, "")
	require.True(t, p.IsAuthenticated())
	require.Equal(t, "", p.UserID())
}

type failingStore struct{ storage.KV }

func (failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestLogin_StoreFailure(t *testing.T) {
	p := newProvider(t, failingStore{storage.NewMemoryStore()}, "")

	_, err := p.Login(context.Background(), "alice", DefaultPassword)
	require.Error(t, err)
	require.False(t, p.IsAuthenticated())
}

func TestNewProvider_NilStore(t *testing.T) {
	_, err := NewProvider(context.Background(), nil, "", nil)
	require.Error(t, err)
}

// =============================================================================
// GUARD
// =============================================================================

func TestResolve(t *testing.T) {
	tests := []struct {
		to     Route
		authed bool
		want   Route
	}{
		{RouteHome, false, RouteLogin},
		{RouteHome, true, RouteHome},
		{RouteLogin, false, RouteLogin},
		{RouteLogin, true, RouteHome},
		{Route("about"), false, Route("about")},
	}

	for _, tt := range tests {
		if got := Resolve(tt.to, tt.authed); got != tt.want {
			t.Errorf("Resolve(%q, %v) = %q, want %q", tt.to, tt.authed, got, tt.want)
		}
	}
}
