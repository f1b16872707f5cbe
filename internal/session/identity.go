// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/google/uuid"
)

// =============================================================================
// IDENTITY PROVIDER
// =============================================================================

// Provider issues opaque session identifiers. A session id ties a panel's
// visible history to the conversation state the backend keeps for it.
type Provider interface {
	NewID() string
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() string

// NewID calls f.
func (f ProviderFunc) NewID() string {
	return f()
}

// UUIDProvider issues random (v4) UUIDs.
type UUIDProvider struct{}

// NewID returns a fresh UUID string.
func (UUIDProvider) NewID() string {
	return uuid.NewString()
}

// Default is the provider used when none is configured.
var Default Provider = UUIDProvider{}

// Valid reports whether id parses as a UUID.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
