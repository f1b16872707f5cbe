// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth holds chatmon's login state and the navigation guard.
//
// Authentication is a shared-password check. A successful login stores a
// random token and the user as JSON {"id","name"} under the "token" and
// "user" keys. The user id is attached to every chat request.
//
// # Usage
//
//	p, err := auth.NewProvider(ctx, store, cfg.Auth.Password, logger)
//	if _, err := p.Login(ctx, "alice", password); errors.Is(err, auth.ErrInvalidCredentials) {
//	    ...
//	}
//	screen := auth.Resolve(auth.RouteHome, p.IsAuthenticated())
package auth
