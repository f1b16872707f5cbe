// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

// Route names a top-level screen.
type Route string

const (
	RouteHome  Route = "home"
	RouteLogin Route = "login"
)

// RequiresAuth reports whether r needs a signed-in user.
func (r Route) RequiresAuth() bool {
	return r == RouteHome
}

// Resolve returns where navigation to `to` actually lands: protected routes
// send signed-out users to login, and login sends signed-in users home.
func Resolve(to Route, authenticated bool) Route {
	switch {
	case to.RequiresAuth() && !authenticated:
		return RouteLogin
	case to == RouteLogin && authenticated:
		return RouteHome
	default:
		return to
	}
}
