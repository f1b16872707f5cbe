// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/session"
)

// FailureText replaces the text of an AI message whose stream failed.
const FailureText = "Unable to load the AI response. Please contact an administrator."

// UserSource supplies the id attached to outgoing requests. An empty id
// means no user-id header is sent.
type UserSource interface {
	UserID() string
}

// UserSourceFunc adapts a function to UserSource.
type UserSourceFunc func() string

// UserID calls f.
func (f UserSourceFunc) UserID() string { return f() }

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithScrollSync registers a hook fired for a panel after a placeholder is
// appended and after every applied chunk or terminal update. The hook runs
// outside the orchestrator's lock and may call back into it.
func WithScrollSync(fn func(model.Side)) Option {
	return func(o *Orchestrator) { o.onUpdate = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer sets the tracer used for turn and stream spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithUserSource sets where the request user id comes from.
func WithUserSource(u UserSource) Option {
	return func(o *Orchestrator) { o.users = u }
}

// WithFailureText overrides FailureText.
func WithFailureText(text string) Option {
	return func(o *Orchestrator) {
		if text != "" {
			o.failureText = text
		}
	}
}

// WithCatalog sets the catalog SetModel validates against.
func WithCatalog(c model.Catalog) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

// WithIdentity sets the session id source.
func WithIdentity(p session.Provider) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.identity = p
		}
	}
}

// WithModels sets the initial model of each panel. Ids are not validated.
func WithModels(left, right string) Option {
	return func(o *Orchestrator) {
		if left != "" {
			o.initialModels[model.Left] = left
		}
		if right != "" {
			o.initialModels[model.Right] = right
		}
	}
}

// WithCompare sets whether the right panel starts active.
func WithCompare(on bool) Option {
	return func(o *Orchestrator) { o.compare = on }
}
