// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/session"
	"github.com/jeranaias/chatmon-tui/internal/stream"
	"github.com/jeranaias/chatmon-tui/internal/telemetry"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTurnInFlight is returned by SendMessage while a turn is running.
	ErrTurnInFlight = errors.New("a turn is already in flight")
	// ErrClosed is returned by SendMessage after Close.
	ErrClosed = errors.New("orchestrator closed")
	// ErrUnknownModel is returned by SetModel for ids missing from the catalog.
	ErrUnknownModel = errors.New("unknown model")
	// ErrEmptyPrompt is returned by SendMessage for blank input.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// =============================================================================
// TYPES
// =============================================================================

// Transport opens one event stream per request. The returned channel must
// yield exactly one terminal event and then close.
type Transport interface {
	Stream(ctx context.Context, req stream.Request) <-chan stream.Event
}

// PanelState is a copy of one panel.
type PanelState struct {
	SessionID string
	Model     string
	Messages  []model.ChatMessage
}

// State is a consistent copy of the whole orchestrator.
type State struct {
	Panels  [2]PanelState
	Compare bool
	Loading bool
}

// target is one placeholder being streamed into.
type target struct {
	side  model.Side
	msgID int64
	req   stream.Request
}

// Orchestrator fans a user message out to one or two panels and streams the
// answers into per-panel placeholders. At most one turn runs at a time.
type Orchestrator struct {
	transport   Transport
	identity    session.Provider
	catalog     model.Catalog
	users       UserSource
	onUpdate    func(model.Side)
	failureText string
	logger      *zap.Logger
	tracer      trace.Tracer

	initialModels [2]string

	ids       model.IDCounter
	cancelMgr *cancelManager

	// mu guards everything below and every message reachable from panels.
	mu       sync.Mutex
	panels   [2]*model.Panel
	compare  bool
	loading  bool
	closed   bool
	inflight []target
}

// New creates an Orchestrator with fresh session ids for both panels.
func New(transport Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport:     transport,
		identity:      session.Default,
		catalog:       model.DefaultCatalog,
		failureText:   FailureText,
		logger:        zap.NewNop(),
		tracer:        telemetry.NoopTracer(),
		initialModels: [2]string{model.DefaultLeftModel, model.DefaultRightModel},
		cancelMgr:     newCancelManager(),
	}
	for _, opt := range opts {
		opt(o)
	}
	for _, side := range model.Sides {
		o.panels[side] = model.NewPanel(o.identity.NewID(), o.initialModels[side])
	}
	return o
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

// SendMessage runs one turn: it appends the user message and an AI
// placeholder to every active panel, streams each panel's answer, and returns
// once all streams have settled. Stream failures end up in the placeholder
// and are never returned. Cancelling ctx ends the turn like Abort.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyPrompt
	}
	text = norm.NFC.String(text)

	var userID string
	if o.users != nil {
		userID = o.users.UserID()
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.loading {
		o.mu.Unlock()
		return ErrTurnInFlight
	}

	ctx, span := o.tracer.Start(ctx, telemetry.SpanTurn)
	defer span.End()

	turnCtx, cancel := context.WithCancel(ctx)
	o.loading = true
	o.cancelMgr.set(cancel)

	sides := o.activeSidesLocked()
	for _, side := range sides {
		o.panels[side].Append(model.NewUserMessage(o.ids.Next(), text))
	}
	targets := make([]target, 0, len(sides))
	for _, side := range sides {
		p := o.panels[side]
		placeholder := model.NewPlaceholder(o.ids.Next())
		p.Append(placeholder)
		targets = append(targets, target{
			side:  side,
			msgID: placeholder.ID,
			req: stream.Request{
				Prompt:    text,
				SessionID: p.SessionID(),
				ModelID:   p.Model(),
				UserID:    userID,
			},
		})
	}
	o.inflight = targets
	o.mu.Unlock()

	defer o.finishTurn(cancel)

	span.SetAttributes(
		attribute.Bool(telemetry.AttrCompare, len(targets) == 2),
		attribute.Int(telemetry.AttrPromptRunes, utf8.RuneCountInString(text)),
	)
	start := time.Now()
	o.logger.Info("turn started", zap.Int("panels", len(targets)))

	for _, tg := range targets {
		o.notify(tg.side)
	}

	// Stream goroutines never fail; Wait only waits for all of them to settle.
	var g errgroup.Group
	for _, tg := range targets {
		g.Go(func() error {
			o.runStream(turnCtx, tg)
			return nil
		})
	}
	_ = g.Wait()

	o.logger.Info("turn settled", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// finishTurn clears loading and releases the turn's cancel handle.
func (o *Orchestrator) finishTurn(cancel context.CancelFunc) {
	o.mu.Lock()
	o.loading = false
	o.inflight = nil
	o.cancelMgr.cancel()
	o.mu.Unlock()
	cancel()
}

// runStream consumes one panel's stream until it closes.
func (o *Orchestrator) runStream(ctx context.Context, tg target) {
	ctx, span := o.tracer.Start(ctx, telemetry.SpanStream, trace.WithAttributes(
		attribute.String(telemetry.AttrSide, tg.side.String()),
		attribute.String(telemetry.AttrModel, tg.req.ModelID),
		attribute.String(telemetry.AttrSessionID, tg.req.SessionID),
	))
	defer span.End()

	log := o.logger.With(zap.Stringer("panel", tg.side), zap.String("model", tg.req.ModelID))

	chunks := 0
	outcome := "done"
	for ev := range o.transport.Stream(ctx, tg.req) {
		applied, failed := o.apply(ctx, tg, ev)
		if !applied {
			continue
		}
		if ev.Kind == stream.KindContent {
			chunks++
			if chunks == 1 {
				span.AddEvent(telemetry.EventFirstChunk)
			}
		}
		if failed {
			outcome = "error"
			span.RecordError(ev.Err)
			span.SetStatus(codes.Error, "stream failed")
			log.Warn("stream failed", zap.Error(ev.Err))
		}
		o.notify(tg.side)
	}

	if ctx.Err() != nil && outcome != "error" {
		outcome = "aborted"
		span.AddEvent(telemetry.EventAborted)
	}
	span.SetAttributes(
		attribute.Int(telemetry.AttrChunks, chunks),
		attribute.String(telemetry.AttrOutcome, outcome),
	)
	log.Debug("stream settled", zap.Int("chunks", chunks), zap.String("outcome", outcome))
}

// apply mutates the target placeholder for ev. Content is dropped once the
// turn is cancelled, and an error after cancellation counts as done.
func (o *Orchestrator) apply(ctx context.Context, tg target, ev stream.Event) (applied, failed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Missing after StartNewSession; settled after Abort.
	msg := o.panels[tg.side].Find(tg.msgID)
	if msg == nil || msg.Settled() {
		return false, false
	}

	switch ev.Kind {
	case stream.KindContent:
		if ctx.Err() != nil {
			return false, false
		}
		msg.AppendChunk(ev.Text)
	case stream.KindDone:
		msg.Finish()
	case stream.KindError:
		if ctx.Err() != nil {
			msg.Finish()
			return true, false
		}
		msg.Fail(o.failureText)
		return true, true
	}
	return true, false
}

// Abort cancels the turn in flight and settles its placeholders as done.
// It is a no-op when idle and safe to call repeatedly. No content is applied
// after Abort returns.
func (o *Orchestrator) Abort() {
	o.mu.Lock()
	settled := o.abortLocked()
	o.mu.Unlock()

	for _, side := range settled {
		o.notify(side)
	}
}

func (o *Orchestrator) abortLocked() []model.Side {
	if !o.loading || !o.cancelMgr.cancel() {
		return nil
	}
	var settled []model.Side
	for _, tg := range o.inflight {
		if msg := o.panels[tg.side].Find(tg.msgID); msg != nil && !msg.Settled() {
			msg.Finish()
			settled = append(settled, tg.side)
		}
	}
	o.logger.Info("turn aborted")
	return settled
}

// StartNewSession aborts any turn in flight, then clears both panels and
// gives each a new session id.
func (o *Orchestrator) StartNewSession() {
	o.mu.Lock()
	o.abortLocked()
	for _, side := range model.Sides {
		o.panels[side].Reset(o.identity.NewID())
	}
	o.mu.Unlock()

	o.logger.Info("new chat session")
	for _, side := range model.Sides {
		o.notify(side)
	}
}

// Close aborts any turn in flight and refuses further sends.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.abortLocked()
	o.mu.Unlock()
}

// =============================================================================
// SETTINGS
// =============================================================================

// SetCompare turns the right panel on or off. It applies from the next turn.
func (o *Orchestrator) SetCompare(on bool) {
	o.mu.Lock()
	o.compare = on
	o.mu.Unlock()
}

// Compare reports whether the right panel is active.
func (o *Orchestrator) Compare() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.compare
}

// SetModel selects the model for side. It applies from the next turn.
func (o *Orchestrator) SetModel(side model.Side, id string) error {
	if side != model.Left && side != model.Right {
		return fmt.Errorf("unknown panel %d", int(side))
	}
	if len(o.catalog) > 0 {
		if _, ok := o.catalog.Lookup(id); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownModel, id)
		}
	}

	o.mu.Lock()
	o.panels[side].SetModel(id)
	o.mu.Unlock()
	return nil
}

// Catalog returns the catalog SetModel validates against.
func (o *Orchestrator) Catalog() model.Catalog {
	return o.catalog
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Model returns the selected model of side.
func (o *Orchestrator) Model(side model.Side) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.panels[side].Model()
}

// SessionID returns the session id of side.
func (o *Orchestrator) SessionID(side model.Side) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.panels[side].SessionID()
}

// Messages returns a copy of side's messages.
func (o *Orchestrator) Messages(side model.Side) []model.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.panels[side].Snapshot()
}

// IsLoading reports whether a turn is in flight.
func (o *Orchestrator) IsLoading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// Snapshot returns a consistent copy of both panels and the flags.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	var st State
	for _, side := range model.Sides {
		p := o.panels[side]
		st.Panels[side] = PanelState{
			SessionID: p.SessionID(),
			Model:     p.Model(),
			Messages:  p.Snapshot(),
		}
	}
	st.Compare = o.compare
	st.Loading = o.loading
	return st
}

// =============================================================================
// HELPERS
// =============================================================================

func (o *Orchestrator) activeSidesLocked() []model.Side {
	if o.compare {
		return []model.Side{model.Left, model.Right}
	}
	return []model.Side{model.Left}
}

func (o *Orchestrator) notify(side model.Side) {
	if o.onUpdate != nil {
		o.onUpdate(side)
	}
}
