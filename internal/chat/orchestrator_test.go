// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/session"
	"github.com/jeranaias/chatmon-tui/internal/stream"
	"github.com/jeranaias/chatmon-tui/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKE TRANSPORT
// =============================================================================

// responder writes one stream's events. The fake closes out afterwards.
type responder func(ctx context.Context, req stream.Request, out chan<- stream.Event)

type fakeTransport struct {
	mu       sync.Mutex
	byModel  map[string]responder
	fallback responder
	requests []stream.Request
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{byModel: make(map[string]responder)}
}

func (f *fakeTransport) on(modelID string, r responder) *fakeTransport {
	f.byModel[modelID] = r
	return f
}

func (f *fakeTransport) Stream(ctx context.Context, req stream.Request) <-chan stream.Event {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	r, ok := f.byModel[req.ModelID]
	if !ok {
		r = f.fallback
	}
	f.mu.Unlock()

	out := make(chan stream.Event)
	go func() {
		defer close(out)
		if r == nil {
			out <- stream.Done()
			return
		}
		r(ctx, req, out)
	}()
	return out
}

func (f *fakeTransport) Requests() []stream.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stream.Request(nil), f.requests...)
}

// emit sends events in order.
func emit(events ...stream.Event) responder {
	return func(_ context.Context, _ stream.Request, out chan<- stream.Event) {
		for _, ev := range events {
			out <- ev
		}
	}
}

// holdUntilCancel sends events, then waits for cancellation and reports Done
// the way the real transport does.
func holdUntilCancel(events ...stream.Event) responder {
	return func(ctx context.Context, _ stream.Request, out chan<- stream.Event) {
		for _, ev := range events {
			out <- ev
		}
		<-ctx.Done()
		out <- stream.Done()
	}
}

func chunks(texts ...string) []stream.Event {
	events := make([]stream.Event, len(texts))
	for i, s := range texts {
		events[i] = stream.Content(s)
	}
	return events
}

func withDone(events []stream.Event) []stream.Event {
	return append(events, stream.Done())
}

// sendAsync runs SendMessage in a goroutine and returns its result channel.
func sendAsync(o *Orchestrator, ctx context.Context, text string) <-chan error {
	done := make(chan error, 1)
	go func() { done <- o.SendMessage(ctx, text) }()
	return done
}

func waitSend(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("SendMessage did not return")
	}
}

func waitForText(t *testing.T, o *Orchestrator, side model.Side, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		msgs := o.Messages(side)
		return len(msgs) > 0 && msgs[len(msgs)-1].Text == text
	}, 5*time.Second, time.Millisecond)
}

var ignoreTimes = cmpopts.IgnoreFields(model.ChatMessage{}, "ID", "CreatedAt", "FirstChunk", "SettledAt")

// =============================================================================
// SCENARIOS
// =============================================================================

func TestSendMessage_LeftOnly(t *testing.T) {
	ft := newFakeTransport().on(model.DefaultLeftModel, emit(withDone(chunks("Hi", " there"))...))
	o := New(ft, WithUserSource(UserSourceFunc(func() string { return "alice" })))
	leftSession := o.SessionID(model.Left)

	require.NoError(t, o.SendMessage(context.Background(), "Hello"))

	want := []model.ChatMessage{
		{Text: "Hello", Sender: model.SenderUser},
		{Text: "Hi there", Sender: model.SenderAI, Markdown: true},
	}
	if diff := cmp.Diff(want, o.Messages(model.Left), ignoreTimes); diff != "" {
		t.Errorf("left panel mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, o.Messages(model.Right), "right panel must not be touched")
	require.False(t, o.IsLoading())
	require.False(t, o.cancelMgr.active())

	reqs := ft.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, stream.Request{
		Prompt:    "Hello",
		SessionID: leftSession,
		ModelID:   model.DefaultLeftModel,
		UserID:    "alice",
	}, reqs[0])
}

func TestSendMessage_CompareOnePanelFails(t *testing.T) {
	ft := newFakeTransport().
		on(model.DefaultLeftModel, emit(stream.Failed(errors.New("connection reset")))).
		on(model.DefaultRightModel, emit(stream.Content("OK"), stream.Done()))
	o := New(ft, WithCompare(true))

	require.NoError(t, o.SendMessage(context.Background(), "X"), "stream failures are never returned")
	require.False(t, o.IsLoading())

	left := o.Messages(model.Left)
	right := o.Messages(model.Right)
	require.Len(t, left, 2)
	require.Len(t, right, 2)

	require.True(t, left[1].Error)
	require.False(t, left[1].Typing)
	require.Equal(t, FailureText, left[1].Text)

	require.False(t, right[1].Error)
	require.False(t, right[1].Typing)
	require.Equal(t, "OK", right[1].Text)

	require.Equal(t, "X", right[0].Text)
	require.NotEqual(t, left[0].ID, right[0].ID, "each panel owns its own user message")
}

func TestSendMessage_IDsGloballyUniqueAndIncreasing(t *testing.T) {
	ft := newFakeTransport()
	o := New(ft, WithCompare(true))

	for i := 0; i < 3; i++ {
		require.NoError(t, o.SendMessage(context.Background(), fmt.Sprintf("turn %d", i)))
	}

	seen := map[int64]bool{}
	for _, side := range model.Sides {
		var last int64
		for _, m := range o.Messages(side) {
			require.Greater(t, m.ID, last, "ids increase within a panel")
			require.False(t, seen[m.ID], "id %d reused", m.ID)
			seen[m.ID] = true
			last = m.ID
		}
	}
	require.Len(t, seen, 12)
}

func TestSendMessage_MarkerOrder(t *testing.T) {
	ft := newFakeTransport()
	o := New(ft, WithCompare(true))
	require.NoError(t, o.SendMessage(context.Background(), "hi"))

	left, right := o.Messages(model.Left), o.Messages(model.Right)
	require.Equal(t, []int64{1, 3}, []int64{left[0].ID, left[1].ID})
	require.Equal(t, []int64{2, 4}, []int64{right[0].ID, right[1].ID})
}

func TestSendMessage_RejectsWhileInFlight(t *testing.T) {
	ft := newFakeTransport().on(model.DefaultLeftModel, holdUntilCancel(stream.Content("partial")))
	o := New(ft)

	done := sendAsync(o, context.Background(), "first")
	waitForText(t, o, model.Left, "partial")
	require.True(t, o.IsLoading())

	before := o.Messages(model.Left)
	require.ErrorIs(t, o.SendMessage(context.Background(), "second"), ErrTurnInFlight)
	require.Len(t, o.Messages(model.Left), len(before), "rejected send must not mutate panels")

	o.Abort()
	waitSend(t, done)
	require.False(t, o.IsLoading())
}

func TestSendMessage_EmptyPrompt(t *testing.T) {
	o := New(newFakeTransport())
	require.ErrorIs(t, o.SendMessage(context.Background(), "  \n"), ErrEmptyPrompt)
	require.Empty(t, o.Messages(model.Left))
}

func TestSendMessage_NormalizesPrompt(t *testing.T) {
	ft := newFakeTransport()
	o := New(ft)

	// "e" followed by a combining acute accent composes to U+00E9.
	require.NoError(t, o.SendMessage(context.Background(), "cafe\u0301"))
	require.Equal(t, "caf\u00e9", o.Messages(model.Left)[0].Text)
	require.Equal(t, "caf\u00e9", ft.Requests()[0].Prompt)
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestAbort_SettlesAsDoneAndIsIdempotent(t *testing.T) {
	ft := newFakeTransport().
		on(model.DefaultLeftModel, holdUntilCancel(stream.Content("partial"))).
		on(model.DefaultRightModel, holdUntilCancel())
	o := New(ft, WithCompare(true))

	done := sendAsync(o, context.Background(), "go")
	waitForText(t, o, model.Left, "partial")

	o.Abort()
	afterFirst := o.Messages(model.Left)
	o.Abort()
	require.Equal(t, afterFirst, o.Messages(model.Left), "second Abort must be a no-op")

	waitSend(t, done)

	for _, side := range model.Sides {
		ai := o.Messages(side)[1]
		require.False(t, ai.Error, "%s: cancellation is not an error", side)
		require.False(t, ai.Typing, "%s: typing cleared", side)
	}
	require.Equal(t, "partial", o.Messages(model.Left)[1].Text)
	require.False(t, o.IsLoading())
}

func TestAbort_IdleIsNoop(t *testing.T) {
	o := New(newFakeTransport())
	o.Abort()
	o.Abort()
	require.False(t, o.IsLoading())
	require.Empty(t, o.Messages(model.Left))
}

func TestAbort_NoContentAfterReturn(t *testing.T) {
	release := make(chan struct{})
	late := func(ctx context.Context, _ stream.Request, out chan<- stream.Event) {
		out <- stream.Content("early")
		<-release
		// A misbehaving transport keeps sending after cancellation.
		out <- stream.Content(" late")
		out <- stream.Done()
	}
	ft := newFakeTransport().on(model.DefaultLeftModel, late)
	o := New(ft)

	done := sendAsync(o, context.Background(), "go")
	waitForText(t, o, model.Left, "early")

	o.Abort()
	close(release)
	waitSend(t, done)

	require.Equal(t, "early", o.Messages(model.Left)[1].Text)
}

func TestSendMessage_ContextCancelErrorIsDone(t *testing.T) {
	failOnCancel := func(ctx context.Context, _ stream.Request, out chan<- stream.Event) {
		out <- stream.Content("a")
		<-ctx.Done()
		out <- stream.Failed(ctx.Err())
	}
	ft := newFakeTransport().on(model.DefaultLeftModel, failOnCancel)
	o := New(ft)

	ctx, cancel := context.WithCancel(context.Background())
	done := sendAsync(o, ctx, "go")
	waitForText(t, o, model.Left, "a")
	cancel()
	waitSend(t, done)

	ai := o.Messages(model.Left)[1]
	require.False(t, ai.Error)
	require.False(t, ai.Typing)
	require.Equal(t, "a", ai.Text)
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

func TestStartNewSession_ResetsPanelsAndIDs(t *testing.T) {
	o := New(newFakeTransport(), WithCompare(true))
	require.NoError(t, o.SendMessage(context.Background(), "hello"))

	beforeLeft, beforeRight := o.SessionID(model.Left), o.SessionID(model.Right)
	o.StartNewSession()

	require.Empty(t, o.Messages(model.Left))
	require.Empty(t, o.Messages(model.Right))
	require.NotEqual(t, beforeLeft, o.SessionID(model.Left))
	require.NotEqual(t, beforeRight, o.SessionID(model.Right))
	require.NotEqual(t, o.SessionID(model.Left), o.SessionID(model.Right))
}

func TestStartNewSession_MidTurnDropsLateEvents(t *testing.T) {
	release := make(chan struct{})
	late := func(ctx context.Context, _ stream.Request, out chan<- stream.Event) {
		out <- stream.Content("old")
		<-release
		out <- stream.Content("stale")
		out <- stream.Done()
	}
	ft := newFakeTransport().on(model.DefaultLeftModel, late)
	o := New(ft)

	done := sendAsync(o, context.Background(), "go")
	waitForText(t, o, model.Left, "old")

	o.StartNewSession()
	close(release)
	waitSend(t, done)

	require.Empty(t, o.Messages(model.Left), "cleared panel must stay empty")
	require.False(t, o.IsLoading())
}

func TestStartNewSession_UsesIdentityProvider(t *testing.T) {
	n := 0
	ids := session.ProviderFunc(func() string {
		n++
		return fmt.Sprintf("s%d", n)
	})
	o := New(newFakeTransport(), WithIdentity(ids))
	require.Equal(t, "s1", o.SessionID(model.Left))
	require.Equal(t, "s2", o.SessionID(model.Right))

	o.StartNewSession()
	require.Equal(t, "s3", o.SessionID(model.Left))
	require.Equal(t, "s4", o.SessionID(model.Right))
}

func TestClose_RefusesSends(t *testing.T) {
	o := New(newFakeTransport())
	o.Close()
	require.ErrorIs(t, o.SendMessage(context.Background(), "hi"), ErrClosed)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSetModel(t *testing.T) {
	ft := newFakeTransport()
	o := New(ft, WithCompare(true))

	require.ErrorIs(t, o.SetModel(model.Left, "nope"), ErrUnknownModel)
	require.Error(t, o.SetModel(model.Side(5), "gpt-4o"))
	require.NoError(t, o.SetModel(model.Left, "gpt-4.1"))
	require.NoError(t, o.SetModel(model.Right, "o4-mini"))
	require.Equal(t, "gpt-4.1", o.Model(model.Left))

	require.NoError(t, o.SendMessage(context.Background(), "hi"))
	models := map[string]bool{}
	for _, r := range ft.Requests() {
		models[r.ModelID] = true
	}
	require.Equal(t, map[string]bool{"gpt-4.1": true, "o4-mini": true}, models)
}

func TestWithModels_InitialSelection(t *testing.T) {
	o := New(newFakeTransport(), WithModels("gpt-4o", ""))
	require.Equal(t, "gpt-4o", o.Model(model.Left))
	require.Equal(t, model.DefaultRightModel, o.Model(model.Right))
}

func TestSetCompare_AppliesToNextTurn(t *testing.T) {
	o := New(newFakeTransport())
	require.False(t, o.Compare())

	require.NoError(t, o.SendMessage(context.Background(), "one"))
	o.SetCompare(true)
	require.NoError(t, o.SendMessage(context.Background(), "two"))

	require.Len(t, o.Messages(model.Left), 4)
	require.Len(t, o.Messages(model.Right), 2)

	st := o.Snapshot()
	require.True(t, st.Compare)
	require.False(t, st.Loading)
	require.Equal(t, "two", st.Panels[model.Right].Messages[0].Text)
}

// =============================================================================
// HOOKS AND TRACING
// =============================================================================

func TestScrollSync_FiresPerUpdate(t *testing.T) {
	ft := newFakeTransport().on(model.DefaultLeftModel, emit(withDone(chunks("a", "b"))...))

	var mu sync.Mutex
	var calls []model.Side
	o := New(ft, WithScrollSync(func(side model.Side) {
		mu.Lock()
		calls = append(calls, side)
		mu.Unlock()
	}))

	require.NoError(t, o.SendMessage(context.Background(), "hi"))

	mu.Lock()
	defer mu.Unlock()
	// placeholder, two chunks, done
	require.Equal(t, []model.Side{model.Left, model.Left, model.Left, model.Left}, calls)
}

func TestScrollSync_HookMayReadState(t *testing.T) {
	ft := newFakeTransport().on(model.DefaultLeftModel, emit(withDone(chunks("a"))...))
	var o *Orchestrator
	o = New(ft, WithScrollSync(func(side model.Side) {
		_ = o.Messages(side)
	}))
	require.NoError(t, o.SendMessage(context.Background(), "hi"))
}

func TestTracing_TurnAndStreamSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ft := newFakeTransport().
		on(model.DefaultLeftModel, emit(stream.Failed(errors.New("boom")))).
		on(model.DefaultRightModel, emit(withDone(chunks("ok"))...))
	o := New(ft, WithCompare(true), WithTracer(tp.Tracer("test")))

	require.NoError(t, o.SendMessage(context.Background(), "hi"))

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	var turn sdktrace.ReadOnlySpan
	outcomes := map[string]string{}
	for _, s := range spans {
		if s.Name() == telemetry.SpanTurn {
			turn = s
		}
	}
	require.NotNil(t, turn)
	for _, s := range spans {
		if s.Name() != telemetry.SpanStream {
			continue
		}
		require.Equal(t, turn.SpanContext().SpanID(), s.Parent().SpanID())
		var side, outcome string
		for _, kv := range s.Attributes() {
			switch string(kv.Key) {
			case telemetry.AttrSide:
				side = kv.Value.AsString()
			case telemetry.AttrOutcome:
				outcome = kv.Value.AsString()
			}
		}
		outcomes[side] = outcome
	}
	require.Equal(t, map[string]string{"left": "error", "right": "done"}, outcomes)
}
