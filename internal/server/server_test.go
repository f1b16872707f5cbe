// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/stream"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func startServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.ChunkDelay == 0 {
		opts.ChunkDelay = -1
	}
	srv := New(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

// drain reads a stream to completion.
func drain(t *testing.T, ch <-chan stream.Event) (string, stream.Event) {
	t.Helper()
	var text strings.Builder
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Terminal() {
				return text.String(), ev
			}
			text.WriteString(ev.Text)
		case <-timeout:
			t.Fatal("stream did not settle")
		}
	}
}

func newClient(t *testing.T, host string) *stream.Client {
	t.Helper()
	c, err := stream.NewClient(stream.Options{Host: host})
	require.NoError(t, err)
	return c
}

// =============================================================================
// STREAM TESTS
// =============================================================================

func TestStream_EchoThroughClient(t *testing.T) {
	srv, ts := startServer(t, Options{})
	client := newClient(t, ts.URL)

	text, last := drain(t, client.Stream(context.Background(), stream.Request{
		Prompt:    "hello streaming world",
		SessionID: "s-1",
		ModelID:   "o4-mini",
		UserID:    "alice",
	}))

	assert.Equal(t, "o4-mini: hello streaming world", text)
	assert.Equal(t, stream.KindDone, last.Kind)
	assert.Equal(t, int64(1), srv.Stats().Streams)
}

func TestStream_CustomReplySeesRequest(t *testing.T) {
	var got Request
	_, ts := startServer(t, Options{Reply: func(req Request) string {
		got = req
		return "ok"
	}})

	text, _ := drain(t, newClient(t, ts.URL).Stream(context.Background(), stream.Request{
		Prompt: "p", SessionID: "sid", ModelID: "gpt-4o", UserID: "bob",
	}))

	assert.Equal(t, "ok", text)
	assert.Equal(t, Request{Prompt: "p", SessionID: "sid", Model: "gpt-4o", UserID: "bob"}, got)
}

func TestStream_FailModelIsBadGateway(t *testing.T) {
	srv, ts := startServer(t, Options{FailModels: []string{"gpt-4.1"}})

	_, last := drain(t, newClient(t, ts.URL).Stream(context.Background(), stream.Request{
		Prompt: "x", ModelID: "gpt-4.1",
	}))

	require.Equal(t, stream.KindError, last.Kind)
	var status *stream.StatusError
	require.True(t, errors.As(last.Err, &status))
	assert.Equal(t, http.StatusBadGateway, status.Code)
	assert.Equal(t, int64(1), srv.Stats().Failures)
}

func TestStream_CancelStopsServer(t *testing.T) {
	_, ts := startServer(t, Options{ChunkDelay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	ch := newClient(t, ts.URL).Stream(ctx, stream.Request{Prompt: "one two three four", ModelID: "o4-mini"})

	first := <-ch
	require.Equal(t, stream.KindContent, first.Kind)
	cancel()

	_, last := drain(t, ch)
	assert.Equal(t, stream.KindDone, last.Kind)
}

func TestStream_PromptValidation(t *testing.T) {
	_, ts := startServer(t, Options{})

	resp, err := http.Get(ts.URL + stream.DefaultPath + "?model=o4-mini")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	long := strings.Repeat("a", MaxPromptLength+1)
	resp, err = http.Get(ts.URL + stream.DefaultPath + "?prompt=" + long)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestStream_CustomPath(t *testing.T) {
	_, ts := startServer(t, Options{Path: "chat/stream"})

	c, err := stream.NewClient(stream.Options{Host: ts.URL, Path: "/chat/stream"})
	require.NoError(t, err)
	text, _ := drain(t, c.Stream(context.Background(), stream.Request{Prompt: "hi", ModelID: "m"}))
	assert.Equal(t, "m: hi", text)
}

// =============================================================================
// INFO ENDPOINT TESTS
// =============================================================================

func TestModelsAndHealth(t *testing.T) {
	_, ts := startServer(t, Options{})

	resp, err := http.Get(ts.URL + "/models")
	require.NoError(t, err)
	defer resp.Body.Close()
	var models struct {
		Models model.Catalog `json:"models"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&models))
	assert.Equal(t, model.DefaultCatalog, models.Models)

	resp2, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Stats.StartTime.IsZero())
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestCORSPreflight(t *testing.T) {
	_, ts := startServer(t, Options{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+stream.DefaultPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), stream.UserIDHeader)
}

func TestRateLimit(t *testing.T) {
	_, ts := startServer(t, Options{RateLimit: 0.001, Burst: 1})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRecovery(t *testing.T) {
	_, ts := startServer(t, Options{Reply: func(Request) string { panic("boom") }})

	resp, err := http.Get(ts.URL + stream.DefaultPath + "?prompt=x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mw("a"), mw("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestListenAndShutdown(t *testing.T) {
	srv := New(Options{Addr: "127.0.0.1:0"})
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()

	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return srv.server != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	assert.NoError(t, New(Options{}).Shutdown(context.Background()))
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestChunks_Reassemble(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "reply")
		assert.Equal(t, s, strings.Join(chunks(s), ""))
	})
}
