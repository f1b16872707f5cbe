// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/stream"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is loopback only.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultChunkDelay paces the words of a reply.
	DefaultChunkDelay = 40 * time.Millisecond

	// MaxPromptLength bounds the prompt query parameter.
	MaxPromptLength = 100000

	// DefaultRateLimit and DefaultBurst apply per client IP.
	DefaultRateLimit = rate.Limit(20)
	DefaultBurst     = 40

	doneSentinel = "[DONE]"
)

// ============================================================================
// REPLIES
// ============================================================================

// Request is one parsed streaming request.
type Request struct {
	Prompt    string
	SessionID string
	Model     string
	UserID    string
}

// ReplyFunc produces the full answer for a request. The server splits it
// into word chunks.
type ReplyFunc func(req Request) string

// EchoReply answers "<model>: <prompt>".
func EchoReply(req Request) string {
	return req.Model + ": " + req.Prompt
}

// chunks splits s after each space so the pieces concatenate back to s.
func chunks(s string) []string {
	if s == "" {
		return nil
	}
	return strings.SplitAfter(s, " ")
}

// ============================================================================
// STATS
// ============================================================================

// Stats counts requests since start.
type Stats struct {
	Requests  int64     `json:"requests"`
	Streams   int64     `json:"streams"`
	Failures  int64     `json:"failures"`
	StartTime time.Time `json:"start_time"`
}

type counters struct {
	requests atomic.Int64
	streams  atomic.Int64
	failures atomic.Int64
	start    time.Time
}

func (c *counters) snapshot() Stats {
	return Stats{
		Requests:  c.requests.Load(),
		Streams:   c.streams.Load(),
		Failures:  c.failures.Load(),
		StartTime: c.start,
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Options configure a Server. Zero values select the defaults.
type Options struct {
	Addr       string
	Path       string
	Catalog    model.Catalog
	ChunkDelay time.Duration
	// FailModels answer with 502 Bad Gateway.
	FailModels []string
	Reply      ReplyFunc
	RateLimit  rate.Limit
	Burst      int
	Logger     *zap.Logger
}

// Server is the mock backend.
type Server struct {
	addr    string
	path    string
	catalog model.Catalog
	delay   time.Duration
	fail    map[string]bool
	reply   ReplyFunc
	logger  *zap.Logger

	mux     *http.ServeMux
	handler http.Handler
	stats   counters

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a Server. A negative ChunkDelay disables pacing.
func New(opts Options) *Server {
	s := &Server{
		addr:    opts.Addr,
		path:    opts.Path,
		catalog: opts.Catalog,
		delay:   opts.ChunkDelay,
		fail:    make(map[string]bool, len(opts.FailModels)),
		reply:   opts.Reply,
		logger:  opts.Logger,
		mux:     http.NewServeMux(),
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.path == "" {
		s.path = stream.DefaultPath
	}
	if !strings.HasPrefix(s.path, "/") {
		s.path = "/" + s.path
	}
	if s.catalog == nil {
		s.catalog = model.DefaultCatalog
	}
	if s.delay == 0 {
		s.delay = DefaultChunkDelay
	}
	if s.reply == nil {
		s.reply = EchoReply
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	for _, id := range opts.FailModels {
		s.fail[id] = true
	}
	limit, burst := opts.RateLimit, opts.Burst
	if limit == 0 {
		limit = DefaultRateLimit
	}
	if burst == 0 {
		burst = DefaultBurst
	}
	s.stats.start = time.Now()

	s.setupRoutes()
	s.handler = Chain(
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		CORSMiddleware(),
		RateLimitMiddleware(NewRateLimiter(limit, burst), s.logger),
	)(s.mux)
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET "+s.path, s.handleStream)
	s.mux.HandleFunc("GET /models", s.handleModels)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routed handler with middleware, for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Stats returns the request counters.
func (s *Server) Stats() Stats {
	return s.stats.snapshot()
}

// ============================================================================
// STREAM HANDLER
// ============================================================================

// contentPayload is the data of one content event.
type contentPayload struct {
	Content string `json:"content"`
}

// handleStream handles GET {path}.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.stats.requests.Add(1)

	q := r.URL.Query()
	req := Request{
		Prompt:    q.Get("prompt"),
		SessionID: q.Get("uuid"),
		Model:     q.Get("model"),
		UserID:    r.Header.Get(stream.UserIDHeader),
	}
	log := s.logger.With(zap.String("model", req.Model), zap.String("session", req.SessionID))

	switch {
	case req.Prompt == "":
		s.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	case len(req.Prompt) > MaxPromptLength:
		s.writeError(w, http.StatusRequestEntityTooLarge, "prompt too long")
		return
	case s.fail[req.Model]:
		s.stats.failures.Add(1)
		log.Info("stream refused")
		s.writeError(w, http.StatusBadGateway, "model unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	parts := chunks(s.reply(req))

	s.stats.streams.Add(1)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var timer *time.Timer
	for i, chunk := range parts {
		if i > 0 && s.delay > 0 {
			if timer == nil {
				timer = time.NewTimer(s.delay)
				defer timer.Stop()
			} else {
				timer.Reset(s.delay)
			}
			select {
			case <-r.Context().Done():
				log.Debug("client went away")
				return
			case <-timer.C:
			}
		}
		data, err := json.Marshal(contentPayload{Content: chunk})
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	fmt.Fprintf(w, "data: %s\n\n", doneSentinel)
	flusher.Flush()
	log.Debug("stream complete")
}

// ============================================================================
// INFO HANDLERS
// ============================================================================

// handleModels handles GET /models.
func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"models": s.catalog})
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status string `json:"status"`
	Stats  Stats  `json:"stats"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Stats: s.stats.snapshot()})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until Shutdown. It returns nil after a clean
// shutdown, including one that happened before it was called.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("server started", zap.String("addr", s.addr), zap.String("path", s.path))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("server stopping", zap.Int64("requests", s.stats.requests.Load()))
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write failed", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
