// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
	"gopkg.in/cenkalti/backoff.v1"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultPath is the chat endpoint path on the backend.
	DefaultPath = "/agent/test"

	// DefaultMaxEventSize bounds a single SSE event (1MB).
	DefaultMaxEventSize = 1 << 20

	// UserIDHeader carries the authenticated user id.
	UserIDHeader = "user-id"

	eventBuffer = 16
)

// =============================================================================
// CLIENT
// =============================================================================

// Request describes one streamed completion.
type Request struct {
	Prompt    string
	SessionID string
	ModelID   string
	// UserID is sent as the user-id header when non-empty.
	UserID string
}

// Options configures a Client.
type Options struct {
	// Host is the backend base URL, e.g. "http://localhost:8080".
	Host string
	// Path defaults to DefaultPath.
	Path string
	// IdleTimeout ends a stream with ErrIdleTimeout when no event arrives for
	// this long. Zero disables it.
	IdleTimeout time.Duration
	// MaxEventSize defaults to DefaultMaxEventSize.
	MaxEventSize int
	// HTTPClient defaults to a client without an overall timeout.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client opens SSE chat streams. It holds only immutable configuration and is
// safe for concurrent use; streams share nothing but the HTTP client.
type Client struct {
	endpoint     *url.URL
	idleTimeout  time.Duration
	maxEventSize int
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	host := strings.TrimRight(strings.TrimSpace(opts.Host), "/")
	if host == "" {
		return nil, errors.New("api host cannot be empty")
	}
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	endpoint, err := url.Parse(host + path)
	if err != nil {
		return nil, fmt.Errorf("invalid api host: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid api host %q: scheme must be http or https", opts.Host)
	}
	if opts.IdleTimeout < 0 {
		return nil, errors.New("idle timeout cannot be negative")
	}

	c := &Client{
		endpoint:     endpoint,
		idleTimeout:  opts.IdleTimeout,
		maxEventSize: opts.MaxEventSize,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}
	if c.maxEventSize <= 0 {
		c.maxEventSize = DefaultMaxEventSize
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// URL returns the full request URL for req.
func (c *Client) URL(req Request) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("prompt", req.Prompt)
	q.Set("uuid", req.SessionID)
	q.Set("model", req.ModelID)
	u.RawQuery = q.Encode()
	return u.String()
}

// Stream opens a stream for req and returns its events. The channel yields
// zero or more Content events, then exactly one Done or Error, then closes.
// Callers must drain it. Cancelling ctx ends the stream with Done.
func (c *Client) Stream(ctx context.Context, req Request) <-chan Event {
	out := make(chan Event, eventBuffer)
	go c.run(ctx, req, out)
	return out
}

// =============================================================================
// STREAM LOOP
// =============================================================================

func (c *Client) run(ctx context.Context, req Request, out chan<- Event) {
	defer close(out)

	sctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	log := c.logger.With(
		zap.String("session_id", req.SessionID),
		zap.String("model", req.ModelID),
	)

	var idle *time.Timer
	if c.idleTimeout > 0 {
		idle = time.AfterFunc(c.idleTimeout, func() { cancel(ErrIdleTimeout) })
		defer idle.Stop()
	}

	client := c.newSSEClient(req)
	chunks := 0
	finished := false

	// The handler runs on the subscribe goroutine only.
	handler := func(msg *sse.Event) {
		if finished || sctx.Err() != nil {
			return
		}
		if idle != nil {
			idle.Reset(c.idleTimeout)
		}
		if string(msg.Data) == DoneSentinel {
			finished = true
			cancel(errSentinelSeen)
			return
		}
		chunks++
		select {
		case out <- Content(DecodeContent(msg.Data)):
		case <-sctx.Done():
		}
	}

	log.Debug("stream opened", zap.String("url", client.URL))
	err := client.SubscribeRawWithContext(sctx, handler)
	ev := classify(ctx, sctx, err)

	switch ev.Kind {
	case KindError:
		log.Warn("stream failed", zap.Int("chunks", chunks), zap.Error(ev.Err))
	default:
		log.Debug("stream finished", zap.Int("chunks", chunks))
	}
	out <- ev
}

// classify maps the subscription result onto a terminal event.
func classify(parent, sctx context.Context, err error) Event {
	cause := context.Cause(sctx)
	switch {
	case errors.Is(cause, errSentinelSeen):
		return Done()
	case errors.Is(cause, ErrIdleTimeout):
		return Failed(ErrIdleTimeout)
	case parent.Err() != nil:
		// Caller cancellation is a normal end.
		return Done()
	case err == nil:
		return Done()
	default:
		return Failed(err)
	}
}

// newSSEClient builds a single-use SSE client for req.
func (c *Client) newSSEClient(req Request) *sse.Client {
	client := sse.NewClient(c.URL(req), sse.ClientMaxBufferSize(c.maxEventSize))
	client.Connection = c.httpClient
	client.ReconnectStrategy = &backoff.StopBackOff{}
	client.ResponseValidator = validateResponse
	if req.UserID != "" {
		client.Headers[UserIDHeader] = req.UserID
	}
	return client
}

// validateResponse rejects non-2xx and non-event-stream responses.
func validateResponse(_ *sse.Client, resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/event-stream" {
		resp.Body.Close()
		return fmt.Errorf("%w: content type %q", ErrNotEventStream, resp.Header.Get("Content-Type"))
	}
	return nil
}
