// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatmon-tui/internal/model"
)

// FlushInterval is the fallback redraw period while a turn is running.
const FlushInterval = 33 * time.Millisecond

// ScrollSync turns orchestrator update hooks into Bubble Tea messages at a
// bounded rate. Notify may be called from any goroutine.
type ScrollSync struct {
	mu      sync.Mutex
	dirty   [2]bool
	limiter *rate.Limiter

	updates chan model.Side
	done    chan struct{}
	once    sync.Once
}

// NewScrollSync allows at most maxFPS wake-ups per second.
func NewScrollSync(maxFPS int) *ScrollSync {
	if maxFPS <= 0 {
		maxFPS = 30
	}
	return &ScrollSync{
		limiter: rate.NewLimiter(rate.Limit(maxFPS), 1),
		updates: make(chan model.Side, 8),
		done:    make(chan struct{}),
	}
}

// Notify marks side dirty and wakes the UI if the limiter allows it.
func (s *ScrollSync) Notify(side model.Side) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty[side] = true
	if !s.limiter.Allow() {
		return
	}
	select {
	case s.updates <- side:
		s.dirty[side] = false
	default:
	}
}

// SetMaxFPS changes the wake-up rate.
func (s *ScrollSync) SetMaxFPS(maxFPS int) {
	if maxFPS <= 0 {
		return
	}
	s.limiter.SetLimit(rate.Limit(maxFPS))
}

// Flush returns the sides marked dirty since the last wake-up and clears
// them.
func (s *ScrollSync) Flush() []model.Side {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sides []model.Side
	for _, side := range model.Sides {
		if s.dirty[side] {
			sides = append(sides, side)
			s.dirty[side] = false
		}
	}
	return sides
}

// Wait returns a command that blocks until the next wake-up. It must be
// re-issued after each PanelUpdatedMsg.
func (s *ScrollSync) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case side := <-s.updates:
			return PanelUpdatedMsg{Side: side}
		case <-s.done:
			return nil
		}
	}
}

// Close releases a pending Wait.
func (s *ScrollSync) Close() {
	s.once.Do(func() { close(s.done) })
}

// flushTick schedules the next FlushTickMsg.
func flushTick() tea.Cmd {
	return tea.Tick(FlushInterval, func(time.Time) tea.Msg {
		return FlushTickMsg{}
	})
}
