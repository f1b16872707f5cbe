// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/chatmon-tui/internal/model"
)

func TestScrollSync_NotifyWakesWaiter(t *testing.T) {
	s := NewScrollSync(30)
	defer s.Close()

	s.Notify(model.Right)

	msg := s.Wait()()
	assert.Equal(t, PanelUpdatedMsg{Side: model.Right}, msg)
	assert.Empty(t, s.Flush(), "a delivered update is not dirty")
}

func TestScrollSync_LimiterLeavesDirty(t *testing.T) {
	s := NewScrollSync(1)
	defer s.Close()

	s.Notify(model.Left)
	s.Notify(model.Left)
	s.Notify(model.Right)

	assert.Equal(t, PanelUpdatedMsg{Side: model.Left}, s.Wait()())
	assert.ElementsMatch(t, []model.Side{model.Left, model.Right}, s.Flush())
	assert.Empty(t, s.Flush())
}

func TestScrollSync_CloseReleasesWait(t *testing.T) {
	s := NewScrollSync(30)
	done := make(chan tea.Msg, 1)
	go func() { done <- s.Wait()() }()

	s.Close()
	s.Close()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Close")
	}
}

func TestScrollSync_FullChannelKeepsDirty(t *testing.T) {
	s := NewScrollSync(1000)
	defer s.Close()
	s.limiter.SetBurst(100)

	for i := 0; i < cap(s.updates)+2; i++ {
		s.Notify(model.Left)
	}
	assert.Equal(t, []model.Side{model.Left}, s.Flush())
}

func TestFlushTick(t *testing.T) {
	msg := flushTick()()
	assert.Equal(t, FlushTickMsg{}, msg)
}
