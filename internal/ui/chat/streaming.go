// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================
// PERFORMANCE: a fast model can emit hundreds of deltas per second.
// Rendering each one would melt the terminal, so tokens accumulate here
// and the UI drains the buffer on a fixed tick.

const (
	// streamBatchSize flushes early once this many tokens are pending.
	streamBatchSize = 15

	// streamMaxFPS caps viewport refreshes driven by the stream.
	streamMaxFPS = 30
)

// streamTickInterval is the flush cadence derived from streamMaxFPS.
var streamTickInterval = time.Second / streamMaxFPS

// StreamingBuffer accumulates stream tokens between renders.
// Safe for concurrent use.
type StreamingBuffer struct {
	mu        sync.Mutex
	pending   strings.Builder
	count     int
	lastFlush time.Time
}

// NewStreamingBuffer creates an empty buffer.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{lastFlush: time.Now()}
}

// Write adds a token to the buffer.
func (b *StreamingBuffer) Write(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.WriteString(token)
	b.count++
}

// Flush returns the buffered text if a flush is due, draining the
// buffer. Returns "" when nothing is pending or the flush window has
// not elapsed yet.
func (b *StreamingBuffer) Flush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.shouldFlushLocked() {
		return ""
	}
	return b.drainLocked()
}

// ForceFlush drains the buffer regardless of batching thresholds.
// Called when the stream completes so no trailing tokens are lost.
func (b *StreamingBuffer) ForceFlush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drainLocked()
}

// Reset discards any pending tokens.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.Reset()
	b.count = 0
	b.lastFlush = time.Now()
}

// Pending reports how many tokens are waiting.
func (b *StreamingBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *StreamingBuffer) shouldFlushLocked() bool {
	if b.count == 0 {
		return false
	}
	if b.count >= streamBatchSize {
		return true
	}
	return time.Since(b.lastFlush) >= streamTickInterval
}

func (b *StreamingBuffer) drainLocked() string {
	out := b.pending.String()
	b.pending.Reset()
	b.count = 0
	b.lastFlush = time.Now()
	return out
}

// streamTickCmd schedules the next buffer flush.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamTickInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
