// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"sync"
	"time"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer throttles streamed reply updates so the view repaints at a
// capped frame rate instead of once per token.
//
// The inference client calls Set from its stream goroutine with the
// accumulated text; the Bubble Tea loop calls Take when it is ready to
// repaint. Take returns false until enough time has passed since the last
// repaint, which keeps long replies from flooding the event loop.
//
// Thread-safety: Set and Take may be called from different goroutines.
type StreamingBuffer struct {
	mu        sync.Mutex
	text      string
	dirty     bool
	lastFlush time.Time
	minFlush  time.Duration
}

// NewStreamingBuffer creates a buffer capped at the given frame rate.
// maxFPS outside (0, 60] falls back to 30.
func NewStreamingBuffer(maxFPS int) *StreamingBuffer {
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &StreamingBuffer{
		minFlush: time.Second / time.Duration(maxFPS),
	}
}

// Set records the accumulated reply text so far.
func (b *StreamingBuffer) Set(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.dirty = true
}

// Take returns the latest text when a repaint is due. The second return is
// false when nothing new has arrived or the frame budget is not yet spent.
func (b *StreamingBuffer) Take() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dirty || time.Since(b.lastFlush) < b.minFlush {
		return "", false
	}
	b.dirty = false
	b.lastFlush = time.Now()
	return b.text, true
}

// Drain returns whatever is pending regardless of the frame budget. Used
// when the stream finishes so the final text is never dropped.
func (b *StreamingBuffer) Drain() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dirty {
		return "", false
	}
	b.dirty = false
	b.lastFlush = time.Now()
	return b.text, true
}

// Reset clears the buffer for the next reply.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
	b.dirty = false
}
