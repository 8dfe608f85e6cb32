// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the mira terminal interface with Bubble Tea: the
// sign-in gate, the conversation sidebar, the chat view with streamed
// replies, voice bubbles, the mood picker, and the live-call bar.
package ui

import (
	"time"

	"github.com/cosmoscoderrs/mira-tui/internal/call"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// streamPartialMsg signals that new partial reply text is waiting in the
// stream buffer.
type streamPartialMsg struct{}

// streamDoneMsg signals that a reply finished. The text is final and ready
// to append to the conversation.
type streamDoneMsg struct {
	text string
}

// replyMsg delivers a non-streamed scripted reply (mood acks, call
// farewells, check-ins).
type replyMsg struct {
	text string
	// voice renders the reply as a synthesized voice bubble
	voice bool
}

// =============================================================================
// STORE MESSAGES
// =============================================================================

// resyncMsg reports the result of re-reading persisted state after the
// window regained focus or the database file changed on disk.
type resyncMsg struct {
	changed bool
	err     error
}

// StoreChangedMsg fires when the database file changes on disk (another
// process wrote it). Exported so main can inject it from the file watcher.
type StoreChangedMsg struct{}

// exportedMsg reports a finished export.
type exportedMsg struct {
	path string
	err  error
}

// playbackDoneMsg signals that a voice bubble finished speaking.
type playbackDoneMsg struct {
	id string
}

// =============================================================================
// CALL MESSAGES
// =============================================================================

// callEventMsg wraps one event from the live-call machine.
type callEventMsg struct {
	event call.Event
	// closed marks the end of the event stream
	closed bool
}

// callFailedMsg carries the user-facing text for a call that could not
// start.
type callFailedMsg struct {
	text string
}

// =============================================================================
// CLOCK MESSAGES
// =============================================================================

// tickMsg drives the per-second clock: call timer, waveform animation,
// theme auto-switching, and the inactivity check-in.
type tickMsg struct {
	at time.Time
}
