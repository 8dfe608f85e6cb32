// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package call runs Mira's live voice calls: a turn-taking state machine that
// alternates speech capture with synthesized replies. Speech capture,
// synthesis, and the microphone are behind interfaces so the machine can run
// against real devices or test doubles.
package call

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/mira"
)

// =============================================================================
// STATES
// =============================================================================

// State is the call machine's current phase.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateListening
	StateThinking
	StateSpeaking
	StateEnding
	StateEnded
)

// Label is the status line shown while the call bar is up.
func (s State) Label() string {
	switch s {
	case StateConnecting:
		return "Connecting..."
	case StateListening:
		return "Listening..."
	case StateThinking:
		return "Mira is thinking..."
	case StateSpeaking:
		return "Mira is speaking..."
	case StateEnding, StateEnded:
		return "Call ended"
	default:
		return ""
	}
}

// =============================================================================
// DEVICE INTERFACES
// =============================================================================

// Recognizer captures one utterance at a time. Listen blocks until a pause
// ends the utterance and returns the transcript; silence returns an empty
// string with no error. Abort cancels an in-flight Listen.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
	Abort()
}

// Synthesizer speaks text aloud. Speak blocks until playback finishes or is
// canceled; Cancel stops any in-flight playback.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	Cancel()
}

// Microphone is the audio input device. Level reports the instantaneous
// input level in [0, 1] for the live waveform.
type Microphone interface {
	Open() error
	Level() float64
	Close() error
}

// Recorder captures a voice-note clip, one recording at a time. Stop
// returns the encoded audio payload and its length in seconds; Cancel
// discards an in-flight recording. A recording and a live call contend for
// the microphone, so the owner must never run both at once.
type Recorder interface {
	Start() error
	Stop() (payload string, seconds float64, err error)
	Cancel()
}

// Responder produces Mira's replies. Satisfied by *mira.Client.
type Responder interface {
	Respond(ctx context.Context, history []convo.Message, prompt string) string
}

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies what a call event carries.
type EventType int

const (
	// EventStateChanged reports a phase transition.
	EventStateChanged EventType = iota
	// EventInterim carries a partial transcript for the status line.
	EventInterim
	// EventUtterance carries a finished user utterance to record in the chat.
	EventUtterance
	// EventReply carries one of Mira's spoken replies to record in the chat.
	EventReply
	// EventEnded reports teardown; Duration is the call length. The farewell
	// reply arrives afterwards as a final EventReply.
	EventEnded
)

// Event is one notification from the call machine.
type Event struct {
	Type     EventType
	State    State
	Text     string
	Duration time.Duration
}

// =============================================================================
// ERRORS
// =============================================================================

// CallError is surfaced to the user as a chat message, never as a raw error.
type CallError struct {
	Message string
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return e.Message
}

// Is implements errors.Is support.
func (e *CallError) Is(target error) bool {
	t, ok := target.(*CallError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrUnsupported means no speech recognition is available.
	ErrUnsupported = &CallError{Message: "Sorry, your device doesn't support live voice calls. 🎤"}

	// ErrPermission means microphone access was denied.
	ErrPermission = &CallError{Message: "I couldn't access your microphone. Please check your permissions. 🎤"}
)

// =============================================================================
// CONTROLLER
// =============================================================================

// retryDelay spaces out re-listens after a recognition error.
const retryDelay = 500 * time.Millisecond

// Controller drives one live call from greeting to farewell.
//
// The machine is strictly alternating: it never listens while a reply is
// being spoken. Events stream on Events(); the caller records utterances and
// replies into the conversation and repaints the call bar on state changes.
type Controller struct {
	responder  Responder
	recognizer Recognizer
	synth      Synthesizer
	mic        Microphone

	// History supplies conversation context for replies. Nil means no
	// context.
	History func() []convo.Message

	events  chan Event
	state   atomic.Int64
	started time.Time

	speaking atomic.Bool
	active   atomic.Bool
	hangupMu sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewController wires a call machine to its devices. recognizer may be nil
// when the platform has no speech recognition; Start then fails with
// ErrUnsupported.
func NewController(responder Responder, recognizer Recognizer, synth Synthesizer, mic Microphone) *Controller {
	return &Controller{
		responder:  responder,
		recognizer: recognizer,
		synth:      synth,
		mic:        mic,
		events:     make(chan Event, 32),
		done:       make(chan struct{}),
		sleep:      time.Sleep,
	}
}

// Events returns the event stream. Closed after the farewell reply.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// State returns the current phase.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Speaking reports whether a reply is currently being spoken.
func (c *Controller) Speaking() bool {
	return c.speaking.Load()
}

// Active reports whether the call is live.
func (c *Controller) Active() bool {
	return c.active.Load()
}

// Elapsed returns how long the call has been running.
func (c *Controller) Elapsed() time.Duration {
	if !c.active.Load() {
		return 0
	}
	return time.Since(c.started)
}

// Level returns the microphone input level for the live waveform.
func (c *Controller) Level() float64 {
	if !c.active.Load() || c.mic == nil {
		return 0
	}
	return c.mic.Level()
}

// Start acquires the microphone and launches the call loop. It returns
// ErrUnsupported without speech recognition and ErrPermission when the
// microphone cannot be opened; both are meant to be shown as chat messages.
func (c *Controller) Start(ctx context.Context) error {
	if c.recognizer == nil || c.synth == nil {
		return ErrUnsupported
	}
	if c.mic != nil {
		if err := c.mic.Open(); err != nil {
			return ErrPermission
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = time.Now()
	c.active.Store(true)
	c.setState(StateConnecting)

	go c.run(runCtx)
	return nil
}

// run is the call loop: greeting, then alternating listen/think/speak turns
// until hang-up.
func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	c.setState(StateThinking)
	greeting := c.responder.Respond(ctx, c.history(), mira.CallGreetingPrompt)
	if !c.active.Load() {
		return
	}
	c.emit(Event{Type: EventReply, Text: greeting})
	c.speak(ctx, greeting)

	for c.active.Load() && ctx.Err() == nil {
		// Strict alternation: never listen over our own voice
		if c.speaking.Load() {
			c.sleep(10 * time.Millisecond)
			continue
		}
		c.setState(StateListening)

		text, err := c.recognizer.Listen(ctx)
		if !c.active.Load() || ctx.Err() != nil {
			return
		}
		if err != nil {
			// Transient recognition error: back off and re-listen
			c.sleep(retryDelay)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			// Silence: keep listening
			continue
		}

		c.emit(Event{Type: EventUtterance, Text: text})
		c.setState(StateThinking)
		reply := c.responder.Respond(ctx, c.history(), text)
		if !c.active.Load() || ctx.Err() != nil {
			return
		}
		c.emit(Event{Type: EventReply, Text: reply})
		c.speak(ctx, reply)
	}
}

// speak plays a reply aloud, holding the speaking flag for the duration.
// Emoji are stripped first; a reply that was only emoji is skipped.
func (c *Controller) speak(ctx context.Context, text string) {
	clean := CleanForSpeech(text)
	if clean == "" || !c.active.Load() {
		return
	}
	c.setState(StateSpeaking)
	c.speaking.Store(true)
	_ = c.synth.Speak(ctx, clean)
	c.speaking.Store(false)
}

// PushInterim publishes a partial transcript for the status line. Recognizer
// implementations call this as words arrive, before Listen returns the final
// transcript.
func (c *Controller) PushInterim(text string) {
	if !c.active.Load() {
		return
	}
	c.emit(Event{Type: EventInterim, Text: text})
}

// Hangup tears the call down. Safe to call in any state, including
// repeatedly. Every cleanup step is guarded so one failure cannot skip the
// rest. The farewell request runs detached; teardown does not wait for it.
func (c *Controller) Hangup() {
	c.hangupMu.Lock()
	defer c.hangupMu.Unlock()

	if !c.active.Swap(false) {
		return
	}
	duration := time.Since(c.started)
	c.setState(StateEnding)

	if c.recognizer != nil {
		c.recognizer.Abort()
	}
	if c.synth != nil {
		c.synth.Cancel()
	}
	c.speaking.Store(false)
	if c.cancel != nil {
		c.cancel()
	}
	if c.mic != nil {
		_ = c.mic.Close()
	}

	c.emit(Event{Type: EventEnded, State: StateEnded, Duration: duration})
	c.state.Store(int64(StateEnded))

	go func() {
		<-c.done

		farewellCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		farewell := c.responder.Respond(farewellCtx, c.history(), mira.CallFarewellPrompt(duration))
		c.emit(Event{Type: EventReply, Text: farewell})
		close(c.events)
	}()
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Controller) history() []convo.Message {
	if c.History == nil {
		return nil
	}
	return c.History()
}

func (c *Controller) setState(s State) {
	c.state.Store(int64(s))
	c.emit(Event{Type: EventStateChanged, State: s})
}

// emit delivers an event without ever blocking the call loop; if the caller
// has stopped draining, the event is dropped.
func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

// CleanForSpeech strips emoji and symbol runes so the synthesizer does not
// read them aloud.
func CleanForSpeech(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF:
		case r >= 0x2600 && r <= 0x27BF:
		case r >= 0xFE00 && r <= 0xFE0F:
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
