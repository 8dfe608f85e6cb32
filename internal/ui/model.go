// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/cosmoscoderrs/mira-tui/internal/account"
	"github.com/cosmoscoderrs/mira-tui/internal/call"
	"github.com/cosmoscoderrs/mira-tui/internal/config"
	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/ui/styles"
)

// =============================================================================
// INFERENCE INTERFACE
// =============================================================================

// Inference is what the UI needs from the model client. Satisfied by
// *mira.Client; tests substitute a fake.
type Inference interface {
	Respond(ctx context.Context, history []convo.Message, prompt string) string
	RespondStreaming(ctx context.Context, history []convo.Message, prompt string, onChunk func(string)) string
	SetUsername(name string)
}

// CallDevices bundles the platform speech devices: live-call capture and
// synthesis plus the voice-note recorder. Any of the fields may be nil when
// the platform lacks the capability; the action then fails with a chat
// message instead of an error.
type CallDevices struct {
	Recognizer  call.Recognizer
	Synthesizer call.Synthesizer
	Microphone  call.Microphone
	Recorder    call.Recorder
}

// =============================================================================
// MOODS
// =============================================================================

// moodOptions are the selectable moods, in picker order. The stored format
// is "emoji label".
var moodOptions = []string{
	"🌸 Calm",
	"😊 Happy",
	"💭 Thoughtful",
	"😴 Tired",
	"😭 Overwhelmed",
	"✨ Inspired",
}

// =============================================================================
// SCREENS
// =============================================================================

type screen int

const (
	screenAuth screen = iota
	screenChat
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	cfg      *config.Config
	store    *convo.Store
	accounts *account.Manager
	client   Inference
	devices  CallDevices

	theme  *styles.Theme
	screen screen
	width  int
	height int
	frame  int

	// Session
	user *account.Account

	// Auth form
	auth authForm

	// Chat surface
	input          textarea.Model
	vp             viewport.Model
	spin           spinner.Model
	renderer       *glamour.TermRenderer
	sidebarVisible bool
	sidebarIndex   int
	confirmDelete  bool
	confirmClear   bool
	status         string

	// Streaming reply state
	typing     bool
	streamText string
	streamCh   chan tea.Msg
	buffer     *StreamingBuffer

	// Mood picker
	moodPickerOpen bool
	moodIndex      int
	mood           string

	// Theme override cache (from the store)
	themeOverride    string
	hasThemeOverride bool

	// Voice note recording
	recording bool

	// Attachment picker: when set, the input box holds a file path
	attachMode bool

	// ID of the voice bubble currently being spoken, or ""
	playingID string

	// Live call
	call *call.Controller

	// Visibility: true while the terminal window is unfocused. Atomic
	// because the inference client polls it from its stream goroutine.
	hidden atomic.Bool

	// Inactivity check-in
	lastActivity time.Time
	checkinSent  bool

	// pendingWelcome defers the new-account welcome until Init so the
	// reply command runs inside the program loop.
	pendingWelcome bool

	now func() time.Time
}

// New builds the root model. The store must already be loaded (and
// migrated); the client's username is set once sign-in resolves.
func New(cfg *config.Config, store *convo.Store, accounts *account.Manager, client Inference, devices CallDevices) *Model {
	input := textarea.New()
	input.Placeholder = "Message Mira..."
	input.CharLimit = 4000
	input.SetHeight(2)
	input.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		cfg:            cfg,
		store:          store,
		accounts:       accounts,
		client:         client,
		devices:        devices,
		auth:           newAuthForm(),
		input:          input,
		spin:           sp,
		buffer:         NewStreamingBuffer(30),
		sidebarVisible: true,
		lastActivity:   time.Now(),
		now:            time.Now,
	}

	m.loadPersistedUI()
	m.theme = styles.NewTheme(m.resolveMode())

	if user, err := accounts.Current(); err == nil && user != nil {
		m.signIn(user, false)
	} else {
		m.screen = screenAuth
		m.auth.focusFirst()
	}

	return m
}

// loadPersistedUI restores mood and the theme toggle from the store.
func (m *Model) loadPersistedUI() {
	if mood, ok, err := m.store.Mood(); err == nil && ok {
		m.mood = mood
	}
	if override, ok, err := m.store.ThemeOverride(); err == nil && ok {
		m.themeOverride = override
		m.hasThemeOverride = true
	}
}

// resolveMode resolves dark or light from config, the saved toggle, and the
// clock.
func (m *Model) resolveMode() styles.Mode {
	return styles.ResolveMode(
		m.cfg.UI.Theme,
		m.themeOverride,
		m.hasThemeOverride,
		m.now(),
		m.cfg.UI.DarkStartHour,
		m.cfg.UI.DarkEndHour,
	)
}

// themeForSize builds a theme in the given mode at the current terminal
// size.
func (m *Model) themeForSize(mode styles.Mode) *styles.Theme {
	theme := styles.NewTheme(mode)
	theme.SetSize(m.width, m.height)
	return theme
}

// signIn moves to the chat screen as the given account. firstTime requests
// the personalized welcome for a brand-new account.
func (m *Model) signIn(user *account.Account, firstTime bool) {
	m.user = user
	m.client.SetUsername(user.Name)
	m.screen = screenChat
	m.input.Focus()
	if firstTime {
		m.pendingWelcome = true
	}
}

// Init starts the clock and, for a brand-new account, Mira's welcome.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(),
		textarea.Blink,
	}
	if m.pendingWelcome {
		m.pendingWelcome = false
		cmds = append(cmds, m.scriptedReplyCmd(welcomePromptFor(m.user), false))
	}
	return tea.Batch(cmds...)
}

// activeMessages snapshots the active conversation's messages.
func (m *Model) activeMessages() []convo.Message {
	conv := m.store.Active()
	if conv == nil {
		return nil
	}
	out := make([]convo.Message, len(conv.Messages))
	copy(out, conv.Messages)
	return out
}

// markActivity resets the inactivity check-in window.
func (m *Model) markActivity() {
	m.lastActivity = m.now()
	m.checkinSent = false
}
