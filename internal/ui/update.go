// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cosmoscoderrs/mira-tui/internal/account"
	"github.com/cosmoscoderrs/mira-tui/internal/call"
	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/mira"
	"github.com/cosmoscoderrs/mira-tui/internal/ui/styles"
)

// Update routes messages to the active screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.FocusMsg:
		m.hidden.Store(false)
		return m, m.resyncCmd()

	case tea.BlurMsg:
		m.hidden.Store(true)
		return m, nil

	case tickMsg:
		return m, m.handleTick(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.call != nil {
				m.call.Hangup()
			}
			return m, tea.Quit
		}
	}

	if m.screen == screenAuth {
		return m.updateAuth(msg)
	}
	return m.updateChat(msg)
}

// IsHidden reports whether the terminal window is unfocused. The inference
// client polls this to degrade streaming.
func (m *Model) IsHidden() bool {
	return m.hidden.Load()
}

// resize propagates the new terminal size to every component.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.input.SetWidth(m.chatWidth() - 4)
	m.vp.Width = m.chatWidth()
	m.vp.Height = m.chatHeight()
	m.rebuildRenderer()
	m.refreshViewport(true)
}

// handleTick advances animations, re-resolves the auto theme, and fires the
// inactivity check-in.
func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	m.frame++
	cmds := []tea.Cmd{tickCmd()}

	if mode := m.resolveMode(); mode != m.theme.Mode {
		m.theme = m.themeForSize(mode)
		m.rebuildRenderer()
		m.refreshViewport(false)
	}

	if cmd := m.maybeCheckin(msg.at); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// maybeCheckin sends Mira's check-in when the user has gone quiet after
// their own message.
func (m *Model) maybeCheckin(now time.Time) tea.Cmd {
	hours := m.cfg.Call.InactivityCheckinHours
	if m.screen != screenChat || hours <= 0 || m.checkinSent || m.typing {
		return nil
	}
	conv := m.store.Active()
	if conv == nil {
		return nil
	}
	last := conv.LastMessage()
	if last == nil || last.Sender != convo.SenderUser {
		return nil
	}
	if now.Sub(m.lastActivity).Hours() < float64(hours) {
		return nil
	}
	m.checkinSent = true
	return m.scriptedReplyCmd(mira.CheckinPrompt, false)
}

// =============================================================================
// AUTH SCREEN
// =============================================================================

func (m *Model) updateAuth(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, m.auth.update(msg)
	}

	switch key.String() {
	case "tab", "shift+tab", "down", "up":
		m.auth.cycleFocus()
		return m, nil
	case "ctrl+t":
		m.auth.toggleMode()
		return m, nil
	case "enter":
		return m.submitAuth()
	}
	return m, m.auth.update(msg)
}

// submitAuth attempts sign-in or registration with the typed values.
// Failures show the account error text verbatim and clear the password.
func (m *Model) submitAuth() (tea.Model, tea.Cmd) {
	name, email, password := m.auth.values()

	var user *account.Account
	var err error
	if m.auth.mode == authSignUp {
		user, err = m.accounts.Register(name, email, password)
	} else {
		user, err = m.accounts.Login(email, password)
	}
	if err != nil {
		m.auth.errText = err.Error()
		m.auth.resetPassword()
		return m, nil
	}

	firstTime := m.auth.mode == authSignUp
	m.signIn(user, firstTime)
	m.refreshViewport(true)

	// Init has already run, so fire the welcome here.
	if firstTime {
		m.pendingWelcome = false
		return m, tea.Batch(m.scriptedReplyCmd(welcomePromptFor(user), false), m.spin.Tick)
	}
	return m, nil
}

// =============================================================================
// CHAT SCREEN
// =============================================================================

func (m *Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleChatKey(msg)

	case streamPartialMsg:
		if m.streamCh == nil {
			return m, nil
		}
		if text, ok := m.buffer.Take(); ok {
			m.streamText = text
			m.refreshViewport(true)
		}
		return m, waitForStream(m.streamCh)

	case streamDoneMsg:
		return m, m.finishReply(msg.text, false)

	case replyMsg:
		return m, m.finishReply(msg.text, msg.voice)

	case resyncMsg:
		if msg.err != nil {
			m.status = "Sync failed: " + msg.err.Error()
		} else if msg.changed {
			m.loadPersistedUI()
			m.refreshViewport(true)
		}
		return m, nil

	case StoreChangedMsg:
		return m, m.resyncCmd()

	case exportedMsg:
		if msg.err != nil {
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported to " + msg.path
		}
		return m, nil

	case playbackDoneMsg:
		if m.playingID == msg.id {
			m.playingID = ""
			m.refreshViewport(false)
		}
		return m, nil

	case callEventMsg:
		return m, m.handleCallEvent(msg)

	case callFailedMsg:
		m.appendMira(msg.text, false)
		return m, nil

	case spinner.TickMsg:
		if !m.typing && m.call == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleChatKey dispatches chat-screen shortcuts; everything else types
// into the input box.
func (m *Model) handleChatKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moodPickerOpen {
		return m.handleMoodKey(key)
	}

	switch key.String() {
	case "enter":
		if m.attachMode {
			return m, m.attachFile()
		}
		return m, m.sendMessage()

	case "esc":
		if m.attachMode {
			m.attachMode = false
			m.status = ""
			m.input.Reset()
		}
		return m, nil

	case "ctrl+n":
		return m, m.newConversation()

	case "ctrl+b":
		m.sidebarVisible = !m.sidebarVisible
		m.resize(m.width, m.height)
		return m, nil

	case "ctrl+d":
		return m, m.deleteConversation()

	case "ctrl+e":
		m.status = "Exporting..."
		return m, m.exportCmd()

	case "alt+e":
		m.status = "Exporting..."
		return m, m.exportConversationCmd()

	case "ctrl+r":
		return m, m.toggleRecording()

	case "ctrl+a":
		m.attachMode = true
		m.input.Reset()
		m.status = "Type a file path and press Enter to attach (Esc cancels)"
		return m, nil

	case "ctrl+v":
		return m, m.togglePlayback()

	case "ctrl+t":
		m.toggleTheme()
		return m, nil

	case "ctrl+o":
		m.openMoodPicker()
		return m, nil

	case "ctrl+l":
		return m, m.toggleCall()

	case "ctrl+x":
		return m, m.clearData()

	case "ctrl+s":
		return m, m.signOut()

	case "ctrl+up":
		return m, m.switchConversation(-1)

	case "ctrl+down":
		return m, m.switchConversation(1)

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(key)
		return m, cmd
	}

	m.confirmDelete = false
	m.confirmClear = false
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

// clearData asks once, then wipes conversations and mood. Accounts and the
// session survive; Mira acknowledges the fresh start.
func (m *Model) clearData() tea.Cmd {
	if !m.confirmClear {
		m.confirmClear = true
		m.status = "Press Ctrl+X again to erase all conversations"
		return nil
	}
	m.confirmClear = false
	m.status = ""
	if err := m.store.ClearData(); err != nil {
		m.status = "Clear failed: " + err.Error()
		return nil
	}
	m.mood = ""
	m.sidebarIndex = 0
	m.streamText = ""
	m.typing = false
	m.refreshViewport(true)
	return tea.Batch(m.scriptedReplyCmd(mira.DataClearedPrompt, false), m.spin.Tick)
}

// signOut clears the session and returns to the auth screen.
func (m *Model) signOut() tea.Cmd {
	if m.call != nil {
		m.call.Hangup()
	}
	if err := m.accounts.Logout(); err != nil {
		m.status = "Sign out failed: " + err.Error()
		return nil
	}
	m.user = nil
	m.screen = screenAuth
	m.auth = newAuthForm()
	m.auth.focusFirst()
	m.input.Blur()
	return nil
}

// sendMessage appends the typed text as a user message and starts the
// streamed reply.
func (m *Model) sendMessage() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.typing {
		return nil
	}

	// History for the model excludes the turn being sent.
	history := m.activeMessages()

	if _, err := m.store.Append(convo.Message{Sender: convo.SenderUser, Text: text}); err != nil {
		m.status = "Save failed: " + err.Error()
		return nil
	}
	m.input.Reset()
	m.typing = true
	m.streamText = ""
	m.markActivity()
	m.refreshViewport(true)

	return m.startStreamCmd(history, text)
}

// finishReply lands a completed reply in the conversation.
func (m *Model) finishReply(text string, voice bool) tea.Cmd {
	m.typing = false
	m.streamText = ""
	m.streamCh = nil
	m.appendMira(text, voice)
	return nil
}

// appendMira stores one of Mira's messages and repaints.
func (m *Model) appendMira(text string, voice bool) {
	if text == "" {
		return
	}
	msg := convo.Message{Sender: convo.SenderMira, Text: text}
	if voice {
		msg.TTSText = text
		msg.TTSVoice = true
		msg.VoiceDuration = speechDurationSeconds(text)
	}
	if _, err := m.store.Append(msg); err != nil {
		m.status = "Save failed: " + err.Error()
		return
	}
	m.refreshViewport(true)
}

// newConversation opens a fresh thread and has Mira greet it.
func (m *Model) newConversation() tea.Cmd {
	if _, err := m.store.CreateNew(); err != nil {
		m.status = "Could not create conversation: " + err.Error()
		return nil
	}
	m.sidebarIndex = 0
	m.streamText = ""
	m.typing = false
	m.refreshViewport(true)
	return tea.Batch(m.scriptedReplyCmd(mira.NewConversationPrompt, false), m.spin.Tick)
}

// deleteConversation asks once, then deletes the active thread.
func (m *Model) deleteConversation() tea.Cmd {
	if !m.confirmDelete {
		m.confirmDelete = true
		m.status = "Press Ctrl+D again to delete this conversation"
		return nil
	}
	m.confirmDelete = false
	m.status = ""
	if err := m.store.Delete(m.store.ActiveID()); err != nil {
		m.status = "Delete failed: " + err.Error()
		return nil
	}
	m.sidebarIndex = m.activeListIndex()
	m.refreshViewport(true)
	return nil
}

// switchConversation moves the sidebar selection and activates it.
func (m *Model) switchConversation(delta int) tea.Cmd {
	list := m.store.List()
	if len(list) == 0 {
		return nil
	}
	idx := m.activeListIndex() + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(list) {
		idx = len(list) - 1
	}
	m.sidebarIndex = idx
	if err := m.store.SwitchTo(list[idx].ID); err != nil {
		m.status = "Switch failed: " + err.Error()
		return nil
	}
	m.streamText = ""
	m.typing = false
	m.refreshViewport(true)
	return nil
}

// activeListIndex locates the active conversation in the sidebar order.
func (m *Model) activeListIndex() int {
	active := m.store.ActiveID()
	for i, conv := range m.store.List() {
		if conv.ID == active {
			return i
		}
	}
	return 0
}

// toggleTheme flips dark/light and persists the choice. The stored value is
// "true" for dark, matching the legacy single-flag format.
func (m *Model) toggleTheme() {
	next := "true"
	if m.theme.Mode == styles.ModeDark {
		next = "false"
	}
	if err := m.store.SetThemeOverride(next); err != nil {
		m.status = "Could not save theme: " + err.Error()
		return
	}
	m.themeOverride = next
	m.hasThemeOverride = true
	m.theme = m.themeForSize(m.resolveMode())
	m.rebuildRenderer()
	m.refreshViewport(false)
}

// =============================================================================
// MOOD PICKER
// =============================================================================

func (m *Model) openMoodPicker() {
	m.moodPickerOpen = true
	m.moodIndex = 0
	for i, option := range moodOptions {
		if option == m.mood {
			m.moodIndex = i
			break
		}
	}
}

func (m *Model) handleMoodKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "ctrl+o":
		m.moodPickerOpen = false
		return m, nil
	case "up", "k":
		if m.moodIndex > 0 {
			m.moodIndex--
		}
		return m, nil
	case "down", "j":
		if m.moodIndex < len(moodOptions)-1 {
			m.moodIndex++
		}
		return m, nil
	case "enter":
		m.moodPickerOpen = false
		return m, m.selectMood(moodOptions[m.moodIndex])
	}
	return m, nil
}

// selectMood persists the mood and has Mira acknowledge it.
func (m *Model) selectMood(mood string) tea.Cmd {
	if err := m.store.SetMood(mood); err != nil {
		m.status = "Could not save mood: " + err.Error()
		return nil
	}
	m.mood = mood
	return tea.Batch(m.scriptedReplyCmd(mira.MoodPrompt(mood), false), m.spin.Tick)
}

// =============================================================================
// LIVE CALL
// =============================================================================

// toggleCall starts a call, or hangs up the one in progress. A call and a
// voice-note recording contend for the microphone, so starting one stops
// the other.
func (m *Model) toggleCall() tea.Cmd {
	if m.call != nil {
		m.call.Hangup()
		return nil
	}
	if m.recording {
		if m.devices.Recorder != nil {
			m.devices.Recorder.Cancel()
		}
		m.recording = false
		m.status = ""
	}
	cmd, ctrl := m.startCallCmd()
	if ctrl == nil {
		return cmd
	}
	m.call = ctrl
	m.status = ""
	if _, err := m.store.Append(convo.Message{Sender: convo.SenderUser, Text: "📞 Started a live call with Mira"}); err != nil {
		m.status = "Save failed: " + err.Error()
	}
	m.refreshViewport(true)
	return tea.Batch(cmd, m.spin.Tick)
}

// handleCallEvent records call traffic in the conversation and keeps
// draining the event stream.
func (m *Model) handleCallEvent(msg callEventMsg) tea.Cmd {
	if msg.closed {
		m.call = nil
		m.status = ""
		m.refreshViewport(true)
		return nil
	}

	event := msg.event
	switch event.Type {
	case call.EventInterim:
		m.status = event.Text

	case call.EventUtterance:
		m.status = ""
		if _, err := m.store.Append(convo.Message{Sender: convo.SenderUser, Text: event.Text}); err != nil {
			m.status = "Save failed: " + err.Error()
		}
		m.refreshViewport(true)

	case call.EventReply:
		m.appendMira(event.Text, true)

	case call.EventEnded:
		m.status = ""
		ended := fmt.Sprintf("Call ended · %s", mira.FormatCallDuration(event.Duration))
		if _, err := m.store.Append(convo.Message{Sender: convo.SenderMira, Text: ended}); err != nil {
			m.status = "Save failed: " + err.Error()
		}
		m.refreshViewport(true)
	}

	return waitForCallEvent(m.call)
}

// =============================================================================
// VOICE NOTES & ATTACHMENTS
// =============================================================================

// toggleRecording starts capturing a voice note, or stops the capture in
// progress and sends the clip. Starting a recording hangs up a live call
// first since both need the microphone.
func (m *Model) toggleRecording() tea.Cmd {
	rec := m.devices.Recorder
	if rec == nil {
		m.appendMira(call.ErrUnsupported.Error(), false)
		return nil
	}

	if m.recording {
		m.recording = false
		m.status = ""
		payload, secs, err := rec.Stop()
		if err != nil {
			m.status = "Recording failed: " + err.Error()
			return nil
		}
		msg := convo.Message{
			Sender:        convo.SenderUser,
			Text:          "🎤 Voice message",
			Voice:         payload,
			VoiceDuration: secs,
		}
		if _, err := m.store.Append(msg); err != nil {
			m.status = "Save failed: " + err.Error()
			return nil
		}
		m.markActivity()
		m.refreshViewport(true)
		return tea.Batch(m.scriptedReplyCmd(mira.VoiceNotePrompt, true), m.spin.Tick)
	}

	if m.call != nil {
		m.call.Hangup()
	}
	if err := rec.Start(); err != nil {
		m.appendMira(call.ErrPermission.Error(), false)
		return nil
	}
	m.recording = true
	m.status = "Recording... press Ctrl+R to send"
	return nil
}

// attachFile reads the file path typed in the input box and attaches it to
// the conversation as an image or video.
func (m *Model) attachFile() tea.Cmd {
	path := strings.TrimSpace(m.input.Value())
	m.attachMode = false
	m.input.Reset()
	m.status = ""
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		m.status = "Could not attach: " + err.Error()
		return nil
	}

	kind := convo.AttachmentImage
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".webm", ".mkv":
		kind = convo.AttachmentVideo
	}

	msg := convo.Message{
		Sender: convo.SenderUser,
		Attachments: []convo.Attachment{{
			Kind:    kind,
			Payload: base64.StdEncoding.EncodeToString(data),
		}},
	}
	if _, err := m.store.Append(msg); err != nil {
		m.status = "Save failed: " + err.Error()
		return nil
	}
	m.markActivity()
	m.refreshViewport(true)
	return tea.Batch(m.scriptedReplyCmd(mira.AttachmentPrompt, false), m.spin.Tick)
}

// togglePlayback speaks the most recent voice bubble, or stops the one
// already playing. Starting playback cancels any synthesis in flight.
func (m *Model) togglePlayback() tea.Cmd {
	synth := m.devices.Synthesizer
	if synth == nil {
		return nil
	}

	if m.playingID != "" {
		synth.Cancel()
		m.playingID = ""
		m.refreshViewport(false)
		return nil
	}

	msgs := m.activeMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].TTSVoice || msgs[i].TTSText == "" {
			continue
		}
		synth.Cancel()
		m.playingID = msgs[i].ID
		id, text := msgs[i].ID, msgs[i].TTSText
		m.refreshViewport(false)
		return func() tea.Msg {
			_ = synth.Speak(context.Background(), text)
			return playbackDoneMsg{id: id}
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// speechDurationSeconds estimates how long a synthesized reply takes to
// speak, at roughly 2.5 words per second with a two second floor.
func speechDurationSeconds(text string) float64 {
	words := len(strings.Fields(text))
	secs := math.Ceil(float64(words) / 2.5)
	if secs < 2 {
		secs = 2
	}
	return secs
}
