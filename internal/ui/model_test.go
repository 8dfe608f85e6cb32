// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/cosmoscoderrs/mira-tui/internal/account"
	"github.com/cosmoscoderrs/mira-tui/internal/config"
	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/kvstore"
	"github.com/cosmoscoderrs/mira-tui/internal/mira"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeClient is a scripted Inference for UI tests. Every prompt is recorded;
// replies come from the reply field. The mutex matters once a live call is
// underway: the call machine requests replies from its own goroutine.
type fakeClient struct {
	mu       sync.Mutex
	username string
	prompts  []string
	reply    string
}

func (f *fakeClient) SetUsername(name string) { f.username = name }

func (f *fakeClient) Respond(_ context.Context, _ []convo.Message, prompt string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply
}

func (f *fakeClient) RespondStreaming(_ context.Context, _ []convo.Message, prompt string, onChunk func(string)) string {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	reply := f.reply
	f.mu.Unlock()
	if len(reply) > 1 {
		onChunk(reply[:len(reply)/2])
	}
	onChunk(reply)
	return reply
}

func (f *fakeClient) sawPrompt(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prompts {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}

func (f *fakeClient) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeRecorder scripts the voice-note capture device.
type fakeRecorder struct {
	startErr error
	started  int
	stopped  int
	canceled int
	payload  string
	seconds  float64
}

func (f *fakeRecorder) Start() error {
	f.started++
	return f.startErr
}

func (f *fakeRecorder) Stop() (string, float64, error) {
	f.stopped++
	return f.payload, f.seconds, nil
}

func (f *fakeRecorder) Cancel() { f.canceled++ }

// fakeSynth records what was spoken and how often playback was canceled.
type fakeSynth struct {
	mu       sync.Mutex
	spoken   []string
	canceled int
}

func (f *fakeSynth) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSynth) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled++
}

func (f *fakeSynth) cancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}

// blockingRecognizer parks Listen until the call is torn down, so call tests
// control exactly what the machine hears.
type blockingRecognizer struct{}

func (blockingRecognizer) Listen(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingRecognizer) Abort() {}

type fakeMic struct{}

func (fakeMic) Open() error    { return nil }
func (fakeMic) Level() float64 { return 0.5 }
func (fakeMic) Close() error   { return nil }

// =============================================================================
// HARNESS
// =============================================================================

type testEnv struct {
	model  *Model
	client *fakeClient
	store  *convo.Store
	users  *account.Manager
}

// newTestEnv builds a model over an in-memory store. When signedIn, the
// account "Ada" is registered and the session restored before New runs.
func newTestEnv(t *testing.T, signedIn bool) *testEnv {
	t.Helper()

	kv := kvstore.NewMemStore()
	users := account.NewManager(kv)
	if signedIn {
		if _, err := users.Register("Ada", "ada@example.com", "secret1"); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	store, err := convo.NewStore(kv)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	client := &fakeClient{reply: "Hey Ada!"}
	m := New(config.Default(), store, users, client, CallDevices{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 32})

	return &testEnv{model: m, client: client, store: store, users: users}
}

// pump executes a command tree, feeding resulting messages back into the
// model until the queue drains. Clock ticks are dropped so the loop
// terminates.
func (e *testEnv) pump(t *testing.T, cmd tea.Cmd) {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("command loop did not settle")
		}

		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := next()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if _, ok := msg.(tickMsg); ok {
			continue
		}

		_, cmd := e.model.Update(msg)
		queue = append(queue, cmd)
	}
}

func (e *testEnv) key(t *testing.T, key string) {
	t.Helper()
	var msg tea.KeyMsg
	if len([]rune(key)) == 1 {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	} else {
		switch key {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+t":
			msg = tea.KeyMsg{Type: tea.KeyCtrlT}
		case "ctrl+n":
			msg = tea.KeyMsg{Type: tea.KeyCtrlN}
		case "ctrl+d":
			msg = tea.KeyMsg{Type: tea.KeyCtrlD}
		case "ctrl+o":
			msg = tea.KeyMsg{Type: tea.KeyCtrlO}
		case "ctrl+x":
			msg = tea.KeyMsg{Type: tea.KeyCtrlX}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "ctrl+r":
			msg = tea.KeyMsg{Type: tea.KeyCtrlR}
		case "ctrl+a":
			msg = tea.KeyMsg{Type: tea.KeyCtrlA}
		case "ctrl+v":
			msg = tea.KeyMsg{Type: tea.KeyCtrlV}
		case "alt+e":
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e"), Alt: true}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			t.Fatalf("unmapped key %q", key)
		}
	}
	_, cmd := e.model.Update(msg)
	e.pump(t, cmd)
}

func activeMessages(t *testing.T, store *convo.Store) []convo.Message {
	t.Helper()
	conv := store.Active()
	if conv == nil {
		t.Fatal("no active conversation")
	}
	return conv.Messages
}

// =============================================================================
// AUTH FLOW
// =============================================================================

func TestSignUpCreatesAccountAndWelcomes(t *testing.T) {
	env := newTestEnv(t, false)
	m := env.model

	if m.screen != screenAuth {
		t.Fatalf("screen = %d, want auth", m.screen)
	}

	env.key(t, "ctrl+t") // switch to sign-up
	m.auth.fields[fieldName].SetValue("Ada")
	m.auth.fields[fieldEmail].SetValue("ada@example.com")
	m.auth.fields[fieldPassword].SetValue("secret1")
	env.key(t, "enter")

	if m.screen != screenChat {
		t.Fatalf("screen = %d, want chat (err %q)", m.screen, m.auth.errText)
	}
	user, err := env.users.Current()
	if err != nil || user == nil || user.Name != "Ada" {
		t.Fatalf("Current() = %v, %v, want Ada", user, err)
	}
	if env.client.username != "Ada" {
		t.Errorf("client username = %q, want Ada", env.client.username)
	}
	if !env.client.sawPrompt("Ada") {
		t.Errorf("welcome prompt not sent; prompts = %q", env.client.prompts)
	}

	msgs := activeMessages(t, env.store)
	if len(msgs) != 1 || msgs[0].Sender != convo.SenderMira {
		t.Fatalf("messages = %+v, want one welcome from mira", msgs)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t, true)
	env.model.screen = screenAuth
	env.model.auth.fields[fieldEmail].SetValue("ada@example.com")
	env.model.auth.fields[fieldPassword].SetValue("wrong-pass")
	env.key(t, "enter")

	if env.model.screen != screenAuth {
		t.Fatal("wrong password should stay on auth screen")
	}
	if env.model.auth.errText == "" {
		t.Error("expected an error message")
	}
	if got := env.model.auth.fields[fieldPassword].Value(); got != "" {
		t.Errorf("password field = %q, want cleared", got)
	}
}

// =============================================================================
// CHAT FLOW
// =============================================================================

func TestSendMessageStreamsReply(t *testing.T) {
	env := newTestEnv(t, true)
	m := env.model

	if m.screen != screenChat {
		t.Fatal("expected restored session to land on chat")
	}

	m.input.SetValue("hi")
	env.key(t, "enter")

	msgs := activeMessages(t, env.store)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want user turn plus reply: %+v", len(msgs), msgs)
	}
	if msgs[0].Sender != convo.SenderUser || msgs[0].Text != "hi" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Sender != convo.SenderMira || msgs[1].Text != "Hey Ada!" {
		t.Errorf("second message = %+v", msgs[1])
	}
	if m.typing {
		t.Error("typing should clear after the reply lands")
	}
	if got := env.store.Active().Preview(); got != "hi" {
		t.Errorf("Preview() = %q, want %q", got, "hi")
	}
	if got := m.input.Value(); got != "" {
		t.Errorf("input = %q, want cleared", got)
	}
}

func TestEmptyInputDoesNotSend(t *testing.T) {
	env := newTestEnv(t, true)
	env.model.input.SetValue("   ")
	env.key(t, "enter")

	if got := len(activeMessages(t, env.store)); got != 0 {
		t.Fatalf("got %d messages, want none", got)
	}
}

func TestNewConversationGreets(t *testing.T) {
	env := newTestEnv(t, true)
	env.model.input.SetValue("first thread")
	env.key(t, "enter")

	env.key(t, "ctrl+n")

	if got := len(env.store.List()); got != 2 {
		t.Fatalf("got %d conversations, want 2", got)
	}
	if !env.client.sawPrompt(mira.NewConversationPrompt) {
		t.Errorf("greeting prompt not sent; prompts = %q", env.client.prompts)
	}
	msgs := activeMessages(t, env.store)
	if len(msgs) != 1 || msgs[0].Sender != convo.SenderMira {
		t.Fatalf("new thread messages = %+v, want one greeting", msgs)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t, true)
	env.model.input.SetValue("keep me?")
	env.key(t, "enter")
	doomed := env.store.ActiveID()

	env.key(t, "ctrl+d")
	if env.store.ActiveID() != doomed {
		t.Fatal("first Ctrl+D must not delete")
	}
	if !env.model.confirmDelete {
		t.Fatal("first Ctrl+D should arm the confirmation")
	}

	env.key(t, "ctrl+d")
	for _, conv := range env.store.List() {
		if conv.ID == doomed {
			t.Fatal("conversation survived the confirmed delete")
		}
	}
}

func TestMoodSelectionPersistsAndAcknowledges(t *testing.T) {
	env := newTestEnv(t, true)

	env.key(t, "ctrl+o")
	if !env.model.moodPickerOpen {
		t.Fatal("picker should open")
	}
	env.key(t, "down")
	env.key(t, "enter")

	want := moodOptions[1]
	if env.model.mood != want {
		t.Errorf("mood = %q, want %q", env.model.mood, want)
	}
	mood, ok, err := env.store.Mood()
	if err != nil || !ok || mood != want {
		t.Errorf("stored mood = %q, %v, %v, want %q", mood, ok, err, want)
	}
	if !env.client.sawPrompt(want) {
		t.Errorf("mood prompt not sent; prompts = %q", env.client.prompts)
	}
}

func TestThemeTogglePersistsOverride(t *testing.T) {
	env := newTestEnv(t, true)
	before := env.model.theme.Mode

	env.key(t, "ctrl+t")

	if env.model.theme.Mode == before {
		t.Error("toggle should flip the mode")
	}
	override, ok, err := env.store.ThemeOverride()
	if err != nil || !ok {
		t.Fatalf("ThemeOverride() = %q, %v, %v", override, ok, err)
	}
	if override != "true" && override != "false" {
		t.Errorf("override = %q, want the legacy true/false flag", override)
	}
}

func TestClearDataWipesAndAcknowledges(t *testing.T) {
	env := newTestEnv(t, true)
	env.model.input.SetValue("secret thoughts")
	env.key(t, "enter")
	env.key(t, "ctrl+o")
	env.key(t, "enter") // pick a mood so there is one to wipe

	env.key(t, "ctrl+x")
	if got := len(activeMessages(t, env.store)); got < 2 {
		t.Fatal("first Ctrl+X must not clear")
	}

	env.key(t, "ctrl+x")
	if _, ok, _ := env.store.Mood(); ok {
		t.Error("mood should be wiped")
	}
	if got := len(env.store.List()); got != 1 {
		t.Fatalf("got %d conversations, want one fresh thread", got)
	}
	if !env.client.sawPrompt(mira.DataClearedPrompt) {
		t.Errorf("fresh-start prompt not sent; prompts = %q", env.client.prompts)
	}

	// Session survives the wipe.
	if user, err := env.users.Current(); err != nil || user == nil {
		t.Errorf("Current() = %v, %v, want Ada still signed in", user, err)
	}
}

func TestSignOutReturnsToAuth(t *testing.T) {
	env := newTestEnv(t, true)
	env.key(t, "ctrl+s")

	if env.model.screen != screenAuth {
		t.Fatal("sign out should return to the auth screen")
	}
	if user, _ := env.users.Current(); user != nil {
		t.Errorf("session still present: %+v", user)
	}
}

func TestCheckinFiresAfterQuietStretch(t *testing.T) {
	env := newTestEnv(t, true)
	m := env.model

	// A user message with no reply yet, as when the reply failed silently.
	if _, err := env.store.Append(convo.Message{Sender: convo.SenderUser, Text: "long day today"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Rewind the activity clock past the configured threshold.
	m.lastActivity = time.Now().Add(-5 * time.Hour)
	_, cmd := m.Update(tickMsg{at: time.Now()})
	env.pump(t, cmd)

	if !env.client.sawPrompt(mira.CheckinPrompt) {
		t.Fatalf("check-in prompt not sent; prompts = %q", env.client.prompts)
	}
	if !m.checkinSent {
		t.Error("checkinSent should latch")
	}

	// A second tick must not re-fire.
	sent := len(env.client.prompts)
	_, cmd = m.Update(tickMsg{at: time.Now()})
	env.pump(t, cmd)
	if len(env.client.prompts) != sent {
		t.Error("check-in fired twice")
	}
}

func TestCallWithoutDevicesFailsGracefully(t *testing.T) {
	env := newTestEnv(t, true)

	_, cmd := env.model.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	env.pump(t, cmd)

	if env.model.call != nil {
		t.Fatal("call should not start without devices")
	}
	msgs := activeMessages(t, env.store)
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "doesn't support live voice calls") {
		t.Fatalf("messages = %+v, want the unsupported notice", msgs)
	}
}

// =============================================================================
// VOICE NOTES & ATTACHMENTS
// =============================================================================

func TestVoiceNoteRecordAndSend(t *testing.T) {
	env := newTestEnv(t, true)
	rec := &fakeRecorder{payload: "UklGRg==", seconds: 3}
	env.model.devices.Recorder = rec

	env.key(t, "ctrl+r")
	if !env.model.recording || rec.started != 1 {
		t.Fatalf("recording = %v, started = %d, want an armed recorder", env.model.recording, rec.started)
	}
	if env.model.status == "" {
		t.Error("recording should announce itself in the status bar")
	}

	env.key(t, "ctrl+r")
	if env.model.recording || rec.stopped != 1 {
		t.Fatalf("recording = %v, stopped = %d, want the clip sent", env.model.recording, rec.stopped)
	}

	msgs := activeMessages(t, env.store)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want voice note plus reply: %+v", len(msgs), msgs)
	}
	note := msgs[0]
	if note.Sender != convo.SenderUser || note.Text != "🎤 Voice message" {
		t.Errorf("note = %+v", note)
	}
	if note.Voice != "UklGRg==" || note.VoiceDuration != 3 {
		t.Errorf("voice payload = %q, duration = %v", note.Voice, note.VoiceDuration)
	}
	if !env.client.sawPrompt(mira.VoiceNotePrompt) {
		t.Errorf("voice-note prompt not sent; prompts = %q", env.client.prompts)
	}
	if !msgs[1].TTSVoice {
		t.Error("the reply to a voice note should itself be a voice reply")
	}
}

func TestVoiceNoteWithoutRecorderExplains(t *testing.T) {
	env := newTestEnv(t, true)
	env.key(t, "ctrl+r")

	msgs := activeMessages(t, env.store)
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "doesn't support live voice calls") {
		t.Fatalf("messages = %+v, want the unsupported notice", msgs)
	}
}

func TestRecordingAndCallForceStopEachOther(t *testing.T) {
	env := newTestEnv(t, true)
	m := env.model
	rec := &fakeRecorder{payload: "clip", seconds: 2}
	m.devices = CallDevices{
		Recognizer:  blockingRecognizer{},
		Synthesizer: &fakeSynth{},
		Microphone:  fakeMic{},
		Recorder:    rec,
	}

	// No pump here: a live call keeps its event stream open, so commands are
	// left unexecuted and state is asserted directly.
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.recording {
		t.Fatal("recording should be armed")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.recording || rec.canceled != 1 {
		t.Fatalf("recording = %v, canceled = %d, want the call to discard the clip", m.recording, rec.canceled)
	}
	if m.call == nil || !m.call.Active() {
		t.Fatal("call should be live")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.call.Active() {
		t.Error("starting a recording should hang the call up")
	}
	if !m.recording || rec.started != 2 {
		t.Errorf("recording = %v, started = %d, want capture resumed", m.recording, rec.started)
	}
}

func TestAttachFileByPath(t *testing.T) {
	env := newTestEnv(t, true)
	m := env.model

	path := filepath.Join(t.TempDir(), "sunset.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	env.key(t, "ctrl+a")
	if !m.attachMode {
		t.Fatal("Ctrl+A should enter attach mode")
	}
	m.input.SetValue(path)
	env.key(t, "enter")

	if m.attachMode {
		t.Error("attach mode should clear after sending")
	}
	msgs := activeMessages(t, env.store)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want attachment plus reply: %+v", len(msgs), msgs)
	}
	atts := msgs[0].Attachments
	if len(atts) != 1 || atts[0].Kind != convo.AttachmentImage {
		t.Fatalf("attachments = %+v, want one image", atts)
	}
	if atts[0].Payload != base64.StdEncoding.EncodeToString([]byte("png-bytes")) {
		t.Errorf("payload = %q", atts[0].Payload)
	}
	if !env.client.sawPrompt(mira.AttachmentPrompt) {
		t.Errorf("attachment prompt not sent; prompts = %q", env.client.prompts)
	}
}

func TestAttachVideoKindByExtension(t *testing.T) {
	env := newTestEnv(t, true)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("mp4-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	env.key(t, "ctrl+a")
	env.model.input.SetValue(path)
	env.key(t, "enter")

	atts := activeMessages(t, env.store)[0].Attachments
	if len(atts) != 1 || atts[0].Kind != convo.AttachmentVideo {
		t.Fatalf("attachments = %+v, want one video", atts)
	}
}

func TestAttachEscCancels(t *testing.T) {
	env := newTestEnv(t, true)
	env.key(t, "ctrl+a")
	env.model.input.SetValue("/no/such/file.png")
	env.key(t, "esc")

	if env.model.attachMode {
		t.Error("Esc should leave attach mode")
	}
	if got := len(activeMessages(t, env.store)); got != 0 {
		t.Errorf("got %d messages, want none", got)
	}
	if got := env.model.input.Value(); got != "" {
		t.Errorf("input = %q, want cleared", got)
	}
}

func TestVoicePlaybackTogglesAndCancelsPrior(t *testing.T) {
	env := newTestEnv(t, true)
	m := env.model
	synth := &fakeSynth{}
	m.devices.Synthesizer = synth

	if _, err := env.store.Append(convo.Message{
		Sender:   convo.SenderMira,
		Text:     "I'm so glad you called!",
		TTSText:  "I'm so glad you called!",
		TTSVoice: true,
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Playback runs as a command; hold it so the playing state is visible.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	if m.playingID == "" {
		t.Fatal("playback should mark the active bubble")
	}
	if synth.cancels() != 1 {
		t.Errorf("cancels = %d, want prior synthesis canceled first", synth.cancels())
	}

	done := cmd()
	synth.mu.Lock()
	spoken := append([]string(nil), synth.spoken...)
	synth.mu.Unlock()
	if len(spoken) != 1 || spoken[0] != "I'm so glad you called!" {
		t.Fatalf("spoken = %q", spoken)
	}
	m.Update(done)
	if m.playingID != "" {
		t.Error("playback completion should clear the playing bubble")
	}

	// Ctrl+V mid-playback stops it instead of starting another.
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	if m.playingID == "" {
		t.Fatal("second playback should start")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	if m.playingID != "" {
		t.Error("Ctrl+V while playing should stop playback")
	}
	if synth.cancels() != 3 {
		t.Errorf("cancels = %d, want the stop to cancel synthesis", synth.cancels())
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExportConversationWritesMarkdown(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	env := newTestEnv(t, true)
	env.model.input.SetValue("remember this day")
	env.key(t, "enter")

	env.key(t, "alt+e")

	if !strings.Contains(env.model.status, "Exported to") {
		t.Fatalf("status = %q, want the export path", env.model.status)
	}
	path := strings.TrimPrefix(env.model.status, "Exported to ")
	if filepath.Ext(path) != ".md" {
		t.Fatalf("path = %q, want a markdown file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "remember this day") {
		t.Errorf("export missing the conversation text:\n%s", data)
	}
}

func TestHiddenTracksFocus(t *testing.T) {
	env := newTestEnv(t, true)
	m := env.model

	m.Update(tea.BlurMsg{})
	if !m.IsHidden() {
		t.Error("blur should hide")
	}
	_, cmd := m.Update(tea.FocusMsg{})
	if m.IsHidden() {
		t.Error("focus should unhide")
	}
	env.pump(t, cmd)
}

// =============================================================================
// STREAMING BUFFER
// =============================================================================

func TestStreamingBufferThrottles(t *testing.T) {
	// 1 FPS keeps the frame budget comfortably larger than test runtime.
	buf := NewStreamingBuffer(1)

	buf.Set("a")
	if text, ok := buf.Take(); !ok || text != "a" {
		t.Fatalf("first Take = %q, %v", text, ok)
	}

	// Inside the frame budget: text is held back.
	buf.Set("ab")
	if _, ok := buf.Take(); ok {
		t.Fatal("Take inside the frame budget should hold")
	}

	// Drain ignores the budget.
	if text, ok := buf.Drain(); !ok || text != "ab" {
		t.Fatalf("Drain = %q, %v", text, ok)
	}

	// Nothing new, nothing to take.
	if _, ok := buf.Drain(); ok {
		t.Fatal("Drain with no new text should report clean")
	}
}

func TestStreamingBufferReset(t *testing.T) {
	buf := NewStreamingBuffer(30)
	buf.Set("stale")
	buf.Reset()
	if text, ok := buf.Drain(); ok || text != "" {
		t.Fatalf("after Reset: %q, %v", text, ok)
	}
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

func TestMarkdownRendererGoesPlainWithoutColor(t *testing.T) {
	env := newTestEnv(t, true)
	m := env.model
	m.theme.ColorProfile = termenv.Ascii
	m.rebuildRenderer()

	out := m.renderMarkdown("**really** important")
	if strings.Contains(out, "\x1b[") {
		t.Errorf("ascii profile should render without escape codes: %q", out)
	}
	if !strings.Contains(out, "really") {
		t.Errorf("rendered text lost content: %q", out)
	}
}

// =============================================================================
// WAVEFORMS
// =============================================================================

func TestWaveformHeightsDeterministic(t *testing.T) {
	a := waveformHeights("msg-123", VoiceWaveformBars)
	b := waveformHeights("msg-123", VoiceWaveformBars)
	if len(a) != VoiceWaveformBars {
		t.Fatalf("len = %d, want %d", len(a), VoiceWaveformBars)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("heights diverge at %d: %d vs %d", i, a[i], b[i])
		}
	}

	c := waveformHeights("msg-456", VoiceWaveformBars)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical waveforms")
	}
}

func TestVoiceWaveformWidth(t *testing.T) {
	env := newTestEnv(t, true)
	wave := RenderVoiceWaveform(env.model.theme, "seed", -1)
	if got := len([]rune(stripANSI(wave))); got != VoiceWaveformBars {
		t.Errorf("bar count = %d, want %d", got, VoiceWaveformBars)
	}
}

// stripANSI removes escape sequences so glyphs can be counted.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// SPEECH DURATION
// =============================================================================

func TestSpeechDurationSeconds(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"", 2},
		{"hi", 2},
		{"one two three four five", 2},
		{strings.Repeat("word ", 10), 4},
		{strings.Repeat("word ", 25), 10},
	}
	for _, tc := range cases {
		if got := speechDurationSeconds(tc.text); got != tc.want {
			t.Errorf("speechDurationSeconds(%d words) = %v, want %v", len(strings.Fields(tc.text)), got, tc.want)
		}
	}
}
