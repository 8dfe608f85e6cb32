// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cosmoscoderrs/mira-tui/internal/account"
	"github.com/cosmoscoderrs/mira-tui/internal/call"
	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/export"
	"github.com/cosmoscoderrs/mira-tui/internal/mira"
)

// tickInterval drives timers and animations.
const tickInterval = 250 * time.Millisecond

// tickCmd schedules the next clock tick.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg{at: t}
	})
}

// =============================================================================
// REPLY COMMANDS
// =============================================================================

// startStreamCmd kicks off a streaming reply. history is the conversation
// before the new turn; prompt is the user's text. Partial text lands in the
// buffer; the channel carries throttled repaints and the final text.
func (m *Model) startStreamCmd(history []convo.Message, prompt string) tea.Cmd {
	ch := make(chan tea.Msg, 8)
	m.streamCh = ch
	m.buffer.Reset()
	buffer := m.buffer

	go func() {
		final := m.client.RespondStreaming(context.Background(), history, prompt, func(full string) {
			buffer.Set(full)
			// Non-blocking nudge; the buffer holds the latest text
			select {
			case ch <- streamPartialMsg{}:
			default:
			}
		})
		ch <- streamDoneMsg{text: final}
		close(ch)
	}()

	return tea.Batch(waitForStream(ch), m.spin.Tick)
}

// scriptedReplyCmd requests a non-streamed reply to a scripted prompt. The
// prompt never enters the conversation; only the reply does.
func (m *Model) scriptedReplyCmd(prompt string, voice bool) tea.Cmd {
	history := m.activeMessages()
	client := m.client
	return func() tea.Msg {
		text := client.Respond(context.Background(), history, prompt)
		return replyMsg{text: text, voice: voice}
	}
}

// waitForStream relays the next stream event into the program loop.
func waitForStream(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// welcomePromptFor builds the first-run welcome prompt.
func welcomePromptFor(user *account.Account) string {
	name := "friend"
	if user != nil {
		name = user.Name
	}
	return mira.WelcomePrompt(name)
}

// =============================================================================
// STORE COMMANDS
// =============================================================================

// resyncCmd re-reads persisted conversations, adopting external changes.
func (m *Model) resyncCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		changed, err := store.Resync()
		return resyncMsg{changed: changed, err: err}
	}
}

// exportCmd writes the full-store backup to the default directory.
func (m *Model) exportCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		path, err := export.WriteStore(export.DefaultDir(), store)
		return exportedMsg{path: path, err: err}
	}
}

// exportConversationCmd writes just the active conversation as Markdown.
func (m *Model) exportConversationCmd() tea.Cmd {
	conv := m.store.Active()
	return func() tea.Msg {
		path, err := export.ExportToFile(conv, export.NewMarkdownExporter(nil), nil)
		return exportedMsg{path: path, err: err}
	}
}

// =============================================================================
// CALL COMMANDS
// =============================================================================

// startCallCmd builds and starts a live-call controller. Start failures
// surface as chat text, not errors.
func (m *Model) startCallCmd() (tea.Cmd, *call.Controller) {
	ctrl := call.NewController(
		callResponder{m.client},
		m.devices.Recognizer,
		m.devices.Synthesizer,
		m.devices.Microphone,
	)
	ctrl.History = m.activeMessages

	if err := ctrl.Start(context.Background()); err != nil {
		return func() tea.Msg {
			return callFailedMsg{text: err.Error()}
		}, nil
	}
	return waitForCallEvent(ctrl), ctrl
}

// waitForCallEvent relays the next call event into the program loop.
func waitForCallEvent(ctrl *call.Controller) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ctrl.Events()
		if !ok {
			return callEventMsg{closed: true}
		}
		return callEventMsg{event: event}
	}
}

// callResponder adapts the UI's Inference to the call machine's Responder.
type callResponder struct {
	client Inference
}

func (r callResponder) Respond(ctx context.Context, history []convo.Message, prompt string) string {
	return r.client.Respond(ctx, history, prompt)
}
