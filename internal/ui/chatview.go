// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/mira"
	"github.com/cosmoscoderrs/mira-tui/internal/ui/styles"
)

const (
	sidebarWidth = 30
	// minSplitWidth is the narrowest terminal that still shows the sidebar.
	minSplitWidth = 80
)

// sidebarShown reports whether the sidebar fits and is toggled on.
func (m *Model) sidebarShown() bool {
	return m.sidebarVisible && m.width >= minSplitWidth
}

// chatWidth is the width of the message column.
func (m *Model) chatWidth() int {
	w := m.width
	if m.sidebarShown() {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// chatHeight is the viewport height: total minus header, input, status bar,
// and the call bar when one is up.
func (m *Model) chatHeight() int {
	h := m.height - 1 - 4 - 1
	if m.call != nil {
		h -= 3
	}
	if h < 3 {
		h = 3
	}
	return h
}

// rebuildRenderer recreates the markdown renderer for the current width and
// theme.
func (m *Model) rebuildRenderer() {
	style := "dark"
	if m.theme.Mode == styles.ModeLight {
		style = "light"
	}
	if m.theme.ColorProfile == termenv.Ascii {
		style = "notty"
	}
	wrap := m.chatWidth() - 6
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = renderer
}

// refreshViewport re-renders the active conversation into the viewport.
func (m *Model) refreshViewport(gotoBottom bool) {
	m.vp.Width = m.chatWidth()
	m.vp.Height = m.chatHeight()
	m.vp.SetContent(m.renderMessages())
	if gotoBottom {
		m.vp.GotoBottom()
	}
}

// renderMessages builds the full chat transcript plus any in-flight reply.
func (m *Model) renderMessages() string {
	conv := m.store.Active()

	var b strings.Builder
	if conv != nil {
		for i := range conv.Messages {
			b.WriteString(m.renderMessage(&conv.Messages[i]))
			b.WriteString("\n")
		}
	}

	if m.typing {
		if m.streamText != "" {
			b.WriteString(m.renderBubble(convo.SenderMira, m.renderMarkdown(m.streamText), ""))
		} else {
			b.WriteString(m.theme.TypingDots.Render(m.spin.View() + " Mira is typing..."))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderMessage renders one stored message: a voice bubble, an attachment
// note, a call marker, or a plain text bubble.
func (m *Model) renderMessage(msg *convo.Message) string {
	if isCallMarker(msg.Text) {
		return m.theme.SystemNote.Render(msg.Text)
	}

	if msg.Voice != "" || msg.TTSVoice {
		return m.renderVoiceBubble(msg)
	}

	body := msg.Text
	if msg.Sender == convo.SenderMira {
		body = m.renderMarkdown(body)
	}
	if len(msg.Attachments) > 0 {
		body = strings.TrimRight(body+"\n"+attachmentNote(msg.Attachments), "\n")
	}
	return m.renderBubble(msg.Sender, body, msg.Time)
}

// renderVoiceBubble draws a waveform bubble for voice notes and synthesized
// replies. The wave animates while this reply is being spoken, either by the
// call machine or by Ctrl+V playback.
func (m *Model) renderVoiceBubble(msg *convo.Message) string {
	active := -1
	speaking := msg.TTSVoice && m.call != nil && m.call.Speaking()
	if speaking || (m.playingID != "" && m.playingID == msg.ID) {
		active = m.frame % VoiceWaveformBars
	}

	wave := RenderVoiceWaveform(m.theme, msg.ID, active)
	caption := "Voice note"
	if msg.TTSVoice {
		caption = "Voice reply"
	}
	duration := msg.VoiceDuration
	if duration > 0 {
		caption += " · " + mira.FormatCallDuration(time.Duration(duration*float64(time.Second)))
	}

	body := wave + "\n" + m.theme.VoiceCaption.Render(caption)
	return m.renderBubble(msg.Sender, body, msg.Time)
}

// renderBubble wraps rendered body text in the sender's bubble style with a
// label line.
func (m *Model) renderBubble(sender convo.Sender, body string, timestamp string) string {
	label := "You"
	bubble := m.theme.UserBubble
	if sender == convo.SenderMira {
		label = "Mira"
		bubble = m.theme.MiraBubble
	}

	header := m.theme.SenderLabel.Render(label)
	if timestamp != "" {
		header += " " + m.theme.MessageTime.Render(timestamp)
	}

	content := bubble.MaxWidth(m.chatWidth() - 2).Render(strings.TrimRight(body, "\n"))
	block := header + "\n" + content

	if sender == convo.SenderUser {
		return lipgloss.PlaceHorizontal(m.chatWidth(), lipgloss.Right, block)
	}
	return block
}

// renderMarkdown renders Mira's text through glamour, falling back to the
// raw text if rendering fails.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// attachmentNote summarizes a message's media.
func attachmentNote(attachments []convo.Attachment) string {
	parts := make([]string, 0, len(attachments))
	for _, a := range attachments {
		switch a.Kind {
		case convo.AttachmentVideo:
			parts = append(parts, "🎬 video attachment")
		default:
			parts = append(parts, "🖼 image attachment")
		}
	}
	return strings.Join(parts, ", ")
}

// isCallMarker reports whether a user message is call bookkeeping rather
// than something they typed.
func isCallMarker(text string) bool {
	return strings.HasPrefix(text, "📞") || strings.HasPrefix(text, "Call ended")
}
