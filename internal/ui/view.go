// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cosmoscoderrs/mira-tui/internal/mira"
)

// View renders the active screen.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.screen == screenAuth {
		return m.viewAuth()
	}
	return m.viewChat()
}

// =============================================================================
// AUTH SCREEN
// =============================================================================

func (m *Model) viewAuth() string {
	var b strings.Builder
	b.WriteString(m.theme.AuthTitle.Render("Mira"))
	b.WriteString("\n")
	if m.auth.mode == authSignUp {
		b.WriteString(m.theme.AuthSubtitle.Render("Create your account"))
	} else {
		b.WriteString(m.theme.AuthSubtitle.Render("Welcome back"))
	}
	b.WriteString("\n\n")

	for _, idx := range m.auth.visibleFields() {
		b.WriteString(m.auth.fields[idx].View())
		b.WriteString("\n")
	}

	if m.auth.errText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.AuthError.Render(m.auth.errText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.auth.mode == authSignUp {
		b.WriteString(m.theme.AuthSwitch.Render("Enter to sign up · Ctrl+T to sign in instead"))
	} else {
		b.WriteString(m.theme.AuthSwitch.Render("Enter to sign in · Ctrl+T to create an account"))
	}

	box := m.theme.AuthBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// CHAT SCREEN
// =============================================================================

func (m *Model) viewChat() string {
	header := m.renderHeader()

	chat := m.vp.View()
	if m.moodPickerOpen {
		chat = lipgloss.Place(m.chatWidth(), m.chatHeight(), lipgloss.Center, lipgloss.Center, m.renderMoodPicker())
	}

	column := []string{chat}
	if m.call != nil {
		column = append(column, m.renderCallBar())
	}
	column = append(column, m.renderInput())
	main := lipgloss.JoinVertical(lipgloss.Left, column...)

	if m.sidebarShown() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, main, m.renderStatusBar())
}

func (m *Model) renderHeader() string {
	title := "Mira 💗"
	if m.user != nil {
		title = fmt.Sprintf("Mira 💗 · %s", m.user.Name)
	}
	if m.mood != "" {
		title += "  " + m.mood
	}
	return m.theme.Header.Width(m.width).Render(m.theme.HeaderTitle.Render(title))
}

func (m *Model) renderInput() string {
	return m.theme.InputBox.Width(m.chatWidth() - 2).Render(m.input.View())
}

/// renderCallBar draws the live-call strip: phase label, level waveform, and
// elapsed time.
func (m *Model) renderCallBar() string {
	label := m.theme.CallLabel.Render(m.call.State().Label())
	wave := RenderCallWaveform(m.theme, m.call.Level(), m.frame)
	timer := m.theme.CallTimer.Render(mira.FormatCallDuration(m.call.Elapsed()))
	hangup := m.theme.CallHangup.Render("Ctrl+L to hang up")

	line := lipgloss.JoinHorizontal(lipgloss.Center, label, "  ", wave, "  ", timer, "  ", hangup)
	return m.theme.CallBar.Width(m.chatWidth() - 2).Render(line)
}

func (m *Model) renderMoodPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("How are you feeling?"))
	b.WriteString("\n\n")
	for i, option := range moodOptions {
		if i == m.moodIndex {
			b.WriteString(m.theme.MoodSelected.Render("› " + option))
		} else {
			b.WriteString(m.theme.MoodOption.Render("  " + option))
		}
		b.WriteString("\n")
	}
	return m.theme.MoodPicker.Render(b.String())
}

func (m *Model) renderStatusBar() string {
	if m.status != "" {
		return m.theme.StatusBar.Width(m.width).Render(m.theme.StatusDesc.Render(m.status))
	}

	hints := []struct{ key, desc string }{
		{"Enter", "send"},
		{"^N", "new"},
		{"^B", "sidebar"},
		{"^O", "mood"},
		{"^L", "call"},
		{"^R", "voice"},
		{"^A", "attach"},
		{"^E", "export"},
		{"^T", "theme"},
		{"^D", "delete"},
		{"^X", "clear"},
		{"^S", "sign out"},
		{"^C", "quit"},
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, m.theme.StatusKey.Render(h.key)+" "+m.theme.StatusDesc.Render(h.desc))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}
