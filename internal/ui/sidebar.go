// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/util"
)

// renderSidebar draws the conversation list, newest first.
func (m *Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n\n")

	active := m.store.ActiveID()
	now := m.now()

	for _, conv := range m.store.List() {
		item := m.theme.SidebarItem
		marker := "  "
		if conv.ID == active {
			item = m.theme.SidebarSelected
			marker = "▌ "
		}

		preview := m.theme.SidebarPreview.Render(util.TruncateWidth(conv.Preview(), sidebarWidth-6))
		recency := m.theme.SidebarRecency.Render(convo.FormatRecency(conv.UpdatedAt, now))

		line := marker + preview + "\n" + strings.Repeat(" ", 2) + recency
		if conv.ID == active && m.confirmDelete {
			line += " " + m.theme.SidebarDeleteTag.Render("delete?")
		}

		b.WriteString(item.Render(line))
		b.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(sidebarWidth - 2).
		Height(m.chatHeight()).
		Render(b.String())
}
