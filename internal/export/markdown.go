// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/cosmoscoderrs/mira-tui/internal/convo"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a conversation as a readable Markdown journal.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown.
func (e *MarkdownExporter) Export(conv *convo.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = conv.Preview()
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	created := time.UnixMilli(conv.CreatedAt)
	updated := time.UnixMilli(conv.UpdatedAt)
	sb.WriteString(fmt.Sprintf("- **Started**: %s\n", created.Format("January 2, 2006 3:04 PM")))
	sb.WriteString(fmt.Sprintf("- **Last message**: %s\n", updated.Format("January 2, 2006 3:04 PM")))
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n\n", len(conv.Messages)))
	sb.WriteString("---\n\n")

	for i, msg := range conv.Messages {
		label := e.senderLabel(msg.Sender)
		if e.options.IncludeTimestamps && msg.Time != "" {
			sb.WriteString(fmt.Sprintf("### %s · %s\n\n", label, msg.Time))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(e.messageBody(&msg))
		sb.WriteString("\n\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

func (e *MarkdownExporter) senderLabel(sender convo.Sender) string {
	switch sender {
	case convo.SenderUser:
		return "You"
	case convo.SenderMira:
		return "Mira"
	default:
		return string(sender)
	}
}

// messageBody renders one message, substituting placeholders for media that
// cannot be carried into Markdown.
func (e *MarkdownExporter) messageBody(msg *convo.Message) string {
	var parts []string

	if msg.Voice != "" {
		parts = append(parts, fmt.Sprintf("*Voice note (%.0fs)*", msg.VoiceDuration))
	}
	for _, att := range msg.Attachments {
		switch att.Kind {
		case convo.AttachmentImage:
			parts = append(parts, "*[image attachment]*")
		case convo.AttachmentVideo:
			parts = append(parts, "*[video attachment]*")
		}
	}
	if msg.Text != "" {
		parts = append(parts, msg.Text)
	}

	if len(parts) == 0 {
		return "*[empty message]*"
	}
	return strings.Join(parts, "\n\n")
}
