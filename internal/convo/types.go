// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package convo provides the multi-conversation store for mira: message and
// conversation records, persistence to the shared key-value store, legacy
// single-thread migration, and sidebar presentation helpers.
package convo

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderMira Sender = "mira"
)

// AttachmentKind identifies an attachment's media type.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
)

// Attachment is a media payload attached to a message.
type Attachment struct {
	Kind    AttachmentKind `json:"kind"`
	Payload string         `json:"payload"`
}

// Message is one entry in a conversation. Voice notes carry an audio payload
// and duration; synthesized replies carry TTSText and the TTSVoice flag so
// the renderer knows to animate rather than track playback progress.
type Message struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
	// Time is the display timestamp, e.g. "3:04 PM"
	Time string `json:"time"`

	Attachments []Attachment `json:"attachments,omitempty"`

	// Voice note fields
	Voice         string  `json:"voice,omitempty"`
	VoiceDuration float64 `json:"voiceDuration,omitempty"`

	// Synthesized reply fields
	TTSText  string `json:"ttsText,omitempty"`
	TTSVoice bool   `json:"ttsVoice,omitempty"`
}

// Conversation is a persisted thread of messages. Timestamps are unix
// milliseconds.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// LastMessage returns the most recent message, or nil for an empty thread.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// =============================================================================
// ID GENERATION
// =============================================================================

// NewConversationID creates a unique conversation ID: base-36 unix millis
// plus a short random suffix. IDs therefore sort by creation time.
func NewConversationID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + randomSuffix(5)
}

// migratedConversationID is the ID given to the thread created by legacy
// migration: base-36 unix millis plus a literal marker.
func migratedConversationID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + "migrated"
}

// NewMessageID creates a unique message ID.
func NewMessageID() string {
	return uuid.NewString()
}

const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomSuffix returns n random base-36 characters.
func randomSuffix(n int) string {
	bytes := make([]byte, n)
	rand.Read(bytes)
	for i, b := range bytes {
		bytes[i] = base36Chars[int(b)%len(base36Chars)]
	}
	return string(bytes)
}

// =============================================================================
// PRESENTATION HELPERS
// =============================================================================

// previewMaxRunes is the sidebar preview length before the ellipsis.
const previewMaxRunes = 60

// Preview returns the sidebar line for a conversation: the first user
// message's leading 60 runes (with "…" when truncated), falling back to the
// first assistant message, the title, then "New conversation".
func (c *Conversation) Preview() string {
	for _, msg := range c.Messages {
		if msg.Sender == SenderUser && msg.Text != "" {
			return truncatePreview(msg.Text)
		}
	}
	for _, msg := range c.Messages {
		if msg.Sender == SenderMira && msg.Text != "" {
			return truncatePreview(msg.Text)
		}
	}
	if c.Title != "" {
		return c.Title
	}
	return "New conversation"
}

// truncatePreview cuts text to the preview length, rune-safe.
func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewMaxRunes {
		return text
	}
	return string(runes[:previewMaxRunes]) + "…"
}

// FormatTimestamp renders a message display time, e.g. "3:04 PM".
func FormatTimestamp(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatRecency renders how long ago a conversation was touched:
// "Just now", "37m ago", "5h ago", "Yesterday", "3d ago", then a short
// month-day date beyond six days.
func FormatRecency(updatedAtMillis int64, now time.Time) string {
	updated := time.UnixMilli(updatedAtMillis)
	diff := now.Sub(updated)
	if diff < 0 {
		diff = 0
	}

	mins := int(diff.Minutes())
	if mins < 1 {
		return "Just now"
	}
	if mins < 60 {
		return fmt.Sprintf("%dm ago", mins)
	}

	hours := mins / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}

	days := hours / 24
	if days == 1 {
		return "Yesterday"
	}
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}

	return updated.Format("Jan 2")
}
