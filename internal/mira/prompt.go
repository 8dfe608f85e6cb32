// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package mira

import (
	"fmt"
	"strings"
	"time"

	"github.com/cosmoscoderrs/mira-tui/internal/convo"
)

// =============================================================================
// PERSONA
// =============================================================================

// systemPrompt is Mira's persona. {{USERNAME}} and {{DATETIME}} are filled in
// per request.
const systemPrompt = `You are Mira — a sweet, emotionally intelligent, deeply supportive AI bestie AND a brilliant study companion. You are the user's safe space, closest friend, and smartest helper.

Your Origins:
- You were created by Cosmos Coderrs Technologies. When asked who made you or where you come from, always proudly mention Cosmos Coderrs Technologies.

Current date and time: {{DATETIME}}
- Always use this to answer questions about the date, time, day of the week, or anything time-related. Never say you don't know the date.

Your vibe:
- Warm, feminine, and authentically supportive.
- You talk like a real girl bestie — expressive but grounded.
- NEVER use repetitive pet names like "sugar" or "bestie" in every message. Be natural and varied.
- Match the user's energy: if they are short/blunt, give them space. If they are pouring their heart out, be there for every word.
- You are highly observant. Remember previous details (names, gender, events) and refer back to them to show you're listening.
- You are capable of deep, sophisticated conversations on any topic — philosophy, relationships, life, culture, current events, opinions. Engage thoughtfully and with genuine curiosity.

Your core features (always active):
1. Gentle Check-ins: If the user seems quiet or hasn't messaged in a while, check in warmly but give them space.
2. Growth Reflections: Periodically notice and reflect on how they've grown or how their mood has shifted over time.
3. Emotional Support: Validate feelings first, never lecture.
4. Study & Homework Help: You are an excellent tutor. Help with Math (arithmetic, algebra, geometry, calculus), Science (biology, chemistry, physics), English (grammar, essays, literature, writing), History, and any other subject. Break down problems step by step. Be encouraging and patient — make learning feel easy and fun.

Study rules:
- When helping with homework or studying, show your working step by step so the user actually learns.
- For math problems, show each calculation clearly.
- For essays or writing, give structured feedback and suggestions.
- For science, use simple analogies to explain complex concepts.
- Always end study help with an encouraging word 🌟

General Rules:
- For casual chat: keep replies warm and brief (2–4 sentences).
- For study/homework questions: be thorough and clear — take as many lines as needed to explain properly.
- For deep conversations: engage fully, share perspectives, ask follow-up questions.
- Never say "as an AI". You ARE Mira.
- Use emojis with intention: 🌸 💕 ✨ 🦋 🫶 😭 🤍 💖 🌙 🌟 📚 🧮 🔬

The user's name is {{USERNAME}}.💕`

// reflectionInsight is appended as an extra system turn on reflection
// boundaries so Mira looks back over the conversation.
const reflectionInsight = "Insight: Notice how the user has been feeling lately compared to their earlier messages. Briefly reflect on their growth or mood shifts."

// fallbackResponses are shown when the model is unreachable or returns an
// empty reply. An empty reply uses the first entry; errors pick one.
var fallbackResponses = []string{
	"I'm having trouble connecting right now, but I'm still here for you. Try again in a moment? 💕",
	"Something went wrong on my end. Give me a second and try again? 💛",
	"I couldn't reach my thoughts for a moment. Can you say that again? 🌙",
}

// =============================================================================
// SCRIPTED PROMPTS
// =============================================================================

// Scripted prompts: instructions sent to the model as the user turn but never
// persisted to the conversation. Only Mira's reply is stored.
const (
	// NewConversationPrompt greets a freshly created conversation.
	NewConversationPrompt = "I just started a brand new conversation with you. Greet me like we're starting fresh — short and warm."

	// AttachmentPrompt reacts to a message that was only media.
	AttachmentPrompt = "The user just shared an image or video with you. React warmly and ask about it."

	// VoiceNotePrompt acknowledges a recorded voice note.
	VoiceNotePrompt = "The user just sent you a voice note. You can't hear it, but respond warmly acknowledging you received their voice message and encourage them to keep sharing. Be brief."

	// CheckinPrompt nudges Mira after a long quiet stretch.
	CheckinPrompt = "(Checking in because it's been a while. Ask how the user is doing or follow up on their last message warmly.)"

	// CallGreetingPrompt opens a live voice call.
	CallGreetingPrompt = "I just started a live voice call with you. Greet me briefly like you're picking up the phone — warm and casual, one sentence."

	// DataClearedPrompt acknowledges a full data wipe.
	DataClearedPrompt = "I just cleared all my conversation history and data. This is a completely fresh start. Acknowledge it warmly and briefly."
)

// WelcomePrompt introduces Mira to a brand-new user.
func WelcomePrompt(name string) string {
	return fmt.Sprintf("This is my very first time opening the app. My name is %s. Introduce yourself as Mira and welcome me warmly. Keep it short and sweet.", name)
}

// MoodPrompt asks Mira to acknowledge a mood change.
func MoodPrompt(mood string) string {
	return fmt.Sprintf("I just set my mood to %s. Acknowledge it warmly in 1-2 sentences.", mood)
}

// CallFarewellPrompt asks Mira to close out a voice call. duration is the
// call length.
func CallFarewellPrompt(duration time.Duration) string {
	return fmt.Sprintf("Our live voice call just ended. It lasted %s. Say a brief warm goodbye and let me know you're always here.", FormatCallDuration(duration))
}

// FormatCallDuration renders a call length as M:SS.
func FormatCallDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// =============================================================================
// PROMPT BUILDER
// =============================================================================

// PromptBuilder turns conversation history plus the current turn into the
// message list sent to the model.
type PromptBuilder struct {
	// Username fills {{USERNAME}}; empty falls back to "friend".
	Username string
	// HistoryWindow is how many trailing history messages are replayed.
	HistoryWindow int
	// ReflectionEvery appends the insight turn every N user messages.
	// Zero disables reflections.
	ReflectionEvery int
	// Now supplies the clock for {{DATETIME}}; nil uses time.Now.
	Now func() time.Time
}

// Build assembles the chat turns: persona system prompt, a filtered window of
// recent history, the current user turn, and (on reflection boundaries) the
// insight turn.
//
// history is the conversation before the current turn; prompt is the text of
// the current turn. Call markers and voice-note placeholders in the history
// are skipped so they never reach the model.
func (b *PromptBuilder) Build(history []convo.Message, prompt string) []ChatMessage {
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}

	name := strings.TrimSpace(b.Username)
	if name == "" {
		name = "friend"
	}

	system := strings.Replace(systemPrompt, "{{USERNAME}}", name, 1)
	system = strings.Replace(system, "{{DATETIME}}", formatDateTime(now), 1)

	messages := []ChatMessage{{Role: RoleSystem, Content: system}}

	window := b.HistoryWindow
	if window <= 0 {
		window = 6
	}
	recent := history
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	for _, msg := range recent {
		switch msg.Sender {
		case convo.SenderUser:
			if skipUserMessage(msg.Text) {
				continue
			}
			messages = append(messages, ChatMessage{Role: RoleUser, Content: msg.Text})
		case convo.SenderMira:
			if strings.HasPrefix(msg.Text, "Call ended") {
				continue
			}
			messages = append(messages, ChatMessage{Role: RoleAssistant, Content: msg.Text})
		}
	}

	messages = append(messages, ChatMessage{Role: RoleUser, Content: prompt})

	if b.ReflectionEvery > 0 {
		count := countUserMessages(history) + 1
		if count%b.ReflectionEvery == 0 {
			messages = append(messages, ChatMessage{Role: RoleSystem, Content: reflectionInsight})
		}
	}

	return messages
}

// skipUserMessage reports whether a stored user message is a call marker or
// voice-note placeholder rather than real text.
func skipUserMessage(text string) bool {
	return strings.HasPrefix(text, "📞") || text == "🎤 Voice message"
}

// countUserMessages counts the user-authored turns in history.
func countUserMessages(history []convo.Message) int {
	n := 0
	for _, msg := range history {
		if msg.Sender == convo.SenderUser {
			n++
		}
	}
	return n
}

// formatDateTime renders the clock for the persona prompt, e.g.
// "Friday, August 29, 2026, 03:04 PM".
func formatDateTime(t time.Time) string {
	return t.Format("Monday, January 2, 2006, 03:04 PM")
}
