// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mira talks to the Ollama chat endpoint on Mira's behalf: it builds
// the persona prompt from conversation history, sends streaming and
// non-streaming completion requests, and degrades gracefully when the app
// window loses visibility mid-stream.
package mira

// =============================================================================
// WIRE TYPES
// =============================================================================

// Role values for chat messages on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries the sampling parameters sent with every request.
type Options struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	TopK          int     `json:"top_k"`
	NumPredict    int     `json:"num_predict"`
	NumCtx        int     `json:"num_ctx"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  Options       `json:"options"`
}

// ChatResponse is a non-streaming chat response.
type ChatResponse struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// StreamChunk is one newline-delimited JSON object of a streaming response.
type StreamChunk struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}
