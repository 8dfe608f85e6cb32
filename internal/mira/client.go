// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package mira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/cosmoscoderrs/mira-tui/internal/config"
	"github.com/cosmoscoderrs/mira-tui/internal/convo"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorType classifies client failures.
type ErrorType string

const (
	ErrTypeConnection ErrorType = "connection"
	ErrTypeTimeout    ErrorType = "timeout"
	ErrTypeServer     ErrorType = "server"
	ErrTypeDecode     ErrorType = "decode"
	ErrTypeCanceled   ErrorType = "canceled"
)

// ClientError represents an error talking to the model endpoint.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches client errors by type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

var (
	// ErrNotRunning indicates the endpoint refused the connection.
	ErrNotRunning = &ClientError{Type: ErrTypeConnection, Message: "could not reach the model endpoint"}

	// ErrTimeout indicates the request ran out of time.
	ErrTimeout = &ClientError{Type: ErrTypeTimeout, Message: "model request timed out"}
)

// =============================================================================
// CLIENT
// =============================================================================

// Client sends chat requests to the configured endpoint.
//
// Two HTTP clients are used: the regular one carries the request timeout,
// the streaming one has no timeout because a healthy stream can outlive any
// fixed deadline. Stream lifetime is bounded by the caller's context.
type Client struct {
	endpoint string
	model    string
	options  Options
	builder  *PromptBuilder

	httpClient   *http.Client
	streamClient *http.Client

	// Hidden reports whether the app is currently backgrounded. When hidden,
	// streaming degrades to a single non-streaming request so a throttled
	// process does not starve the stream. Nil means never hidden.
	Hidden func() bool

	// rng picks error fallbacks.
	rng *rand.Rand
}

// NewClient builds a client from configuration. username personalizes the
// persona prompt and may be updated later with SetUsername.
func NewClient(cfg *config.Config, username string) *Client {
	timeout := time.Duration(cfg.Inference.RequestTimeoutSecs) * time.Second
	return &Client{
		endpoint: cfg.Endpoint(),
		model:    cfg.Inference.Model,
		options: Options{
			Temperature:   cfg.Inference.Temperature,
			TopP:          cfg.Inference.TopP,
			TopK:          cfg.Inference.TopK,
			NumPredict:    cfg.Inference.NumPredict,
			NumCtx:        cfg.Inference.NumCtx,
			RepeatPenalty: cfg.Inference.RepeatPenalty,
		},
		builder: &PromptBuilder{
			Username:        username,
			HistoryWindow:   cfg.Inference.HistoryWindow,
			ReflectionEvery: cfg.Inference.ReflectionEvery,
		},
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetUsername updates the name used in the persona prompt.
func (c *Client) SetUsername(name string) {
	c.builder.Username = name
}

// Endpoint returns the chat endpoint URL in use.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// Complete sends a non-streaming chat request and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, history []convo.Message, prompt string) (string, error) {
	body, err := c.requestBody(history, prompt, false)
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, c.httpClient, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var decoded ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &ClientError{Type: ErrTypeDecode, Message: "invalid response from model endpoint", Cause: err}
	}

	return strings.TrimSpace(decoded.Message.Content), nil
}

// CompleteStreaming sends a streaming chat request, invoking onChunk with the
// accumulated reply after every chunk, and returns the trimmed final reply.
//
// Visibility degradation: if the app is hidden when called, a single
// non-streaming request is made instead. If the app goes hidden mid-stream,
// the stream is abandoned and whatever accumulated is returned; when nothing
// has arrived yet, it falls back to a non-streaming request.
func (c *Client) CompleteStreaming(ctx context.Context, history []convo.Message, prompt string, onChunk func(string)) (string, error) {
	if c.hidden() {
		result, err := c.Complete(ctx, history, prompt)
		if err != nil {
			return "", err
		}
		if onChunk != nil {
			onChunk(result)
		}
		return result, nil
	}

	body, err := c.requestBody(history, prompt, true)
	if err != nil {
		return "", err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := c.post(streamCtx, c.streamClient, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	// The body read blocks between chunks, so a visibility poller cancels the
	// stream context when the app goes hidden; the aborted read surfaces in
	// the loop below.
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-streamCtx.Done():
				return
			case <-ticker.C:
				if c.hidden() {
					cancel()
					return
				}
			}
		}
	}()

	reader := NewStreamReader(resp.Body)
	for {
		text, err := reader.Next(streamCtx)
		if err == io.EOF {
			return strings.TrimSpace(text), nil
		}
		if err != nil {
			partial := strings.TrimSpace(text)
			if c.hidden() {
				if partial != "" {
					return partial, nil
				}
				// Hidden before anything arrived: retry without streaming
				result, err := c.Complete(ctx, history, prompt)
				if err != nil {
					return "", err
				}
				if onChunk != nil {
					onChunk(result)
				}
				return result, nil
			}
			if partial != "" && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return partial, nil
			}
			return "", wrapTransportError(err)
		}
		if onChunk != nil {
			onChunk(text)
		}

		if c.hidden() {
			cancel()
			partial := strings.TrimSpace(reader.Text())
			if partial != "" {
				return partial, nil
			}
		}
	}
}

// Respond is Complete with Mira's fallback behavior: transport errors become
// a random fallback line and an empty reply becomes the first one. The
// returned string is always something worth showing the user.
func (c *Client) Respond(ctx context.Context, history []convo.Message, prompt string) string {
	result, err := c.Complete(ctx, history, prompt)
	if err != nil {
		return c.errorFallback()
	}
	if result == "" {
		return fallbackResponses[0]
	}
	return result
}

// RespondStreaming is CompleteStreaming with the same fallback behavior as
// Respond.
func (c *Client) RespondStreaming(ctx context.Context, history []convo.Message, prompt string, onChunk func(string)) string {
	result, err := c.CompleteStreaming(ctx, history, prompt, onChunk)
	if err != nil {
		return c.errorFallback()
	}
	if result == "" {
		return fallbackResponses[0]
	}
	return result
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Client) hidden() bool {
	return c.Hidden != nil && c.Hidden()
}

func (c *Client) errorFallback() string {
	return fallbackResponses[c.rng.Intn(len(fallbackResponses))]
}

func (c *Client) requestBody(history []convo.Message, prompt string, stream bool) ([]byte, error) {
	req := ChatRequest{
		Model:    c.model,
		Messages: c.builder.Build(history, prompt),
		Stream:   stream,
		Options:  c.options,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeDecode, Message: "failed to encode chat request", Cause: err}
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, client *http.Client, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to build chat request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	return resp, nil
}

// wrapTransportError classifies a transport failure: timeouts, cancellations,
// and connection failures each get their own type so callers can branch on
// errors.Is.
func wrapTransportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	case errors.Is(err, context.Canceled):
		return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: err}
	default:
		if isTimeout(err) {
			return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
		}
		return &ClientError{Type: ErrTypeConnection, Message: ErrNotRunning.Message, Cause: err}
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// statusError turns a non-200 response into a server error, folding in the
// response body when it carries an {"error": "..."} payload.
func statusError(resp *http.Response) error {
	msg := fmt.Sprintf("model endpoint returned %d", resp.StatusCode)
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			msg = fmt.Sprintf("%s: %s", msg, payload.Error)
		}
	}
	return &ClientError{Type: ErrTypeServer, Message: msg}
}
