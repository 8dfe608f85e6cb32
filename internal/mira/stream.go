// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package mira

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader decodes a newline-delimited JSON chat stream and accumulates
// the reply text as chunks arrive.
type StreamReader struct {
	reader  *bufio.Reader
	builder strings.Builder
	done    bool
}

// NewStreamReader wraps an NDJSON response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: bufio.NewReader(r)}
}

// Next reads the next chunk of the stream and returns the accumulated reply
// text so far. It returns io.EOF when the stream is finished (either the
// final "done" chunk or the body ending). Malformed lines are skipped.
func (s *StreamReader) Next(ctx context.Context) (string, error) {
	for {
		if s.done {
			return s.builder.String(), io.EOF
		}
		if err := ctx.Err(); err != nil {
			return s.builder.String(), err
		}

		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(line) > 0 {
					s.decodeLine(line)
				}
				s.done = true
				return s.builder.String(), io.EOF
			}
			return s.builder.String(), err
		}

		if s.decodeLine(line) {
			return s.builder.String(), nil
		}
		// Blank or malformed line: keep reading
	}
}

// decodeLine parses one stream line into the accumulator. Returns true when
// the line carried content or completed the stream.
func (s *StreamReader) decodeLine(line []byte) bool {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return false
	}

	var chunk StreamChunk
	if err := json.Unmarshal([]byte(trimmed), &chunk); err != nil {
		// Partial or garbled line mid-stream; skip it
		return false
	}

	if chunk.Message.Content != "" {
		s.builder.WriteString(chunk.Message.Content)
	}
	if chunk.Done {
		s.done = true
	}
	// A bare "done" marker carries no content and is not surfaced as a chunk
	return chunk.Message.Content != ""
}

// Text returns the reply accumulated so far.
func (s *StreamReader) Text() string {
	return s.builder.String()
}
