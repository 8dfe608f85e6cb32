// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/cosmoscoderrs/mira-tui/internal/convo"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// MarshalDocument renders a full-store export document. The layout matches
// what the store persists so a backup can be re-imported by hand.
func MarshalDocument(doc convo.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// JSONExporter exports a single conversation to JSON. JSON exports always
// include the complete conversation data regardless of options, so the
// output is a faithful copy of what is stored.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a conversation to pretty-printed JSON.
func (e *JSONExporter) Export(conv *convo.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	return json.MarshalIndent(conv, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
