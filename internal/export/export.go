// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation backups to disk.
//
// The settings export action produces a single JSON document holding every
// conversation; individual conversations can also be exported as readable
// Markdown.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a single conversation in a target format.
type Exporter interface {
	// Export converts a conversation to the target format.
	Export(conv *convo.Conversation) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where files land. Default: the user's home directory.
	OutputDir string

	// IncludeTimestamps includes per-message timestamps in readable formats.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         DefaultDir(),
		IncludeTimestamps: true,
	}
}

// DefaultDir is where exports land when no directory is chosen: the user's
// home directory, falling back to the working directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// =============================================================================
// FULL-STORE EXPORT
// =============================================================================

// DocumentFileName returns the backup file name for a point in time,
// e.g. "mira-export-1756458240000.json".
func DocumentFileName(now time.Time) string {
	return fmt.Sprintf("mira-export-%d.json", now.UnixMilli())
}

// WriteDocument saves a full-store export document into dir and returns the
// written path. The file is written atomically and pretty-printed so it can
// be read by hand.
func WriteDocument(dir string, doc convo.Document, now time.Time) (string, error) {
	data, err := MarshalDocument(doc)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, DocumentFileName(now))
	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// WriteStore exports everything in the store to dir.
func WriteStore(dir string, store *convo.Store) (string, error) {
	return WriteDocument(dir, store.ExportDocument(), time.Now())
}

// =============================================================================
// SINGLE-CONVERSATION EXPORT
// =============================================================================

// ExportToFile renders one conversation with the given exporter and writes
// it into opts.OutputDir. Returns the written path.
func ExportToFile(conv *convo.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if conv == nil {
		return "", fmt.Errorf("conversation is nil")
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.Preview()),
		timestamp,
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// sanitizeFilename makes a conversation preview safe to use in a file name.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > 40 {
		out = out[:40]
	}
	if out == "" {
		out = "untitled"
	}
	return out
}
