// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kvstore provides the persistent key-value store backing mira's
// accounts, sessions, and conversation history.
//
// The production implementation is SQLite-backed (a single table in
// ~/.mira/mira.db) so that several mira processes on the same machine see
// the same state. MemStore is an in-memory implementation for tests.
package kvstore

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")

	// ErrDatabaseError wraps underlying database failures.
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a flat string key-value store.
//
// Get reports whether the key exists; a missing key is not an error.
// Set creates or replaces a key. Delete is a no-op for missing keys.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}
