// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package account provides local account registration, login, and session
// state for mira.
//
// Accounts live in the shared key-value store: key "mira-users" holds a JSON
// object keyed by lower-cased email, and key "mira-session" holds the active
// session. There is no server; everything is this machine only.
package account

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cosmoscoderrs/mira-tui/internal/kvstore"
)

// =============================================================================
// STORAGE KEYS
// =============================================================================

const (
	usersKey   = "mira-users"
	sessionKey = "mira-session"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// =============================================================================
// TYPES
// =============================================================================

// Account is a registered local account.
type Account struct {
	Name  string
	Email string
}

// record is the persisted per-user entry under usersKey.
type record struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// session is the persisted active-session entry under sessionKey.
type session struct {
	Email string `json:"email"`
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager performs account operations against a Store.
type Manager struct {
	store kvstore.Store
}

// NewManager creates an account manager backed by store.
func NewManager(store kvstore.Store) *Manager {
	return &Manager{store: store}
}

// Register creates a new account and signs it in.
//
// Validation order matches the sign-up form: missing fields, short password,
// duplicate email.
func (m *Manager) Register(name, email, password string) (*Account, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len([]rune(password)) < MinPasswordLength {
		return nil, ErrShortPassword
	}

	users, err := m.loadUsers()
	if err != nil {
		return nil, err
	}
	if _, exists := users[email]; exists {
		return nil, ErrDuplicateAccount
	}

	users[email] = record{Name: name, Password: password}
	if err := m.saveUsers(users); err != nil {
		return nil, err
	}
	if err := m.setSession(email); err != nil {
		return nil, err
	}

	return &Account{Name: name, Email: email}, nil
}

// Login signs in an existing account.
func (m *Manager) Login(email, password string) (*Account, error) {
	email = normalizeEmail(email)

	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	users, err := m.loadUsers()
	if err != nil {
		return nil, err
	}

	user, exists := users[email]
	if !exists {
		return nil, ErrNotFound
	}
	if user.Password != password {
		return nil, ErrWrongPassword
	}

	if err := m.setSession(email); err != nil {
		return nil, err
	}

	return &Account{Name: user.Name, Email: email}, nil
}

// Logout clears the active session. Signing out when nobody is signed in is
// not an error.
func (m *Manager) Logout() error {
	return m.store.Delete(sessionKey)
}

// Current resolves the persisted session to an account. Returns nil (and no
// error) when nobody is signed in. A session pointing at a deleted account
// is cleared and treated as signed out.
func (m *Manager) Current() (*Account, error) {
	raw, ok, err := m.store.Get(sessionKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var sess session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Corrupt session entry: clear it and treat as signed out
		_ = m.store.Delete(sessionKey)
		return nil, nil
	}

	users, err := m.loadUsers()
	if err != nil {
		return nil, err
	}

	user, exists := users[normalizeEmail(sess.Email)]
	if !exists {
		_ = m.store.Delete(sessionKey)
		return nil, nil
	}

	return &Account{Name: user.Name, Email: normalizeEmail(sess.Email)}, nil
}

// =============================================================================
// PERSISTENCE HELPERS
// =============================================================================

func (m *Manager) loadUsers() (map[string]record, error) {
	raw, ok, err := m.store.Get(usersKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]record{}, nil
	}

	var users map[string]record
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("corrupt user store: %w", err)
	}
	if users == nil {
		users = map[string]record{}
	}
	return users, nil
}

func (m *Manager) saveUsers(users map[string]record) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return m.store.Set(usersKey, string(data))
}

func (m *Manager) setSession(email string) error {
	data, err := json.Marshal(session{Email: email})
	if err != nil {
		return err
	}
	return m.store.Set(sessionKey, string(data))
}

// normalizeEmail lower-cases and trims an email so lookups are
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// =============================================================================
// ERRORS
// =============================================================================

// AccountError represents an account-related error. The message is shown to
// the user verbatim on the auth screen. Use errors.Is to compare.
type AccountError struct {
	Message string
}

// Error implements the error interface.
func (e *AccountError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing account errors.
func (e *AccountError) Is(target error) bool {
	t, ok := target.(*AccountError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrMissingFields is returned when a required field is blank.
	ErrMissingFields = &AccountError{Message: "Please fill in all fields"}

	// ErrShortPassword is returned when a password is under six characters.
	ErrShortPassword = &AccountError{Message: "Password must be at least 6 characters"}

	// ErrDuplicateAccount is returned when registering an email that exists.
	ErrDuplicateAccount = &AccountError{Message: "An account with this email already exists"}

	// ErrNotFound is returned when logging in with an unknown email.
	ErrNotFound = &AccountError{Message: "No account found with that email"}

	// ErrWrongPassword is returned when the password does not match.
	ErrWrongPassword = &AccountError{Message: "Incorrect password"}
)
