// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package convo

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cosmoscoderrs/mira-tui/internal/kvstore"
)

// =============================================================================
// STORAGE KEYS
// =============================================================================

const (
	conversationsKey = "mira-conversations"
	activeConvoKey   = "mira-active-convo"
	legacyHistoryKey = "mira-chat-history"
	moodKey          = "mira-mood"
	themeOverrideKey = "mira-dark-mode-override"
)

// =============================================================================
// STORE
// =============================================================================

// Store holds all conversations in memory and mirrors every mutation to the
// key-value store. There is always an active conversation.
type Store struct {
	kv  kvstore.Store
	now func() time.Time

	mu            sync.Mutex
	conversations []*Conversation
	activeID      string
}

// NewStore loads conversations from kv, migrates a legacy single-thread
// history if present, and restores (or creates) the active conversation.
func NewStore(kv kvstore.Store) (*Store, error) {
	return NewStoreWithClock(kv, time.Now)
}

// NewStoreWithClock is NewStore with an injectable clock for tests.
func NewStoreWithClock(kv kvstore.Store, clock func() time.Time) (*Store, error) {
	s := &Store{kv: kv, now: clock}

	if err := s.load(); err != nil {
		return nil, err
	}
	if err := s.migrateLegacy(); err != nil {
		return nil, err
	}
	if err := s.restoreActive(); err != nil {
		return nil, err
	}

	return s, nil
}

// load reads the persisted conversation list and active ID into memory.
func (s *Store) load() error {
	raw, ok, err := s.kv.Get(conversationsKey)
	if err != nil {
		return err
	}
	if ok {
		var convs []*Conversation
		if err := json.Unmarshal([]byte(raw), &convs); err != nil {
			return fmt.Errorf("corrupt conversation store: %w", err)
		}
		s.conversations = convs
	}

	active, ok, err := s.kv.Get(activeConvoKey)
	if err != nil {
		return err
	}
	if ok {
		s.activeID = active
	}

	return nil
}

// migrateLegacy imports the pre-threads single chat history into a new
// conversation. Runs only when no conversations exist yet; the legacy key is
// removed afterwards either way.
func (s *Store) migrateLegacy() error {
	raw, ok, err := s.kv.Get(legacyHistoryKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if len(s.conversations) == 0 {
		var messages []Message
		if err := json.Unmarshal([]byte(raw), &messages); err == nil && len(messages) > 0 {
			now := s.now()
			conv := &Conversation{
				ID:        migratedConversationID(now),
				Title:     "Imported conversation",
				CreatedAt: now.UnixMilli(),
				UpdatedAt: now.UnixMilli(),
				Messages:  messages,
			}
			s.conversations = append(s.conversations, conv)
			s.activeID = conv.ID
			if err := s.persist(); err != nil {
				return err
			}
		}
		// Unparsable or empty history is dropped
	}

	return s.kv.Delete(legacyHistoryKey)
}

// restoreActive points the store at a valid conversation: the persisted
// active ID if it still exists, else the first conversation, else a new one.
func (s *Store) restoreActive() error {
	if s.activeID != "" && s.byID(s.activeID) != nil {
		return nil
	}
	if len(s.conversations) > 0 {
		s.activeID = s.conversations[0].ID
		return s.persist()
	}
	_, err := s.createNewLocked()
	return err
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// List returns all conversations, most recently updated first.
func (s *Store) List() []*Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Conversation, len(s.conversations))
	copy(out, s.conversations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}

// Active returns the active conversation.
func (s *Store) Active() *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID(s.activeID)
}

// ActiveID returns the active conversation's ID.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// CreateNew starts a fresh conversation and makes it active.
func (s *Store) CreateNew() (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createNewLocked()
}

func (s *Store) createNewLocked() (*Conversation, error) {
	now := s.now()
	conv := &Conversation{
		ID:        NewConversationID(now),
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
		Messages:  []Message{},
	}
	s.conversations = append(s.conversations, conv)
	s.activeID = conv.ID
	if err := s.persist(); err != nil {
		return nil, err
	}
	return conv, nil
}

// SwitchTo makes the given conversation active. Switching to an unknown ID
// is a silent no-op; the current selection stays where it is.
func (s *Store) SwitchTo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byID(id) == nil || s.activeID == id {
		return nil
	}
	s.activeID = id
	return s.persist()
}

// Delete removes a conversation. Deleting an unknown ID is a silent no-op.
// When the active conversation is deleted, the most recently updated
// remaining one becomes active; deleting the last conversation creates a
// fresh one so there is always something to type into.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, conv := range s.conversations {
		if conv.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)

	if s.activeID == id {
		if len(s.conversations) == 0 {
			_, err := s.createNewLocked()
			return err
		}
		// Most recently updated becomes active
		next := s.conversations[0]
		for _, conv := range s.conversations[1:] {
			if conv.UpdatedAt > next.UpdatedAt {
				next = conv
			}
		}
		s.activeID = next.ID
	}

	return s.persist()
}

// Append adds a message to the active conversation, stamping ID and display
// time if unset, and bumps the conversation's UpdatedAt.
func (s *Store) Append(msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.byID(s.activeID)
	if conv == nil {
		// Should not happen: restoreActive guarantees an active conversation
		var err error
		conv, err = s.createNewLocked()
		if err != nil {
			return Message{}, err
		}
	}

	now := s.now()
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}
	if msg.Time == "" {
		msg.Time = FormatTimestamp(now)
	}

	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = now.UnixMilli()

	if err := s.persist(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// byID returns the conversation with the given ID, or nil. Caller holds mu.
func (s *Store) byID(id string) *Conversation {
	for _, conv := range s.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persist writes the conversation list and active ID. Caller holds mu.
func (s *Store) persist() error {
	data, err := json.Marshal(s.conversations)
	if err != nil {
		return err
	}
	if err := s.kv.Set(conversationsKey, string(data)); err != nil {
		return err
	}
	return s.kv.Set(activeConvoKey, s.activeID)
}

// Resync reconciles in-memory state with what another process may have
// written: when the persisted conversation list or active ID differs from
// memory, the persisted state wins. Reports whether a reload happened.
func (s *Store) Resync() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(conversationsKey)
	if err != nil {
		return false, err
	}
	if !ok {
		raw = "[]"
	}

	persistedActive, _, err := s.kv.Get(activeConvoKey)
	if err != nil {
		return false, err
	}

	current, err := json.Marshal(s.conversations)
	if err != nil {
		return false, err
	}

	if string(current) == raw && persistedActive == s.activeID {
		return false, nil
	}

	var convs []*Conversation
	if err := json.Unmarshal([]byte(raw), &convs); err != nil {
		// Ignore a torn write; the next change event retries
		return false, nil
	}

	s.conversations = convs
	s.activeID = persistedActive
	if err := s.restoreActive(); err != nil {
		return true, err
	}
	return true, nil
}

// =============================================================================
// EXPORT AND CLEAR
// =============================================================================

// Document is the export payload written by the settings export action.
type Document struct {
	Conversations []*Conversation `json:"conversations"`
	ExportedAt    string          `json:"exportedAt"`
}

// ExportDocument snapshots all conversations for export.
func (s *Store) ExportDocument() Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Conversation, len(s.conversations))
	copy(out, s.conversations)
	return Document{
		Conversations: out,
		ExportedAt:    s.now().UTC().Format(time.RFC3339),
	}
}

// ClearData wipes conversations, the active pointer, and the saved mood.
// Accounts and the session survive. A fresh conversation is created so the
// app keeps working.
func (s *Store) ClearData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{conversationsKey, activeConvoKey, moodKey} {
		if err := s.kv.Delete(key); err != nil {
			return err
		}
	}

	s.conversations = nil
	s.activeID = ""
	_, err := s.createNewLocked()
	return err
}

// =============================================================================
// MOOD AND THEME STATE
// =============================================================================

// SetMood persists the mood picker selection.
func (s *Store) SetMood(mood string) error {
	return s.kv.Set(moodKey, mood)
}

// Mood returns the saved mood, if any.
func (s *Store) Mood() (string, bool, error) {
	return s.kv.Get(moodKey)
}

// SetThemeOverride records a manual theme choice that suppresses the
// time-of-day automatic switch. The stored value is the legacy dark-mode
// flag: "true" for dark, "false" for light.
func (s *Store) SetThemeOverride(mode string) error {
	return s.kv.Set(themeOverrideKey, mode)
}

// ThemeOverride returns the manual theme choice, if one was made.
func (s *Store) ThemeOverride() (string, bool, error) {
	return s.kv.Get(themeOverrideKey)
}
