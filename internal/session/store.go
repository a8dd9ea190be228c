// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/todo-tui/internal/storage"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Storage keys. The token is kept apart from the user record so the
// credential is never embedded in the JSON blob.
const (
	TokenKey = "session.token"
	UserKey  = "session.user"
)

// storedUser is the JSON layout under UserKey.
type storedUser struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}

// RestoreError describes persisted session data that could not be used.
// It is logged and recovered from, never returned to callers of Load.
type RestoreError struct {
	Reason string
	Err    error
}

func (e *RestoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session restore: %s: %v", e.Reason, e.Err)
	}
	return "session restore: " + e.Reason
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}

// Store persists the current Session in a storage backend.
type Store struct {
	st     storage.Storage
	logger *zap.Logger
}

// NewStore creates a Store over st. A nil logger discards log output.
func NewStore(st storage.Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{st: st, logger: logger}
}

// Load returns the persisted session, or nil when there is none.
//
// Malformed data (unparsable user record, missing half of the pair, failed
// decryption) is cleared and reported as nil.
func (s *Store) Load() *Session {
	sess, rerr := s.load()
	if rerr == nil {
		return sess
	}

	s.logger.Warn("discarding persisted session", zap.Error(rerr))
	if err := s.Clear(); err != nil {
		s.logger.Error("failed to clear corrupted session", zap.Error(err))
	}
	return nil
}

// Peek reads the persisted session without repairing it. Unlike Load it
// leaves malformed data in place, so a half-written pair seen while another
// process is saving comes back as an error instead of being wiped.
func (s *Store) Peek() (*Session, error) {
	sess, rerr := s.load()
	if rerr != nil {
		return nil, rerr
	}
	return sess, nil
}

func (s *Store) load() (*Session, *RestoreError) {
	token, hasToken, err := s.st.Get(TokenKey)
	if err != nil {
		return nil, &RestoreError{Reason: "unreadable token", Err: err}
	}
	raw, hasUser, err := s.st.Get(UserKey)
	if err != nil {
		return nil, &RestoreError{Reason: "unreadable user record", Err: err}
	}

	switch {
	case !hasToken && !hasUser:
		return nil, nil
	case !hasToken:
		return nil, &RestoreError{Reason: "user record without token"}
	case !hasUser:
		return nil, &RestoreError{Reason: "token without user record"}
	}

	var u storedUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, &RestoreError{Reason: "malformed user record", Err: err}
	}

	sess := Session{
		Token:       token,
		UserID:      u.UserID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		IssuedAt:    u.IssuedAt,
	}
	if err := sess.Validate(); err != nil {
		return nil, &RestoreError{Reason: "incomplete session", Err: err}
	}
	return &sess, nil
}

// Save overwrites the persisted session.
func (s *Store) Save(sess Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(storedUser{
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
		Email:       sess.Email,
		IssuedAt:    sess.IssuedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}

	if err := s.st.Set(UserKey, string(data)); err != nil {
		return fmt.Errorf("failed to save user record: %w", err)
	}
	if err := s.st.Set(TokenKey, sess.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Safe when nothing is stored.
// Both keys are attempted even if the first removal fails.
func (s *Store) Clear() error {
	return errors.Join(s.st.Remove(TokenKey), s.st.Remove(UserKey))
}
