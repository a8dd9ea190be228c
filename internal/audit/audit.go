// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit keeps an append-only record of session lifecycle
// transitions.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxFileSize is the default max file size before rotation (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Event types.
const (
	EventSessionStart    = "SESSION_START"
	EventSessionEnd      = "SESSION_END"
	EventTimeoutWarning  = "SESSION_TIMEOUT_WARNING"
	EventSessionExtended = "SESSION_EXTENDED"
	EventSessionTimeout  = "SESSION_TIMEOUT"
)

// =============================================================================
// AUDIT EVENT
// =============================================================================

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Episode   string            `json:"episode"`
	UserID    string            `json:"user_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ToLogLine formats the event as a single log line:
//
//	2025-03-01 09:25:00 | SESSION_TIMEOUT_WARNING | <episode> | alice | seconds=300
func (e *Event) ToLogLine() string {
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+e.Metadata[k])
	}

	return fmt.Sprintf("%s | %s | %s | %s | %s",
		e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		e.EventType,
		e.Episode,
		e.UserID,
		strings.Join(pairs, " "),
	)
}

// ToJSON formats the event as JSON.
func (e *Event) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// =============================================================================
// REDACTION
// =============================================================================

// secretPatterns match credentials that must never reach the audit file.
var secretPatterns = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), "[JWT_REDACTED]"},
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-_.]+`), "Bearer [TOKEN_REDACTED]"},
	{regexp.MustCompile(`(?i)(password|passwd|passphrase|token)\s*[=:]\s*\S+`), "[SECRET_REDACTED]"},
}

// Redact replaces credentials in input.
func Redact(input string) string {
	for _, sp := range secretPatterns {
		input = sp.pattern.ReplaceAllString(input, sp.replace)
	}
	return input
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

// Logger provides thread-safe audit logging with secret redaction.
type Logger struct {
	path    string
	file    *os.File
	mu      sync.Mutex
	enabled bool
	maxSize int64
}

// NewLogger opens (or creates) the audit log at path for appending.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	return &Logger{
		path:    path,
		file:    file,
		enabled: true,
		maxSize: DefaultMaxFileSize,
	}, nil
}

// Log writes an audit event to the log file.
func (l *Logger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || l.file == nil {
		return nil
	}

	if len(event.Metadata) > 0 {
		clean := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			clean[k] = Redact(v)
		}
		event.Metadata = clean
	}
	event.UserID = Redact(event.UserID)

	if err := l.checkRotationLocked(); err != nil {
		return fmt.Errorf("audit rotation failed: %w", err)
	}
	if _, err := fmt.Fprintln(l.file, event.ToLogLine()); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit log: %w", err)
	}
	return nil
}

// LogEvent is a convenience wrapper around Log.
func (l *Logger) LogEvent(at time.Time, eventType, episode, userID string, metadata map[string]string) error {
	return l.Log(Event{
		Timestamp: at,
		EventType: eventType,
		Episode:   episode,
		UserID:    userID,
		Metadata:  metadata,
	})
}

// =============================================================================
// ROTATION
// =============================================================================

// rotateLocked moves the current file aside with a timestamp suffix and
// opens a fresh one.
func (l *Logger) rotateLocked() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close audit log for rotation: %w", err)
	}
	l.file = nil

	ext := filepath.Ext(l.path)
	base := strings.TrimSuffix(l.path, ext)
	rotatedPath := fmt.Sprintf("%s_%s%s", base, time.Now().Format("20060102_150405.000000000"), ext)
	if err := os.Rename(l.path, rotatedPath); err != nil {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create new audit log after rotation: %w", err)
	}
	l.file = file
	return nil
}

func (l *Logger) checkRotationLocked() error {
	if l.maxSize <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return nil
	}
	if info.Size() >= l.maxSize {
		return l.rotateLocked()
	}
	return nil
}

// SetMaxSize sets the maximum file size before rotation.
func (l *Logger) SetMaxSize(size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = size
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetEnabled enables or disables logging.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// IsEnabled returns whether logging is enabled.
func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Path returns the audit log path.
func (l *Logger) Path() string {
	return l.path
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
