// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/todo-tui/internal/lifecycle"
)

// =============================================================================
// RECORDER
// =============================================================================

// Recorder turns lifecycle events into audit entries. Logins and logouts do
// not travel on the bus, so callers report them through Start and End.
type Recorder struct {
	log    *Logger
	logger *zap.Logger

	mu    sync.Mutex
	users map[string]string // episode -> user id
}

// NewRecorder creates a Recorder writing to log. A nil logger discards
// write failures.
func NewRecorder(log *Logger, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{log: log, logger: logger, users: make(map[string]string)}
}

// Handle is a lifecycle.Handler. Countdown ticks are not audited.
func (r *Recorder) Handle(ev lifecycle.Event) {
	var (
		eventType string
		meta      map[string]string
	)
	switch ev.Kind {
	case lifecycle.WarningShown:
		eventType = EventTimeoutWarning
		meta = map[string]string{"seconds": strconv.Itoa(ev.SecondsRemaining)}
	case lifecycle.SessionExtended:
		eventType = EventSessionExtended
	case lifecycle.SessionExpired:
		eventType = EventSessionTimeout
	default:
		return
	}

	r.mu.Lock()
	user := r.users[ev.Episode]
	if ev.Kind == lifecycle.SessionExpired {
		delete(r.users, ev.Episode)
	}
	r.mu.Unlock()

	r.write(Event{
		Timestamp: ev.At,
		EventType: eventType,
		Episode:   ev.Episode,
		UserID:    user,
		Metadata:  meta,
	})
}

// Start records a login or a restored session.
func (r *Recorder) Start(at time.Time, episode, userID string, restored bool) {
	r.mu.Lock()
	r.users[episode] = userID
	r.mu.Unlock()

	source := "login"
	if restored {
		source = "restore"
	}
	r.write(Event{
		Timestamp: at,
		EventType: EventSessionStart,
		Episode:   episode,
		UserID:    userID,
		Metadata:  map[string]string{"source": source},
	})
}

// End records an explicit logout.
func (r *Recorder) End(at time.Time, episode, userID, reason string) {
	r.mu.Lock()
	delete(r.users, episode)
	r.mu.Unlock()

	r.write(Event{
		Timestamp: at,
		EventType: EventSessionEnd,
		Episode:   episode,
		UserID:    userID,
		Metadata:  map[string]string{"reason": reason},
	})
}

func (r *Recorder) write(ev Event) {
	if r.log == nil {
		return
	}
	if err := r.log.Log(ev); err != nil {
		r.logger.Error("audit write failed",
			zap.String("event", ev.EventType),
			zap.Error(err))
	}
}
