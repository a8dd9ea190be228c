// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lifecycle carries session lifecycle notifications to the UI.
package lifecycle

import (
	"fmt"
	"time"
)

// Kind identifies a lifecycle event.
type Kind int

const (
	// WarningShown starts a warning episode; SecondsRemaining is the countdown start.
	WarningShown Kind = iota + 1
	// CountdownTick reports the countdown once per second.
	CountdownTick
	// SessionExtended ends a warning episode through user re-engagement.
	SessionExtended
	// SessionExpired ends a warning episode without re-engagement; logout follows.
	SessionExpired
)

// String returns the event name.
func (k Kind) String() string {
	switch k {
	case WarningShown:
		return "warningShown"
	case CountdownTick:
		return "countdownTick"
	case SessionExtended:
		return "sessionExtended"
	case SessionExpired:
		return "sessionExpired"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is a single lifecycle notification.
type Event struct {
	Kind Kind

	// SecondsRemaining is set for WarningShown and CountdownTick.
	SecondsRemaining int

	// At is the scheduler clock time of the transition.
	At time.Time

	// Episode identifies the login the event belongs to.
	Episode string
}

// Handler receives events. Handlers may call back into the scheduler.
type Handler func(Event)
