// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"time"

	"github.com/jeranaias/todo-tui/internal/lifecycle"
)

// =============================================================================
// MESSAGES
// =============================================================================

// LifecycleMsg delivers a scheduler event to the UI.
type LifecycleMsg struct {
	Event lifecycle.Event
}

// StorageChangedMsg reports that the persisted session was written by
// someone, possibly another todo-tui process.
type StorageChangedMsg struct{}

// queuedMsg wraps everything drained from the inbox so Update knows to
// re-arm the listener exactly once per message.
type queuedMsg struct {
	msg any
}

// statusTickMsg refreshes the idle and remaining times on screen.
type statusTickMsg time.Time
