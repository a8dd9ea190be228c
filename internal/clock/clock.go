// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clock provides the timer primitive used by the session scheduler.
package clock

import (
	"sync"
	"time"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Handle cancels a pending timer. Cancel is idempotent and safe to call
// after the timer has already fired.
type Handle interface {
	Cancel()
}

// Clock schedules callbacks and reports the current time.
// Callbacks may run on any goroutine; callers serialize their own state.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After runs fn once, d from now.
	After(d time.Duration, fn func()) Handle

	// Every runs fn every d until the returned handle is cancelled.
	Every(d time.Duration, fn func()) Handle
}

// =============================================================================
// REAL CLOCK
// =============================================================================

// Real is a Clock backed by the runtime timers.
type Real struct{}

// NewReal returns the runtime clock.
func NewReal() Real {
	return Real{}
}

// Now returns the wall-clock time with the monotonic reading stripped.
// The monotonic clock stops while the host is suspended; wall-clock
// comparisons are what let the scheduler notice a sleep.
func (Real) Now() time.Time {
	return time.Now().Round(0)
}

// After implements Clock.
func (Real) After(d time.Duration, fn func()) Handle {
	return &realTimer{t: time.AfterFunc(d, fn)}
}

// Every implements Clock.
func (Real) Every(d time.Duration, fn func()) Handle {
	t := &realTicker{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) Cancel() {
	r.t.Stop()
}

type realTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (r *realTicker) run(fn func()) {
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			// A tick can race with Cancel; prefer the cancellation.
			select {
			case <-r.done:
				return
			default:
			}
			fn()
		}
	}
}

func (r *realTicker) Cancel() {
	r.once.Do(func() {
		r.ticker.Stop()
		close(r.done)
	})
}
