// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package activity turns raw input signals into "user was active" callbacks.
package activity

import (
	"fmt"
	"sync"
)

// =============================================================================
// SIGNALS
// =============================================================================

// Kind is a class of raw input signal.
type Kind int

const (
	// PointerMove is mouse motion.
	PointerMove Kind = iota + 1
	// PointerPress is a mouse button press.
	PointerPress
	// KeyPress is a keyboard key or an entered line.
	KeyPress
	// Scroll is a wheel or scroll gesture.
	Scroll
	// Touch is a touch-screen contact.
	Touch
)

// ObservedKinds is the fixed set of kinds a Monitor reports.
var ObservedKinds = []Kind{PointerMove, PointerPress, KeyPress, Scroll, Touch}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case PointerMove:
		return "pointer-move"
	case PointerPress:
		return "pointer-press"
	case KeyPress:
		return "key-press"
	case Scroll:
		return "scroll"
	case Touch:
		return "touch"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Signal is one raw input event.
type Signal struct {
	Kind Kind
}

// =============================================================================
// MONITOR
// =============================================================================

// Monitor reports observed signals to a single callback.
//
// Each Notify of an observed kind invokes the callback at most once; there
// is no debouncing here. Once Stop returns the callback is not running and
// never runs again until the next Start. The callback runs without the
// monitor lock held; it may call Detach but not Stop, which would wait on
// itself.
type Monitor struct {
	mu         sync.Mutex
	drained    *sync.Cond
	onActivity func()
	observed   map[Kind]bool
	inFlight   int
}

// NewMonitor creates a stopped monitor observing ObservedKinds.
func NewMonitor() *Monitor {
	observed := make(map[Kind]bool, len(ObservedKinds))
	for _, k := range ObservedKinds {
		observed[k] = true
	}
	m := &Monitor{observed: observed}
	m.drained = sync.NewCond(&m.mu)
	return m
}

// Start begins reporting to onActivity, replacing any previous callback.
func (m *Monitor) Start(onActivity func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onActivity = onActivity
}

// Stop detaches the callback and waits for invocations already in flight.
// Safe to call repeatedly and before Start.
func (m *Monitor) Stop() {
	m.Detach()
	m.Wait()
}

// Detach drops the callback without waiting. Notify calls that have not
// yet picked up the callback will not invoke it.
func (m *Monitor) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onActivity = nil
}

// Wait blocks until no callback invocation is in flight.
func (m *Monitor) Wait() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.inFlight > 0 {
		m.drained.Wait()
	}
}

// Running reports whether a callback is attached.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onActivity != nil
}

// Notify feeds one raw signal. It reports whether the callback was invoked.
func (m *Monitor) Notify(s Signal) bool {
	m.mu.Lock()
	fn := m.onActivity
	if fn == nil || !m.observed[s.Kind] {
		m.mu.Unlock()
		return false
	}
	m.inFlight++
	m.mu.Unlock()

	defer m.done()
	fn()
	return true
}

func (m *Monitor) done() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	if m.inFlight == 0 {
		m.drained.Broadcast()
	}
}
