// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package clock

import (
	"sync"
	"time"
)

// =============================================================================
// FAKE CLOCK
// =============================================================================

// Fake is a manually driven Clock for tests. Timers fire synchronously from
// Advance, in due order; timers due at the same instant fire in the order
// they were scheduled.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	f      *Fake
	due    time.Time
	period time.Duration
	seq    uint64
	fn     func()
}

// NewFake returns a fake clock set to start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now implements Clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After implements Clock.
func (f *Fake) After(d time.Duration, fn func()) Handle {
	return f.schedule(d, 0, fn)
}

// Every implements Clock.
func (f *Fake) Every(d time.Duration, fn func()) Handle {
	if d <= 0 {
		panic("clock: non-positive interval for Every")
	}
	return f.schedule(d, d, fn)
}

func (f *Fake) schedule(d, period time.Duration, fn func()) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{
		f:      f,
		due:    f.now.Add(d),
		period: period,
		seq:    f.seq,
		fn:     fn,
	}
	f.timers = append(f.timers, t)
	return t
}

// Cancel removes the timer. Idempotent.
func (t *fakeTimer) Cancel() {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.removeLocked(t)
}

func (f *Fake) removeLocked(t *fakeTimer) {
	for i, other := range f.timers {
		if other == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// nextLocked returns the earliest timer due at or before target.
func (f *Fake) nextLocked(target time.Time) *fakeTimer {
	var next *fakeTimer
	for _, t := range f.timers {
		if t.due.After(target) {
			continue
		}
		if next == nil || t.due.Before(next.due) || (t.due.Equal(next.due) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

// Advance moves the clock forward by d, firing every timer that comes due.
// Callbacks run without the clock lock held, so they may schedule or cancel
// timers; newly scheduled timers that fall inside the window fire too.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		t := f.nextLocked(target)
		if t == nil {
			break
		}
		// Overdue timers (after Jump) fire at the current time.
		if t.due.After(f.now) {
			f.now = t.due
		}
		if t.period > 0 {
			// Missed periods are dropped, like time.Ticker.
			f.seq++
			t.due = t.due.Add(t.period)
			for !t.due.After(f.now) {
				t.due = t.due.Add(t.period)
			}
			t.seq = f.seq
		} else {
			f.removeLocked(t)
		}
		fn := t.fn
		f.mu.Unlock()
		fn()
		f.mu.Lock()
	}
	if target.After(f.now) {
		f.now = target
	}
	f.mu.Unlock()
}

// Suspend simulates a host sleep during which timers are frozen: wall time
// moves forward by d and every pending timer is pushed back by d.
func (f *Fake) Suspend(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	for _, t := range f.timers {
		t.due = t.due.Add(d)
	}
}

// Jump moves wall time forward by d without firing anything. Timers that
// became overdue fire on the next Advance, at the jumped time.
func (f *Fake) Jump(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Pending returns the number of scheduled timers.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}
