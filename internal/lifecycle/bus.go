// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lifecycle

import "sync"

// =============================================================================
// EVENT BUS
// =============================================================================

// Bus delivers events to subscribers in the order they were enqueued.
//
// Producers Enqueue while holding their own lock, so queue order is causal
// order, and call Flush after releasing it. Only one goroutine delivers at a
// time; a Flush that finds delivery in progress returns immediately and the
// active deliverer picks up the new events. This lets handlers re-enter the
// producer without deadlocking.
//
// Once an episode is discarded none of its events reach a handler, even one
// the deliverer dequeued before Discard ran. A handler call already running
// when Discard returns is not interrupted.
type Bus struct {
	mu        sync.Mutex
	handlers  []subscription
	nextID    int
	queue     []Event
	draining  bool
	discarded []string // most recent first, at most maxDiscarded
}

// maxDiscarded bounds the remembered discarded episodes. Only an event in
// the middle of delivery needs the record, so a handful is plenty.
const maxDiscarded = 16

type subscription struct {
	id int
	fn Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.handlers {
				if s.id == id {
					b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// Enqueue appends ev for delivery on the next Flush.
func (b *Bus) Enqueue(ev Event) {
	b.mu.Lock()
	b.queue = append(b.queue, ev)
	b.mu.Unlock()
}

// Publish enqueues ev and flushes.
func (b *Bus) Publish(ev Event) {
	b.Enqueue(ev)
	b.Flush()
}

// Discard drops undelivered events belonging to episode.
func (b *Bus) Discard(episode string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if episode != "" && !b.discardedLocked(episode) {
		b.discarded = append([]string{episode}, b.discarded...)
		if len(b.discarded) > maxDiscarded {
			b.discarded = b.discarded[:maxDiscarded]
		}
	}
	kept := b.queue[:0]
	for _, ev := range b.queue {
		if ev.Episode != episode {
			kept = append(kept, ev)
		}
	}
	b.queue = kept
}

// Flush delivers queued events until the queue is empty.
func (b *Bus) Flush() {
	b.mu.Lock()
	if b.draining {
		b.mu.Unlock()
		return
	}
	b.draining = true

	// A panicking handler must not wedge the bus.
	finished := false
	defer func() {
		if !finished {
			b.mu.Lock()
			b.draining = false
			b.mu.Unlock()
		}
	}()

	for {
		if len(b.queue) == 0 {
			b.draining = false
			finished = true
			b.mu.Unlock()
			return
		}
		ev := b.queue[0]
		b.queue = b.queue[1:]
		handlers := make([]subscription, len(b.handlers))
		copy(handlers, b.handlers)
		b.mu.Unlock()

		for _, s := range handlers {
			if b.stale(ev) {
				break
			}
			s.fn(ev)
		}

		b.mu.Lock()
	}
}

func (b *Bus) stale(ev Event) bool {
	if ev.Episode == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.discardedLocked(ev.Episode)
}

func (b *Bus) discardedLocked(episode string) bool {
	for _, e := range b.discarded {
		if e == episode {
			return true
		}
	}
	return false
}

// Pending returns the number of undelivered events.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
