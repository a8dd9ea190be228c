// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// INBOX
// =============================================================================

// inbox is an unbounded FIFO of messages produced outside the Bubble Tea
// loop. Bus handlers run on whatever goroutine flushed the bus, which is
// often Update itself, so they must never block; push only appends.
// A single listen command drains it, one message per command, which keeps
// delivery in push order.
type inbox struct {
	mu     sync.Mutex
	items  []tea.Msg
	ready  chan struct{}
	closed bool
}

func newInbox() *inbox {
	return &inbox{ready: make(chan struct{}, 1)}
}

// push appends msg. Pushing to a closed inbox drops msg.
func (q *inbox) push(msg tea.Msg) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// next blocks until a message is available and removes it. After close it
// returns nil.
func (q *inbox) next() tea.Msg {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil
		}
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg
		}
		q.mu.Unlock()
		<-q.ready
	}
}

// len reports the number of queued messages.
func (q *inbox) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close wakes any waiting next and discards what is queued.
func (q *inbox) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}
