// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lifecycle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "warningShown", WarningShown.String())
	assert.Equal(t, "countdownTick", CountdownTick.String())
	assert.Equal(t, "sessionExtended", SessionExtended.String())
	assert.Equal(t, "sessionExpired", SessionExpired.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestBus_DeliversInOrderToAllSubscribers(t *testing.T) {
	b := NewBus()
	var a, c []Kind
	b.Subscribe(func(ev Event) { a = append(a, ev.Kind) })
	b.Subscribe(func(ev Event) { c = append(c, ev.Kind) })

	b.Enqueue(Event{Kind: WarningShown, SecondsRemaining: 3})
	b.Enqueue(Event{Kind: CountdownTick, SecondsRemaining: 2})
	assert.Empty(t, a, "nothing is delivered before Flush")

	b.Flush()
	b.Publish(Event{Kind: SessionExtended})

	want := []Kind{WarningShown, CountdownTick, SessionExtended}
	assert.Equal(t, want, a)
	assert.Equal(t, want, c)
	assert.Zero(t, b.Pending())
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus()
	count := 0
	unsub := b.Subscribe(func(Event) { count++ })

	b.Publish(Event{Kind: CountdownTick})
	unsub()
	unsub()
	b.Publish(Event{Kind: CountdownTick})

	assert.Equal(t, 1, count)
}

func TestBus_ReentrantPublishKeepsOrder(t *testing.T) {
	b := NewBus()
	var got []Kind
	b.Subscribe(func(ev Event) {
		got = append(got, ev.Kind)
		if ev.Kind == WarningShown {
			// Published from inside a handler: delivered after the current
			// event, by the outer Flush.
			b.Publish(Event{Kind: SessionExtended})
			assert.Equal(t, []Kind{WarningShown}, got)
		}
	})

	b.Enqueue(Event{Kind: WarningShown})
	b.Enqueue(Event{Kind: CountdownTick})
	b.Flush()

	assert.Equal(t, []Kind{WarningShown, CountdownTick, SessionExtended}, got)
}

func TestBus_Discard(t *testing.T) {
	b := NewBus()
	var got []Event
	b.Subscribe(func(ev Event) { got = append(got, ev) })

	b.Enqueue(Event{Kind: WarningShown, Episode: "old"})
	b.Enqueue(Event{Kind: CountdownTick, Episode: "old"})
	b.Enqueue(Event{Kind: WarningShown, Episode: "new"})
	b.Discard("old")
	b.Flush()

	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Episode)
}

func TestBus_DiscardDuringDelivery(t *testing.T) {
	b := NewBus()
	var first, second []Event
	b.Subscribe(func(ev Event) {
		first = append(first, ev)
		if ev.Kind == SessionExpired {
			// A logout racing the deliverer lands between two handlers.
			b.Discard(ev.Episode)
		}
	})
	b.Subscribe(func(ev Event) { second = append(second, ev) })

	b.Enqueue(Event{Kind: SessionExpired, Episode: "old"})
	b.Enqueue(Event{Kind: CountdownTick, Episode: "old"})
	b.Enqueue(Event{Kind: WarningShown, Episode: "new"})
	b.Flush()

	require.Len(t, first, 2)
	assert.Equal(t, "new", first[1].Episode)
	require.Len(t, second, 1)
	assert.Equal(t, "new", second[0].Episode)

	b.Publish(Event{Kind: CountdownTick, Episode: "old"})
	assert.Len(t, first, 2, "a discarded episode stays discarded")
}

func TestBus_PanickingHandlerDoesNotWedge(t *testing.T) {
	b := NewBus()
	calls := 0
	b.Subscribe(func(ev Event) {
		calls++
		if ev.Kind == WarningShown {
			panic("boom")
		}
	})

	assert.Panics(t, func() { b.Publish(Event{Kind: WarningShown}) })
	b.Publish(Event{Kind: CountdownTick})
	assert.Equal(t, 2, calls)
}

func TestBus_ConcurrentPublish(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	total := 0
	b.Subscribe(func(Event) {
		mu.Lock()
		total++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(Event{Kind: CountdownTick})
		}()
	}
	wg.Wait()
	b.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 50, total)
}
