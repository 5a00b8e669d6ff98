// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package events provides an in-process event bus for render
// instrumentation.
//
// Publishing never blocks. A subscriber whose buffer is full misses the
// event and the miss is counted, so a slow log writer cannot stall a
// render.
package events

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Event is the base interface for all events published on a Bus.
type Event interface {
	// EventType returns a unique identifier for this event type.
	// Convention: dot-notation like "render.template" or "render.completed".
	EventType() string

	// Timestamp returns when this event occurred.
	Timestamp() time.Time
}

// Bus fans events out to subscribers.
//
// Events published before Start are held, up to the capacity given to
// NewBus, and delivered in order when Start is called. This lets
// subscribers attach after the publishers are built without losing the
// first events.
type Bus struct {
	mu          sync.RWMutex
	subscribers []subscription
	started     bool
	pending     []Event
	capacity    int
	dropped     atomic.Uint64
}

type subscription struct {
	ch    chan Event
	types []string
}

func (s subscription) wants(event Event) bool {
	return len(s.types) == 0 || slices.Contains(s.types, event.EventType())
}

// NewBus creates a bus holding at most capacity events before Start.
func NewBus(capacity int) *Bus {
	return &Bus{
		pending:  make([]Event, 0, capacity),
		capacity: capacity,
	}
}

// Subscribe returns a channel receiving published events. With types
// given, only events of those types are delivered. The channel is never
// closed.
func (b *Bus) Subscribe(bufferSize int, types ...string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	b.subscribers = append(b.subscribers, subscription{ch: ch, types: types})
	return ch
}

// Publish delivers event to every interested subscriber and returns how
// many received it. Before Start the event is held instead and Publish
// returns 0.
func (b *Bus) Publish(event Event) int {
	b.mu.RLock()
	if b.started {
		defer b.mu.RUnlock()
		return b.deliver(event)
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return b.deliver(event)
	}
	if len(b.pending) < b.capacity {
		b.pending = append(b.pending, event)
	} else {
		b.dropped.Add(1)
	}
	return 0
}

// Start delivers held events in publish order and switches to direct
// delivery. Calling Start again has no effect.
func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return
	}
	b.started = true
	for _, event := range b.pending {
		b.deliver(event)
	}
	b.pending = nil
}

// Dropped returns how many deliveries were skipped because a subscriber
// buffer or the pre-start buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// deliver must be called with b.mu held.
func (b *Bus) deliver(event Event) int {
	sent := 0
	for _, sub := range b.subscribers {
		if !sub.wants(event) {
			continue
		}
		select {
		case sub.ch <- event:
			sent++
		default:
			b.dropped.Add(1)
		}
	}
	return sent
}
