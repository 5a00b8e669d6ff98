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

// Package ringbuffer provides a fixed-size, thread-safe history of recent
// items. Once full, each Add replaces the oldest item.
//
// Example usage:
//
//	recent := ringbuffer.New[TemplateRendered](200)
//	recent.Add(ev)
//	last := recent.Last(20) // oldest first
package ringbuffer

import "sync"

// RingBuffer keeps the most recent items up to a fixed capacity.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int  // slot written by the next Add
	full  bool // every slot holds an item
}

// New creates a ring buffer holding up to size items. A size below one is
// treated as one.
func New[T any](size int) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}
	return &RingBuffer[T]{items: make([]T, size)}
}

// Add stores item, replacing the oldest item when the buffer is full.
func (rb *RingBuffer[T]) Add(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.items[rb.next] = item
	rb.next++
	if rb.next == len(rb.items) {
		rb.next = 0
		rb.full = true
	}
}

// Last returns up to n of the most recent items, oldest first.
func (rb *RingBuffer[T]) Last(n int) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	ordered := rb.ordered()
	if n < len(ordered) {
		ordered = ordered[len(ordered)-max(n, 0):]
	}
	return ordered
}

// All returns every stored item, oldest first.
func (rb *RingBuffer[T]) All() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.ordered()
}

// Filter returns the stored items for which keep reports true, oldest
// first.
func (rb *RingBuffer[T]) Filter(keep func(T) bool) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	out := []T{}
	for _, item := range rb.ordered() {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of stored items.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.full {
		return len(rb.items)
	}
	return rb.next
}

// Cap returns the capacity given to New.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.items)
}

// ordered copies the items oldest first. Callers hold rb.mu.
func (rb *RingBuffer[T]) ordered() []T {
	if !rb.full {
		out := make([]T, rb.next)
		copy(out, rb.items[:rb.next])
		return out
	}
	out := make([]T, 0, len(rb.items))
	out = append(out, rb.items[rb.next:]...)
	return append(out, rb.items[:rb.next]...)
}
