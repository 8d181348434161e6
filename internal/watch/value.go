// Package watch implements a small last-value-cached observable used to
// expose sync state to presentation layers. The core only produces
// values; it does not know who consumes them.
package watch

import "sync"

// Value is a broadcast observable holding one current value. Every
// subscriber owns a buffered channel of capacity one; when a subscriber
// lags, intermediate values are coalesced so Set never blocks.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	nextID  int
	subs    map[int]chan T
}

// NewValue constructs a Value seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[int]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set stores val and notifies every subscriber. A subscriber that has
// not drained its channel sees only the newest value.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = val
	for _, ch := range v.subs {
		select {
		case <-ch:
		default:
		}
		ch <- val
	}
}

// Subscribe registers a new observer. The returned channel immediately
// carries the current value, so late subscribers never miss state.
// The cancel function removes the subscription; it is safe to call more
// than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++

	ch := make(chan T, 1)
	ch <- v.current
	v.subs[id] = ch

	cancel := func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
	return ch, cancel
}
