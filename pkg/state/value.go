package state

import "sync"

// Value holds a single mutable value and notifies subscribers synchronously
// after each mutation. Reads never observe a half-applied update.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	subs    map[int]func(T)
	nextID  int
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    map[int]func(T){},
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	v.current = next
	listeners := v.snapshotSubs()
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Update applies fn to the current value as one atomic transition.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	v.current = fn(v.current)
	next := v.current
	listeners := v.snapshotSubs()
	v.mu.Unlock()

	for _, listener := range listeners {
		listener(next)
	}
	return next
}

// Subscribe registers fn for future mutations and returns a cancel func.
// Subscribers run synchronously in the mutating goroutine.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

func (v *Value[T]) snapshotSubs() []func(T) {
	listeners := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		listeners = append(listeners, fn)
	}
	return listeners
}
