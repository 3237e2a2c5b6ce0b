package events

import "sync"

// Topic is a synchronous publish/subscribe channel for values of type T.
type Topic[T any] struct {
	mu       sync.RWMutex
	next     uint64
	handlers map[uint64]func(T)
	order    []uint64
}

// NewTopic creates an empty topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{handlers: make(map[uint64]func(T))}
}

// Subscribe registers fn and returns a function that removes it again.
// The returned function is safe to call more than once.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.next
	t.next++
	t.handlers[id] = fn
	t.order = append(t.order, id)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(id) })
	}
}

func (t *Topic[T]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Publish calls every registered handler with v before returning.
// Handlers may subscribe or unsubscribe without deadlocking; such changes
// apply to the next Publish.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	fns := make([]func(T), 0, len(t.order))
	for _, id := range t.order {
		fns = append(fns, t.handlers[id])
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Count returns the number of registered handlers.
func (t *Topic[T]) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}
