package approval

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrWaiterStopped is returned by Wait after Stop.
var ErrWaiterStopped = errors.New("waiter stopped")

// Hub matches out-of-band events back to the request that expects them.
// Register with Expect before submitting so an early event is not lost.
type Hub[T any] struct {
	mu      sync.Mutex
	waiters map[string]map[*Waiter[T]]struct{}
}

// NewHub returns an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{waiters: make(map[string]map[*Waiter[T]]struct{})}
}

// Waiter receives the first event published for its key.
type Waiter[T any] struct {
	hub    *Hub[T]
	key    string
	result chan T
	done   chan struct{}
	once   sync.Once
}

// Expect registers a waiter for key.
func (h *Hub[T]) Expect(key string) *Waiter[T] {
	w := &Waiter[T]{
		hub:    h,
		key:    key,
		result: make(chan T, 1),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.waiters[key]
	if !ok {
		set = make(map[*Waiter[T]]struct{})
		h.waiters[key] = set
	}
	set[w] = struct{}{}
	return w
}

// Publish hands v to every waiter registered for key and returns how many
// received it. Each waiter receives at most one event.
func (h *Hub[T]) Publish(key string, v T) int {
	h.mu.Lock()
	set := h.waiters[key]
	delete(h.waiters, key)
	h.mu.Unlock()

	for w := range set {
		w.result <- v
	}
	return len(set)
}

// Pending returns the number of waiters registered for key.
func (h *Hub[T]) Pending(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiters[key])
}

func (h *Hub[T]) remove(w *Waiter[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.waiters[w.key]
	if !ok {
		return
	}
	delete(set, w)
	if len(set) == 0 {
		delete(h.waiters, w.key)
	}
}

// Wait blocks until the event arrives, ctx is done or the waiter is stopped.
func (w *Waiter[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-w.result:
		return v, nil
	case <-w.done:
		return zero, ErrWaiterStopped
	case <-ctx.Done():
		w.Stop()
		return zero, errors.Wrapf(ctx.Err(), "waiting for %s", w.key)
	}
}

// Stop deregisters the waiter.
func (w *Waiter[T]) Stop() {
	w.once.Do(func() {
		w.hub.remove(w)
		close(w.done)
	})
}
