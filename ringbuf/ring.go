// Package ringbuf implements a fixed-capacity FIFO, used by the index
// pool's free-list and available standalone wherever a bounded queue is
// needed.
//
// The backing store is github.com/eapache/queue's ring-buffer-backed Queue,
// wrapped here behind a generic, capacity-bounded API: eapache/queue grows
// without bound on its own, so Ring enforces the fixed Cap() by rejecting
// Enqueue once Len() == Cap().
package ringbuf

import "github.com/eapache/queue"

// Ring is a fixed-capacity FIFO of T.
type Ring[T any] struct {
	q   *queue.Queue
	cap int
}

// New creates a Ring with the given fixed capacity.
func New[T any](capacity int) *Ring[T] {
	return &Ring[T]{q: queue.New(), cap: capacity}
}

// Enqueue adds item, returns false if the buffer is full.
func (r *Ring[T]) Enqueue(item T) bool {
	if r.q.Length() >= r.cap {
		return false
	}
	r.q.Add(item)
	return true
}

// Dequeue removes and returns the oldest item, false if empty.
func (r *Ring[T]) Dequeue() (T, bool) {
	var zero T
	if r.q.Length() == 0 {
		return zero, false
	}
	v := r.q.Remove()
	item, _ := v.(T)
	return item, true
}

// Len returns the number of items currently buffered.
func (r *Ring[T]) Len() int {
	return r.q.Length()
}

// Cap returns the fixed buffer capacity.
func (r *Ring[T]) Cap() int {
	return r.cap
}
