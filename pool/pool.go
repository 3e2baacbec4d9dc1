// Package pool implements a fixed-capacity index pool: a slab
// holding up to N items with stable small-integer indices and O(1)
// allocate/free via a free-list ring buffer, grounded on the teacher's
// api/pool.go (BytePool/ObjectPool contracts) and api/ring.go ("used by the
// pool's free-list").
package pool

import "github.com/arcway-io/slotconn/ringbuf"

// Index is the stable small-integer handle type for pool slots.
type Index = uint32

// Pool is a fixed-capacity slab of T. Its free-list is a FIFO ring: New
// seeds it from size-1 down to 0, so fresh indices are handed out highest
// first, and a destroyed index is appended to the back and reused only
// after every index already free. Reuse is not LIFO.
type Pool[T any] struct {
	items    []T
	occupied []bool
	free     *ringbuf.Ring[Index]
}

// New constructs a Pool with the given fixed capacity. The free-list is
// seeded with 0..size-1 at init.
func New[T any](size int) *Pool[T] {
	p := &Pool[T]{
		items:    make([]T, size),
		occupied: make([]bool, size),
		free:     ringbuf.New[Index](size),
	}
	for i := size - 1; i >= 0; i-- {
		p.free.Enqueue(Index(i))
	}
	return p
}

// Cap returns the pool's fixed capacity.
func (p *Pool[T]) Cap() int {
	return len(p.items)
}

// Create allocates a slot for item, returning its stable index, or
// reports out-of-space via ok=false.
func (p *Pool[T]) Create(item T) (Index, bool) {
	idx, ok := p.free.Dequeue()
	if !ok {
		var zero Index
		return zero, false
	}
	p.items[idx] = item
	p.occupied[idx] = true
	return idx, true
}

// Destroy frees the slot at idx. Idempotent for already-free slots.
func (p *Pool[T]) Destroy(idx Index) {
	if int(idx) >= len(p.items) || !p.occupied[idx] {
		return
	}
	var zero T
	p.items[idx] = zero
	p.occupied[idx] = false
	p.free.Enqueue(idx)
}

// Get returns a pointer to the item at idx, or nil if the slot is free or
// out of range.
func (p *Pool[T]) Get(idx Index) (*T, bool) {
	if int(idx) >= len(p.items) || !p.occupied[idx] {
		return nil, false
	}
	return &p.items[idx], true
}

// Iterate calls fn for every occupied (index, &item) pair in ascending
// index order. fn returning false stops iteration early.
func (p *Pool[T]) Iterate(fn func(idx Index, item *T) bool) {
	for i := range p.items {
		if !p.occupied[i] {
			continue
		}
		if !fn(Index(i), &p.items[i]) {
			return
		}
	}
}

// Len returns the number of currently occupied slots.
func (p *Pool[T]) Len() int {
	n := 0
	for _, occ := range p.occupied {
		if occ {
			n++
		}
	}
	return n
}
