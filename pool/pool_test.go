package pool

import "testing"

func TestCreateDestroyGet(t *testing.T) {
	p := New[int](4)

	i0, ok := p.Create(10)
	if !ok {
		t.Fatalf("expected create to succeed")
	}
	i1, ok := p.Create(20)
	if !ok {
		t.Fatalf("expected create to succeed")
	}

	if v, ok := p.Get(i0); !ok || *v != 10 {
		t.Fatalf("Get(i0) = %v, %v; want 10, true", v, ok)
	}

	p.Destroy(i0)
	if _, ok := p.Get(i0); ok {
		t.Fatalf("expected slot %d to be free after destroy", i0)
	}
	// Destroying a free slot is a no-op.
	p.Destroy(i0)

	i2, ok := p.Create(30)
	if !ok {
		t.Fatalf("expected create to reuse freed slot")
	}
	if v, ok := p.Get(i1); !ok || *v != 20 {
		t.Fatalf("Get(i1) = %v, %v; want 20, true", v, ok)
	}
	if v, ok := p.Get(i2); !ok || *v != 30 {
		t.Fatalf("Get(i2) = %v, %v; want 30, true", v, ok)
	}
}

func TestOutOfSpace(t *testing.T) {
	p := New[int](2)
	if _, ok := p.Create(1); !ok {
		t.Fatalf("expected create to succeed")
	}
	if _, ok := p.Create(2); !ok {
		t.Fatalf("expected create to succeed")
	}
	if _, ok := p.Create(3); ok {
		t.Fatalf("expected create to fail once pool is full")
	}
}

func TestIterateSkipsFreeSlots(t *testing.T) {
	p := New[int](4)
	a, _ := p.Create(1)
	_, _ = p.Create(2)
	c, _ := p.Create(3)
	p.Destroy(a)

	var seen []Index
	p.Iterate(func(idx Index, item *int) bool {
		seen = append(seen, idx)
		return true
	})
	if len(seen) != 2 {
		t.Fatalf("expected 2 occupied slots after one destroy, got %d (%v)", len(seen), seen)
	}
	for _, idx := range seen {
		if idx == a {
			t.Fatalf("iteration visited freed slot %d", a)
		}
	}
	_ = c
}

func TestLenNeverExceedsCapacity(t *testing.T) {
	p := New[int](3)
	idxs := make([]Index, 0, 3)
	for i := 0; i < 3; i++ {
		idx, ok := p.Create(i)
		if !ok {
			t.Fatalf("create %d failed", i)
		}
		idxs = append(idxs, idx)
		if p.Len() > p.Cap() {
			t.Fatalf("len %d exceeds cap %d", p.Len(), p.Cap())
		}
	}
	for _, idx := range idxs {
		p.Destroy(idx)
		if p.Len() > p.Cap() {
			t.Fatalf("len %d exceeds cap %d", p.Len(), p.Cap())
		}
	}
}
