package redis

import "testing"

func newTestClient() *Client {
	return NewClient("127.0.0.1:0", 0, 0)
}

func TestPoolThreadSpecificReuse(t *testing.T) {
	n := 0
	factory := func() *Client {
		n++
		return newTestClient()
	}
	p := NewPool(factory, 4)

	a := p.Get(ThreadSpecific)
	b := p.Get(ThreadSpecific)
	if a != b {
		t.Fatal("repeated ThreadSpecific Get on the same goroutine should return the same Client")
	}
	if n != 1 {
		t.Fatalf("factory called %d times, want 1", n)
	}

	p.Release(a)
	c := p.Get(ThreadSpecific)
	if c != a {
		t.Fatal("Get after Release should reuse the freed Client from the free list")
	}
}

func TestPoolNotThreadSpecificIgnoresBorrowRegistry(t *testing.T) {
	n := 0
	factory := func() *Client {
		n++
		return newTestClient()
	}
	p := NewPool(factory, 4)

	held := p.Get(ThreadSpecific)
	other := p.Get(NotThreadSpecific)
	if other == held {
		t.Fatal("NotThreadSpecific borrow should not reuse the thread-specific slot while it's held")
	}
	if n != 2 {
		t.Fatalf("factory called %d times, want 2", n)
	}
}

func TestPoolBoundsFreeList(t *testing.T) {
	p := NewPool(newTestClient, 1)

	a := p.Get(NotThreadSpecific)
	b := p.Get(NotThreadSpecific)
	p.Release(a)
	p.Release(b) // free list already holds 1 (== maxFree); this one is closed, not queued

	if len(p.free) != 1 {
		t.Fatalf("free list has %d entries, want 1", len(p.free))
	}
}
