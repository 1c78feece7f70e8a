package redis

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Scope selects whether Get should favor the calling goroutine's last
// borrow (ThreadSpecific) or always pull from the shared free list
// (NotThreadSpecific).
type Scope int

const (
	ThreadSpecific Scope = iota
	NotThreadSpecific
)

// Pool is a bounded free-list of Clients for one backend, plus a
// goroutine-scoped borrow registry that approximates thread-specific
// storage: a goroutine that calls Get(ThreadSpecific) repeatedly without an
// intervening Release gets back the same Client it borrowed last time,
// without touching the free list at all.
//
// Go has no native thread-local storage and no destructor hook tied to a
// goroutine's exit, unlike the pthread/boost::thread_specific_ptr this
// design is modeled on. The per-goroutine slot is approximated here by
// keying a map on the calling goroutine's id, recovered from its own stack
// trace header. Callers MUST pair every Get with a deferred Release: there
// is no automatic reclaim on goroutine exit. See DESIGN.md for why this
// divergence was necessary and how far it is scoped.
type Pool struct {
	mu       sync.Mutex
	factory  func() *Client
	free     []*Client
	maxFree  int
	borrowed map[int64]*Client
}

// NewPool builds a pool around factory, which must return a fresh, unshared
// Client on each call. maxFree bounds how many idle Clients the free list
// holds; Clients released beyond that bound are closed instead of kept.
func NewPool(factory func() *Client, maxFree int) *Pool {
	if maxFree <= 0 {
		maxFree = 1
	}
	return &Pool{
		factory:  factory,
		maxFree:  maxFree,
		borrowed: make(map[int64]*Client),
	}
}

// Get borrows a Client, dialing a new one via factory if the free list is
// empty. Every successful Get must be paired with a Release.
func (p *Pool) Get(scope Scope) *Client {
	if scope == ThreadSpecific {
		gid := goroutineID()
		p.mu.Lock()
		cl, ok := p.borrowed[gid]
		p.mu.Unlock()
		if ok {
			return cl
		}
	}

	p.mu.Lock()
	var cl *Client
	if n := len(p.free); n > 0 {
		cl = p.free[n-1]
		p.free = p.free[:n-1]
	}
	p.mu.Unlock()

	if cl == nil {
		cl = p.factory()
	}

	if scope == ThreadSpecific {
		gid := goroutineID()
		p.mu.Lock()
		p.borrowed[gid] = cl
		p.mu.Unlock()
	}
	return cl
}

// Release returns cl to the pool. For a ThreadSpecific borrow, Release
// clears this goroutine's slot so a future Get goes through the free list
// (or the factory) instead; the Client itself goes back on the free list
// for anyone to reuse, so that next Get may hand back this same Client.
func (p *Pool) Release(cl *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	gid := goroutineID()
	if borrowed, ok := p.borrowed[gid]; ok && borrowed == cl {
		delete(p.borrowed, gid)
	}

	if len(p.free) >= p.maxFree {
		cl.Close()
		return
	}
	p.free = append(p.free, cl)
}

// Close closes every Client still sitting on the free list. Clients
// currently borrowed remain the caller's responsibility.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for _, cl := range p.free {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	p.free = nil
	return first
}

// goroutineID recovers the calling goroutine's id from its own stack trace
// header ("goroutine 123 [running]: ..."), the usual workaround for Go's
// lack of a public runtime.Goid. It is slow relative to a real TLS read
// and is used on the ThreadSpecific borrow path and by every Release.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
