package chain

import (
	"sync"
)

// Handle gives background workers access to a chain they do not own.
//
// A worker calls Upgrade to lease the chain and the returned release func
// when done with it. The owner calls Invalidate on teardown; from then on
// Upgrade fails, and Invalidate itself returns only after every outstanding
// lease has been released, so the chain is never torn down mid-import.
type Handle struct {
	mtx    sync.Mutex
	chain  Chain
	alive  bool
	leases sync.WaitGroup
}

// NewHandle returns a live handle to c.
func NewHandle(c Chain) *Handle {
	return &Handle{chain: c, alive: true}
}

// Upgrade leases the chain. ok is false once the handle has been
// invalidated, in which case the chain must not be used and release is a
// no-op.
func (h *Handle) Upgrade() (c Chain, release func(), ok bool) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	if !h.alive {
		return nil, func() {}, false
	}
	h.leases.Add(1)
	var once sync.Once
	return h.chain, func() { once.Do(h.leases.Done) }, true
}

// Alive reports whether the handle has not been invalidated.
func (h *Handle) Alive() bool {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.alive
}

// Invalidate marks the chain as gone and waits for outstanding leases.
// It is safe to call more than once.
func (h *Handle) Invalidate() {
	h.mtx.Lock()
	h.alive = false
	h.chain = nil
	h.mtx.Unlock()

	h.leases.Wait()
}
