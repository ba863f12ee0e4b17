// File: core/dispatch/cursor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free steal cursor over a closed sentinel ring. Multiple claimers
// CAS the cursor forward; the ring never contains nil links, so the claim
// loop needs no nil checks.

package dispatch

import "sync/atomic"

// ringNode constrains the cursor to pointer node types exposing their
// successor link.
type ringNode[N any] interface {
	*N
	nextNode() *N
}

// stealCursor is an atomic pointer into the work ring.
//
// position is driver-only and happens before the cycle's barrier release;
// takeNext races freely between all workers and the caller.
type stealCursor[N any, P ringNode[N]] struct {
	ptr atomic.Pointer[N]
	_   [cacheLinePad - 8]byte
}

// position points the cursor at the first stealable node of a cycle.
func (c *stealCursor[N, P]) position(n *N) {
	c.ptr.Store(n)
}

// takeNext claims the current node by advancing the cursor to its
// successor. Once the cursor reaches the sentinel it keeps returning the
// sentinel: during a cycle the sentinel links to itself.
func (c *stealCursor[N, P]) takeNext() *N {
	for {
		n := c.ptr.Load()
		if c.ptr.CompareAndSwap(n, P(n).nextNode()) {
			return n
		}
	}
}
