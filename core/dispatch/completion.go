// File: core/dispatch/completion.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// asyncCompletion is the reusable single-shot future behind
// ExecuteAndWaitAsync. One atomic slot holds the consumer continuation and
// moves through three states: noop (initial), installed, fired. Legal
// transitions are noop->installed and {noop,installed}->fired; an install
// that loses to fire runs the callback inline.

package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-dispatch/api"
)

type continuation struct {
	fn    func(state any)
	state any
}

// Slot sentinels. Their identity, not content, carries the state.
var (
	contNoop  = &continuation{}
	contFired = &continuation{}
)

// asyncCompletion implements api.Completion. It is owned by the dispatcher
// and reset per cycle; no allocation happens on trigger, install, fire, or
// blocking wait.
type asyncCompletion struct {
	pending atomic.Int32
	_       [cacheLinePad - 4]byte
	slot    atomic.Pointer[continuation]
	_       [cacheLinePad - 8]byte

	err error // cycle outcome, written before fire, read after

	// Installed consumer continuation lives inline to avoid allocation.
	user continuation

	// Blocking-wait support: an internal continuation signalling cond.
	waitCont  continuation
	mu        sync.Mutex
	cond      *sync.Cond
	waitDone  bool
	spinLimit int
}

var _ api.Completion = (*asyncCompletion)(nil)

func (c *asyncCompletion) init(spinLimit int) {
	if spinLimit <= 0 {
		spinLimit = defaultWaitSpinLimit
	}
	c.spinLimit = spinLimit
	c.cond = sync.NewCond(&c.mu)
	c.waitCont = continuation{fn: c.signalWaiter}
	c.slot.Store(contNoop)
}

// reset arms the future for a new cycle. Driver-only, ordered before the
// workers by the barrier release.
func (c *asyncCompletion) reset(strands int32) {
	c.err = nil
	c.waitDone = false
	c.slot.Store(contNoop)
	c.pending.Store(strands)
}

// fire publishes the cycle outcome and invokes the installed continuation
// exactly once. Runs on whichever strand finished last.
func (c *asyncCompletion) fire(err error) {
	c.err = err
	prev := c.slot.Swap(contFired)
	if prev != contNoop && prev != contFired && prev.fn != nil {
		prev.fn(prev.state)
	}
}

// IsCompleted reports whether the cycle has finished.
func (c *asyncCompletion) IsCompleted() bool {
	return c.slot.Load() == contFired
}

// Err returns the cycle outcome after completion; nil before it.
func (c *asyncCompletion) Err() error {
	if !c.IsCompleted() {
		return nil
	}
	return c.err
}

// OnCompleted installs the consumer continuation. If the cycle already
// fired, fn runs inline on the calling thread.
func (c *asyncCompletion) OnCompleted(fn func(state any), state any) {
	c.user = continuation{fn: fn, state: state}
	if c.slot.CompareAndSwap(contNoop, &c.user) {
		return
	}
	// Lost to fire: the outcome is published, run inline.
	fn(state)
}

// Wait blocks until the cycle finishes and returns its aggregated failure.
func (c *asyncCompletion) Wait() error {
	for i := 0; i < c.spinLimit; i++ {
		if c.IsCompleted() {
			return c.err
		}
		spinOnce(i)
	}

	if !c.slot.CompareAndSwap(contNoop, &c.waitCont) {
		// Already fired, or a consumer callback occupies the slot.
		for i := 0; !c.IsCompleted(); i++ {
			spinOnce(i)
		}
		return c.err
	}
	c.mu.Lock()
	for !c.waitDone {
		c.cond.Wait()
	}
	c.mu.Unlock()
	return c.err
}

func (c *asyncCompletion) signalWaiter(_ any) {
	c.mu.Lock()
	c.waitDone = true
	c.cond.Broadcast()
	c.mu.Unlock()
}
