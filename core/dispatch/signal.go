// File: core/dispatch/signal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// completionSignal tracks outstanding execution strands of one cycle for
// the synchronous dispatcher. The driver counts as a strand; the last
// decrement releases the driver's wait.

package dispatch

import (
	"sync"
	"sync/atomic"
)

// completionSignal is a decrementing strand counter with an escalating
// wake-up: the driver spins on the counter first and only then arms the
// condition variable. Workers touch the mutex only when they are the final
// decrement and the driver has armed it.
type completionSignal struct {
	pending atomic.Int32
	waiting atomic.Bool
	_       [cacheLinePad - 5]byte

	mu        sync.Mutex
	cond      *sync.Cond
	done      bool
	spinLimit int
}

func newCompletionSignal(spinLimit int) *completionSignal {
	if spinLimit <= 0 {
		spinLimit = defaultWaitSpinLimit
	}
	s := &completionSignal{spinLimit: spinLimit}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// reset arms the signal for a cycle with the given strand count.
// Driver-only; ordered before workers by the barrier release.
func (s *completionSignal) reset(strands int32) {
	s.pending.Store(strands)
}

// strandDone reports one finished strand. Returns true for the final one.
func (s *completionSignal) strandDone() bool {
	if s.pending.Add(-1) != 0 {
		return false
	}
	if s.waiting.Load() {
		s.mu.Lock()
		// The driver clears waiting under mu before leaving wait; a
		// stale true here must not mark a finished driver's next cycle.
		if s.waiting.Load() {
			s.done = true
			s.cond.Broadcast()
		}
		s.mu.Unlock()
	}
	return true
}

// wait blocks the driver until every strand of the cycle has finished.
func (s *completionSignal) wait() {
	for i := 0; i < s.spinLimit; i++ {
		if s.pending.Load() == 0 {
			return
		}
		spinOnce(i)
	}

	s.mu.Lock()
	s.waiting.Store(true)
	if s.pending.Load() != 0 {
		for !s.done {
			s.cond.Wait()
		}
	}
	s.done = false
	s.waiting.Store(false)
	s.mu.Unlock()
}
