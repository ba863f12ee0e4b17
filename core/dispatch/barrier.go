// File: core/dispatch/barrier.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BarrierGate is a reusable N-party rendezvous. Workers park on it between
// trigger cycles; the driver entering the gate trips the current generation
// and releases everyone. Released parties spin briefly on the generation
// counter before escalating to a condition wait.

package dispatch

import (
	"sync"
	"sync/atomic"
)

// BarrierGate synchronises a fixed party of threads at a common point and
// resets itself for the next generation.
//
// The participant count starts at 1 (the driver). AddParticipant and
// RemoveParticipant are driver-only; parked participants may be waiting
// while the count grows, which can never trip the generation because the
// driver is the party that would complete it.
type BarrierGate struct {
	generation atomic.Uint64
	_          [cacheLinePad - 8]byte

	mu           sync.Mutex
	cond         *sync.Cond
	participants int
	arrived      int
	spinLimit    int
}

// NewBarrierGate creates a gate with one registered participant.
func NewBarrierGate(spinLimit int) *BarrierGate {
	if spinLimit <= 0 {
		spinLimit = defaultGateSpinLimit
	}
	g := &BarrierGate{participants: 1, spinLimit: spinLimit}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// AddParticipant registers one more party for subsequent generations.
func (g *BarrierGate) AddParticipant() {
	g.mu.Lock()
	g.participants++
	g.mu.Unlock()
}

// RemoveParticipant deregisters one party.
func (g *BarrierGate) RemoveParticipant() {
	g.mu.Lock()
	if g.participants > 1 {
		g.participants--
		if g.arrived == g.participants {
			g.trip()
		}
	}
	g.mu.Unlock()
}

// Participants returns the registered party count.
func (g *BarrierGate) Participants() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.participants
}

// SignalAndWait enters the gate and blocks until every registered
// participant has entered. The last arrival trips the generation and
// releases all parties.
func (g *BarrierGate) SignalAndWait() {
	g.mu.Lock()
	gen := g.generation.Load()
	g.arrived++
	if g.arrived == g.participants {
		g.trip()
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	for i := 0; i < g.spinLimit; i++ {
		if g.generation.Load() != gen {
			return
		}
		spinOnce(i)
	}

	g.mu.Lock()
	for g.generation.Load() == gen {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// trip advances the generation and wakes blocked parties. Caller holds mu.
func (g *BarrierGate) trip() {
	g.arrived = 0
	g.generation.Add(1)
	g.cond.Broadcast()
}
