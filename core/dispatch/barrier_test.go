// File: core/dispatch/barrier_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestBarrierGateSingleParticipant(t *testing.T) {
	g := NewBarrierGate(0)
	if got := g.Participants(); got != 1 {
		t.Fatalf("participants = %d, want 1", got)
	}
	// With a single registered party the gate trips immediately.
	for i := 0; i < 10; i++ {
		g.SignalAndWait()
	}
}

func TestBarrierGateRendezvous(t *testing.T) {
	const cycles = 200
	g := NewBarrierGate(64)
	g.AddParticipant()

	var counter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < cycles; i++ {
			counter.Add(1)
			g.SignalAndWait()
		}
	}()

	for i := int64(1); i <= cycles; i++ {
		g.SignalAndWait()
		// The peer incremented before arriving; it may already have
		// incremented once more for the next generation, never twice.
		if c := counter.Load(); c < i || c > i+1 {
			t.Fatalf("generation %d: counter = %d", i, c)
		}
	}
	wg.Wait()
}

func TestBarrierGateManyParties(t *testing.T) {
	const parties = 8
	const cycles = 100
	g := NewBarrierGate(64)
	for i := 0; i < parties-1; i++ {
		g.AddParticipant()
	}

	var counter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(parties - 1)
	for p := 0; p < parties-1; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < cycles; i++ {
				counter.Add(1)
				g.SignalAndWait()
			}
		}()
	}

	for i := 0; i < cycles; i++ {
		g.SignalAndWait()
	}
	wg.Wait()
	if got, want := counter.Load(), int64((parties-1)*cycles); got != want {
		t.Fatalf("counter = %d, want %d", got, want)
	}
}

func TestBarrierGateRemoveParticipant(t *testing.T) {
	g := NewBarrierGate(0)
	g.AddParticipant()
	g.AddParticipant()
	if got := g.Participants(); got != 3 {
		t.Fatalf("participants = %d, want 3", got)
	}
	g.RemoveParticipant()
	g.RemoveParticipant()
	if got := g.Participants(); got != 1 {
		t.Fatalf("participants = %d, want 1", got)
	}
	// Never drops below the driver itself.
	g.RemoveParticipant()
	if got := g.Participants(); got != 1 {
		t.Fatalf("participants = %d, want 1", got)
	}
	g.SignalAndWait()
}
