// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adapter implementing the api.Affinity interface, delegating to internal
// concurrency primitives for CPU and NUMA pinning.

package adapters

import (
	"github.com/momentics/hioload-dispatch/api"
	"github.com/momentics/hioload-dispatch/internal/concurrency"
)

// AffinityAdapter tracks the current binding of the calling thread and
// manages pin/unpin through the platform layer.
type AffinityAdapter struct {
	currentCPU  int
	currentNUMA int
	pinned      bool
	scope       api.AffinityScope
}

var _ api.Affinity = (*AffinityAdapter)(nil)

// NewAffinityAdapter creates an adapter with thread scope and no binding.
func NewAffinityAdapter() *AffinityAdapter {
	return &AffinityAdapter{
		currentCPU:  -1,
		currentNUMA: -1,
		scope:       api.ScopeThread,
	}
}

// Pin binds the calling thread. cpuID -1 selects the preferred CPU of the
// node; numaID -1 detects the current node.
func (a *AffinityAdapter) Pin(cpuID int, numaID int) error {
	if numaID == -1 {
		numaID = concurrency.CurrentNUMANodeID()
	}
	if cpuID == -1 {
		cpuID = concurrency.PreferredCPUID(numaID)
	}
	if err := concurrency.PinCurrentThread(numaID, cpuID); err != nil {
		return err
	}
	a.currentCPU = cpuID
	a.currentNUMA = numaID
	a.pinned = true
	return nil
}

// Unpin clears the binding and lets the OS scheduler migrate freely.
func (a *AffinityAdapter) Unpin() error {
	if err := concurrency.UnpinCurrentThread(); err != nil {
		return err
	}
	a.pinned = false
	a.currentCPU = -1
	a.currentNUMA = -1
	return nil
}

// Get returns the currently effective CPU and NUMA IDs.
func (a *AffinityAdapter) Get() (cpuID int, numaID int, err error) {
	return a.currentCPU, a.currentNUMA, nil
}

// Scope returns the binding scope.
func (a *AffinityAdapter) Scope() api.AffinityScope {
	return a.scope
}

// ImmutableDescriptor returns a snapshot of the current binding state.
func (a *AffinityAdapter) ImmutableDescriptor() api.AffinityDescriptor {
	return api.AffinityDescriptor{
		CPUID:  a.currentCPU,
		NUMAID: a.currentNUMA,
		Scope:  a.scope,
		Pinned: a.pinned,
	}
}
