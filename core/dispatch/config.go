// File: core/dispatch/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Construction-time tuning for both dispatcher variants.

package dispatch

import "runtime"

// Config holds parameters immutable for the dispatcher's lifetime.
type Config struct {
	// MaxConcurrency is the worker budget including the caller thread.
	// -1 selects the logical CPU count; otherwise must be >= 1.
	MaxConcurrency int

	// NUMANode is passed to the affinity layer when PinWorkers is set;
	// -1 means no node. Each worker is pinned to one CPU chosen by its
	// index modulo the CPU count, so the node does not change which CPU
	// a worker runs on.
	NUMANode int

	// PinWorkers locks each worker goroutine to an OS thread and pins it
	// through the affinity layer.
	PinWorkers bool

	// GateSpinLimit bounds spinning at the worker rendezvous.
	GateSpinLimit int

	// WaitSpinLimit bounds the driver's completion spin.
	WaitSpinLimit int
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: -1,
		NUMANode:       -1,
		PinWorkers:     false,
		GateSpinLimit:  defaultGateSpinLimit,
		WaitSpinLimit:  defaultWaitSpinLimit,
	}
}

// effectiveConcurrency validates and resolves the worker budget.
// -1 maps to the logical CPU count; requests above it are honoured as
// given, so callers control oversubscription explicitly.
func effectiveConcurrency(requested int) (int, error) {
	if requested == -1 {
		return runtime.NumCPU(), nil
	}
	if requested < 1 {
		return 0, errInvalidConcurrency(requested)
	}
	return requested, nil
}
