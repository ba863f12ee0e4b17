// File: adapters/harness_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Harness adapters expose the setup / steady-state / cleanup lifecycle an
// external micro-benchmark driver expects: configure once, invoke in a
// tight timing loop, tear down. Invoke is the only operation on the
// measured path and adds nothing beyond the dispatcher trigger itself.

package adapters

import (
	"github.com/momentics/hioload-dispatch/api"
	"github.com/momentics/hioload-dispatch/core/dispatch"
)

// SyncHarness drives a SyncDispatcher through the harness lifecycle.
type SyncHarness struct {
	d *dispatch.SyncDispatcher
}

// NewSyncHarness constructs the harness with the given worker budget.
func NewSyncHarness(maxConcurrency int) (*SyncHarness, error) {
	d, err := dispatch.NewSyncDispatcher(maxConcurrency)
	if err != nil {
		return nil, err
	}
	return &SyncHarness{d: d}, nil
}

// Setup registers the benchmark actions.
func (h *SyncHarness) Setup(actions ...api.Action) error {
	for _, a := range actions {
		if err := h.d.Add(a); err != nil {
			return err
		}
	}
	return nil
}

// Invoke performs one timed trigger.
func (h *SyncHarness) Invoke() error {
	return h.d.ExecuteAndWait()
}

// Cleanup disposes the dispatcher and joins its workers.
func (h *SyncHarness) Cleanup() error {
	return h.d.Dispose()
}

// Dispatcher exposes the underlying dispatcher for probe binding.
func (h *SyncHarness) Dispatcher() *dispatch.SyncDispatcher {
	return h.d
}

// AsyncHarness drives an AsyncDispatcher through the harness lifecycle.
// Invoke blocks on the returned Completion so harnesses that time a
// blocking call measure the full cycle.
type AsyncHarness struct {
	d *dispatch.AsyncDispatcher
}

// NewAsyncHarness constructs the harness with the given worker budget.
func NewAsyncHarness(maxConcurrency int) (*AsyncHarness, error) {
	d, err := dispatch.NewAsyncDispatcher(maxConcurrency)
	if err != nil {
		return nil, err
	}
	return &AsyncHarness{d: d}, nil
}

// Setup registers the benchmark actions.
func (h *AsyncHarness) Setup(actions ...api.AsyncAction) error {
	for _, a := range actions {
		if err := h.d.Add(a); err != nil {
			return err
		}
	}
	return nil
}

// Invoke performs one timed trigger and waits for the cycle to finish.
func (h *AsyncHarness) Invoke() error {
	comp, err := h.d.ExecuteAndWaitAsync()
	if err != nil {
		return err
	}
	return comp.Wait()
}

// Cleanup disposes the dispatcher and joins its workers.
func (h *AsyncHarness) Cleanup() error {
	return h.d.Dispose()
}

// Dispatcher exposes the underlying dispatcher for probe binding.
func (h *AsyncHarness) Dispatcher() *dispatch.AsyncDispatcher {
	return h.d
}
