// File: fake/awaitable.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Awaitable test doubles. ManualAwaitable suspends until Complete is
// called, possibly from another goroutine; CompletedAwaitable finishes
// synchronously. Both honour the race-free install contract: a callback
// registered after completion runs inline on the registering thread.

package fake

import (
	"sync/atomic"

	"github.com/momentics/hioload-dispatch/api"
)

type callback struct {
	fn func()
}

// firedCallback marks a completed slot; identity carries the state.
var firedCallback = &callback{}

// ManualAwaitable is an api.Awaitable completed explicitly by the test.
type ManualAwaitable struct {
	slot atomic.Pointer[callback]
	err  atomic.Pointer[error]
}

var _ api.Awaitable = (*ManualAwaitable)(nil)

// NewManualAwaitable creates a pending awaitable.
func NewManualAwaitable() *ManualAwaitable {
	return &ManualAwaitable{}
}

// Complete finishes the awaitable with the given outcome and invokes a
// previously installed callback exactly once.
func (m *ManualAwaitable) Complete(err error) {
	if err != nil {
		m.err.Store(&err)
	}
	prev := m.slot.Swap(firedCallback)
	if prev != nil && prev != firedCallback {
		prev.fn()
	}
}

func (m *ManualAwaitable) IsCompleted() bool {
	return m.slot.Load() == firedCallback
}

// OnCompleted installs fn; if the awaitable already completed, fn runs
// inline.
func (m *ManualAwaitable) OnCompleted(fn func()) {
	cb := &callback{fn: fn}
	if m.slot.CompareAndSwap(nil, cb) {
		return
	}
	fn()
}

func (m *ManualAwaitable) Err() error {
	if p := m.err.Load(); p != nil {
		return *p
	}
	return nil
}

// CompletedAwaitable returns an awaitable that is already finished with
// the given outcome. Callbacks always run inline.
func CompletedAwaitable(err error) api.Awaitable {
	return &completedAwaitable{err: err}
}

type completedAwaitable struct {
	err error
}

var _ api.Awaitable = (*completedAwaitable)(nil)

func (c *completedAwaitable) IsCompleted() bool { return true }

func (c *completedAwaitable) OnCompleted(fn func()) { fn() }

func (c *completedAwaitable) Err() error { return c.err }
