// File: fake/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Recording dispatcher fake for harness-adapter and facade tests. Runs
// every registered action inline on ExecuteAndWait, counts executions and
// records disposal.

package fake

import (
	"github.com/momentics/hioload-dispatch/api"
)

// Dispatcher is an inline, single-threaded api.Dispatcher implementation.
type Dispatcher struct {
	Actions    []api.Action
	Executions int
	Disposed   bool

	// FailWith, when set, is returned from ExecuteAndWait after running
	// all actions.
	FailWith error
}

var _ api.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher creates an empty recording dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Add(action api.Action) error {
	if d.Disposed {
		return api.ErrDisposed
	}
	d.Actions = append(d.Actions, action)
	return nil
}

// ExecuteAndWait runs every action inline and aggregates their failures.
func (d *Dispatcher) ExecuteAndWait() error {
	if d.Disposed {
		return api.ErrDisposed
	}
	if len(d.Actions) == 0 {
		return api.ErrNoCallables
	}
	d.Executions++
	var fails []error
	for _, a := range d.Actions {
		if err := a(); err != nil {
			fails = append(fails, err)
		}
	}
	if d.FailWith != nil {
		return d.FailWith
	}
	if fails != nil {
		return api.NewAggregateError(fails)
	}
	return nil
}

func (d *Dispatcher) Dispose() error {
	if d.Disposed {
		return api.ErrDisposed
	}
	d.Disposed = true
	return nil
}
