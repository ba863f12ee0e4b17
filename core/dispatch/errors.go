// File: core/dispatch/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for the dispatch module.

package dispatch

import (
	"fmt"

	"github.com/momentics/hioload-dispatch/api"
)

func errInvalidConcurrency(value int) error {
	return api.NewError(api.ErrCodeInvalidConcurrency, api.ErrInvalidConcurrency.Error()).
		WithContext("maxConcurrency", value)
}

func errDisposed(op string) error {
	return api.NewError(api.ErrCodeDisposed, api.ErrDisposed.Error()).
		WithContext("op", op)
}

func errCycleRunning(op string) error {
	return api.NewError(api.ErrCodeCycleRunning, api.ErrCycleRunning.Error()).
		WithContext("op", op)
}

func errNilAction(op string) error {
	return api.NewError(api.ErrCodeInternal, "action must not be nil").
		WithContext("op", op)
}

func errNoCallables(op string) error {
	return api.NewError(api.ErrCodeNoCallables, api.ErrNoCallables.Error()).
		WithContext("op", op)
}

// recoveredError converts a recovered panic value into an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("callable panic: %v", r)
}
