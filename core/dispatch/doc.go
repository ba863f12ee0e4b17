// File: core/dispatch/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package dispatch implements the low-overhead fan-out/fan-in dispatchers:
// a synchronous variant that blocks the driver until all registered
// callables finish, and an asynchronous variant whose cycle completes a
// reusable future instead.
//
// Both share one coordination pattern: a circular sentinel-terminated ring
// of work nodes, a CAS-advanced steal cursor, a reusable N-party barrier
// the workers park on between cycles, a mutex-guarded failure sink, and an
// atomically decremented completion counter. Steady-state triggering
// performs no heap allocation; all closures and nodes are bound during the
// configuration phase.
package dispatch
