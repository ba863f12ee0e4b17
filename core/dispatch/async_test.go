// File: core/dispatch/async_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-dispatch/api"
	"github.com/momentics/hioload-dispatch/fake"
)

func mustAsync(t *testing.T, maxConcurrency int) *AsyncDispatcher {
	t.Helper()
	d, err := NewAsyncDispatcher(maxConcurrency)
	if err != nil {
		t.Fatalf("NewAsyncDispatcher(%d): %v", maxConcurrency, err)
	}
	return d
}

func addCompletedIncrement(t *testing.T, d *AsyncDispatcher, counter *atomic.Int64) {
	t.Helper()
	if err := d.Add(func() api.Awaitable {
		counter.Add(1)
		return fake.CompletedAwaitable(nil)
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func trigger(t *testing.T, d *AsyncDispatcher) api.Completion {
	t.Helper()
	comp, err := d.ExecuteAndWaitAsync()
	if err != nil {
		t.Fatalf("ExecuteAndWaitAsync: %v", err)
	}
	return comp
}

func TestAsyncDispatcherRangeCheck(t *testing.T) {
	for _, bad := range []int{0, -2, -3, -100} {
		if _, err := NewAsyncDispatcher(bad); err == nil {
			t.Fatalf("NewAsyncDispatcher(%d) succeeded", bad)
		}
	}
	d := mustAsync(t, -1)
	addCompletedIncrement(t, d, new(atomic.Int64))
	if err := d.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
}

func TestAsyncDispatcherCompletedInline(t *testing.T) {
	d := mustAsync(t, -1)
	defer d.Dispose()

	var counter atomic.Int64
	addCompletedIncrement(t, d, &counter)
	addCompletedIncrement(t, d, &counter)

	comp := trigger(t, d)
	if err := comp.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := counter.Load(); got != 2 {
		t.Fatalf("counter = %d, want 2", got)
	}
}

func TestAsyncDispatcherSuspension(t *testing.T) {
	d := mustAsync(t, 2)
	defer d.Dispose()

	var counter atomic.Int64
	a1 := fake.NewManualAwaitable()
	a2 := fake.NewManualAwaitable()
	for _, aw := range []*fake.ManualAwaitable{a1, a2} {
		aw := aw
		if err := d.Add(func() api.Awaitable {
			counter.Add(1)
			return aw
		}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	comp := trigger(t, d)
	if comp.IsCompleted() {
		t.Fatalf("completed while both awaitables pending")
	}
	deadline := time.Now().Add(2 * time.Second)
	for counter.Load() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("counter = %d, want 2 (both actions started)", counter.Load())
		}
		time.Sleep(time.Millisecond)
	}

	a1.Complete(nil)
	if comp.IsCompleted() {
		t.Fatalf("completed with one awaitable still pending")
	}
	a2.Complete(nil)
	if err := comp.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestAsyncDispatcherContinuationDrainsCursor(t *testing.T) {
	// One worker budget, three callables: the caller strand suspends on
	// the first; its continuation must pick up the remaining stealable
	// nodes when the awaitable completes.
	d := mustAsync(t, 1)
	defer d.Dispose()

	var counter atomic.Int64
	manual := fake.NewManualAwaitable()
	if err := d.Add(func() api.Awaitable {
		return manual
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	addCompletedIncrement(t, d, &counter)
	addCompletedIncrement(t, d, &counter)

	comp := trigger(t, d)
	if comp.IsCompleted() {
		t.Fatalf("completed while the first awaitable is pending")
	}
	if got := counter.Load(); got != 0 {
		t.Fatalf("stealable nodes ran before the continuation: %d", got)
	}

	manual.Complete(nil)
	if err := comp.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := counter.Load(); got != 2 {
		t.Fatalf("counter = %d, want 2", got)
	}
}

func TestAsyncDispatcherFanOut(t *testing.T) {
	d := mustAsync(t, 2)
	defer d.Dispose()

	// Each action blocks until the other has started, so the cycle can
	// only finish if two threads execute concurrently.
	var gate sync.WaitGroup
	gate.Add(2)
	action := func() api.Awaitable {
		gate.Done()
		gate.Wait()
		return fake.CompletedAwaitable(nil)
	}
	if err := d.Add(action); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := d.Add(action); err != nil {
		t.Fatalf("Add: %v", err)
	}
	comp := trigger(t, d)
	if err := comp.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestAsyncDispatcherAggregatesFailures(t *testing.T) {
	d := mustAsync(t, -1)
	defer d.Dispose()

	errA := errors.New("A")
	errB := errors.New("B")
	if err := d.Add(func() api.Awaitable { return fake.CompletedAwaitable(nil) }); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := d.Add(func() api.Awaitable { return fake.CompletedAwaitable(errA) }); err != nil {
		t.Fatalf("Add: %v", err)
	}
	manual := fake.NewManualAwaitable()
	if err := d.Add(func() api.Awaitable { return manual }); err != nil {
		t.Fatalf("Add: %v", err)
	}

	comp := trigger(t, d)
	manual.Complete(errB)

	err := comp.Wait()
	var agg *api.AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("Wait = %v, want AggregateError", err)
	}
	if len(agg.Failures) != 2 {
		t.Fatalf("aggregated %d failures, want 2", len(agg.Failures))
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("aggregate %v missing individual failures", err)
	}
}

func TestAsyncDispatcherPanicRecorded(t *testing.T) {
	d := mustAsync(t, 1)
	defer d.Dispose()

	var counter atomic.Int64
	if err := d.Add(func() api.Awaitable { panic("kaboom") }); err != nil {
		t.Fatalf("Add: %v", err)
	}
	addCompletedIncrement(t, d, &counter)

	comp := trigger(t, d)
	err := comp.Wait()
	var agg *api.AggregateError
	if !errors.As(err, &agg) || len(agg.Failures) != 1 {
		t.Fatalf("Wait = %v", err)
	}
	if got := counter.Load(); got != 1 {
		t.Fatalf("panic aborted the cycle: counter = %d", got)
	}
}

func TestAsyncDispatcherOnCompletedCallback(t *testing.T) {
	d := mustAsync(t, 2)
	defer d.Dispose()

	manual := fake.NewManualAwaitable()
	if err := d.Add(func() api.Awaitable { return manual }); err != nil {
		t.Fatalf("Add: %v", err)
	}

	comp := trigger(t, d)
	done := make(chan any, 1)
	comp.OnCompleted(func(state any) { done <- state }, "cycle-1")

	manual.Complete(nil)
	select {
	case state := <-done:
		if state != "cycle-1" {
			t.Fatalf("state = %v", state)
		}
	case <-time.After(time.Second):
		t.Fatalf("completion callback never invoked")
	}
}

func TestAsyncDispatcherCycleRunningRejections(t *testing.T) {
	d := mustAsync(t, 2)
	defer d.Dispose()

	manual := fake.NewManualAwaitable()
	if err := d.Add(func() api.Awaitable { return manual }); err != nil {
		t.Fatalf("Add: %v", err)
	}
	comp := trigger(t, d)

	if err := d.Add(func() api.Awaitable { return nil }); !isUsage(err, api.ErrCodeCycleRunning) {
		t.Fatalf("Add during cycle = %v", err)
	}
	if _, err := d.ExecuteAndWaitAsync(); !isUsage(err, api.ErrCodeCycleRunning) {
		t.Fatalf("retrigger during cycle = %v", err)
	}
	if err := d.Dispose(); !isUsage(err, api.ErrCodeCycleRunning) {
		t.Fatalf("dispose during cycle = %v", err)
	}

	manual.Complete(nil)
	if err := comp.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	// The settled cycle reopens configuration.
	if err := d.Add(func() api.Awaitable { return fake.CompletedAwaitable(nil) }); err != nil {
		t.Fatalf("Add after settle: %v", err)
	}
}

func TestAsyncDispatcherRepeatedTriggers(t *testing.T) {
	d := mustAsync(t, -1)
	defer d.Dispose()

	cycles := 100_000
	if testing.Short() {
		cycles = 5_000
	}
	var counter atomic.Int64
	addCompletedIncrement(t, d, &counter)

	for i := 0; i < cycles; i++ {
		comp, err := d.ExecuteAndWaitAsync()
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		if err := comp.Wait(); err != nil {
			t.Fatalf("cycle %d wait: %v", i, err)
		}
	}
	if got := counter.Load(); got != int64(cycles) {
		t.Fatalf("counter = %d, want %d", got, cycles)
	}
}

func TestAsyncDispatcherZeroAllocSteadyState(t *testing.T) {
	d := mustAsync(t, 2)
	defer d.Dispose()

	done := fake.CompletedAwaitable(nil)
	var counter atomic.Int64
	action := func() api.Awaitable {
		counter.Add(1)
		return done
	}
	if err := d.Add(action); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := d.Add(action); err != nil {
		t.Fatalf("Add: %v", err)
	}

	for i := 0; i < 100; i++ {
		comp := trigger(t, d)
		if err := comp.Wait(); err != nil {
			t.Fatalf("warmup cycle %d: %v", i, err)
		}
	}
	allocs := testing.AllocsPerRun(1000, func() {
		comp, err := d.ExecuteAndWaitAsync()
		if err != nil {
			t.Errorf("ExecuteAndWaitAsync: %v", err)
			return
		}
		if err := comp.Wait(); err != nil {
			t.Errorf("Wait: %v", err)
		}
	})
	if allocs != 0 {
		t.Fatalf("steady-state allocs per trigger = %v, want 0", allocs)
	}
}

func TestAsyncDispatcherUsageFailures(t *testing.T) {
	d := mustAsync(t, -1)

	if _, err := d.ExecuteAndWaitAsync(); !isUsage(err, api.ErrCodeNoCallables) {
		t.Fatalf("trigger with no callables = %v", err)
	}
	if err := d.Add(nil); err == nil {
		t.Fatalf("Add(nil) succeeded")
	}
	if err := d.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	if err := d.Add(func() api.Awaitable { return nil }); !isUsage(err, api.ErrCodeDisposed) {
		t.Fatalf("Add after dispose = %v", err)
	}
	if _, err := d.ExecuteAndWaitAsync(); !isUsage(err, api.ErrCodeDisposed) {
		t.Fatalf("trigger after dispose = %v", err)
	}
	if err := d.Dispose(); !isUsage(err, api.ErrCodeDisposed) {
		t.Fatalf("double dispose = %v", err)
	}
}

func TestAsyncDispatcherDisposeQuiescence(t *testing.T) {
	before := runtime.NumGoroutine()

	d := mustAsync(t, 8)
	var counter atomic.Int64
	for i := 0; i < 8; i++ {
		addCompletedIncrement(t, d, &counter)
	}
	comp := trigger(t, d)
	if err := comp.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := d.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("worker goroutines still running after dispose: %d > %d",
				runtime.NumGoroutine(), before)
		}
		time.Sleep(time.Millisecond)
	}
}
