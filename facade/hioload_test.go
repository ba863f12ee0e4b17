// File: facade/hioload_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"sync/atomic"
	"testing"

	"github.com/momentics/hioload-dispatch/api"
	"github.com/momentics/hioload-dispatch/fake"
)

func TestFacadeSyncRoundTrip(t *testing.T) {
	h, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Shutdown()

	var counter atomic.Int64
	for i := 0; i < 3; i++ {
		if err := h.Add(func() error { counter.Add(1); return nil }); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := h.ExecuteAndWait(); err != nil {
		t.Fatalf("ExecuteAndWait: %v", err)
	}
	if got := counter.Load(); got != 3 {
		t.Fatalf("counter = %d, want 3", got)
	}

	stats := h.Stats()
	if stats["sync.cycles"] != int64(1) {
		t.Errorf("sync.cycles = %v, want 1", stats["sync.cycles"])
	}
	if _, ok := stats["debug.dispatcher.sync"]; !ok {
		t.Errorf("sync dispatcher probe missing: %v", stats)
	}
}

func TestFacadeAsyncRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = 2
	h, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Shutdown()

	var counter atomic.Int64
	inc := func() api.Awaitable {
		counter.Add(1)
		return fake.CompletedAwaitable(nil)
	}
	if err := h.AddAsync(inc); err != nil {
		t.Fatalf("AddAsync: %v", err)
	}
	if err := h.AddAsync(inc); err != nil {
		t.Fatalf("AddAsync: %v", err)
	}

	comp, err := h.ExecuteAndWaitAsync()
	if err != nil {
		t.Fatalf("ExecuteAndWaitAsync: %v", err)
	}
	if err := comp.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := counter.Load(); got != 2 {
		t.Fatalf("counter = %d, want 2", got)
	}
}

func TestFacadeInvalidConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = 0
	if _, err := New(cfg); err == nil {
		t.Fatalf("New with zero concurrency succeeded")
	}
}

func TestFacadeShutdownIsTerminal(t *testing.T) {
	h, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := h.Add(func() error { return nil }); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := h.Add(func() error { return nil }); err == nil {
		t.Fatalf("Add after Shutdown succeeded")
	}
	if err := h.ExecuteAndWait(); err == nil {
		t.Fatalf("ExecuteAndWait after Shutdown succeeded")
	}
}
