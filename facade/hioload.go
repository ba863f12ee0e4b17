// File: facade/hioload.go
// Unified facade layer for hioload-dispatch.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HioloadDispatch aggregates the library's components behind a single
// entry point: control plane, synchronous dispatcher, and a lazily
// constructed asynchronous sibling. The facade exposes registration,
// triggering, stats publication and unified shutdown; the hot trigger
// path goes straight to the core dispatchers.

package facade

import (
	"sync"

	"github.com/momentics/hioload-dispatch/adapters"
	"github.com/momentics/hioload-dispatch/api"
	"github.com/momentics/hioload-dispatch/core/dispatch"
)

// Config holds parameters immutable per run.
type Config struct {
	MaxConcurrency int  // Worker budget including the caller; -1 = CPU count
	NUMANode       int  // NUMA node passed to worker pinning; -1 = none; does not change the pinned CPU
	CPUAffinity    bool // Whether to pin worker threads
	EnableMetrics  bool // Whether to publish dispatcher counters
	EnableDebug    bool // Whether to register stats debug probes
	GateSpinLimit  int  // Spin bound at the worker rendezvous
	WaitSpinLimit  int  // Spin bound for completion waits
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: -1,
		NUMANode:       -1,
		CPUAffinity:    false,
		EnableMetrics:  true,
		EnableDebug:    true,
	}
}

// HioloadDispatch is the main facade type.
type HioloadDispatch struct {
	control *adapters.ControlAdapter
	sync    *dispatch.SyncDispatcher

	mu     sync.Mutex // guards lazy async construction
	async  *dispatch.AsyncDispatcher
	config *Config
}

var _ api.GracefulShutdown = (*HioloadDispatch)(nil)

// New constructs the facade: control plane plus a synchronous dispatcher.
// The asynchronous dispatcher is created on first AddAsync or
// ExecuteAndWaitAsync.
func New(cfg *Config) (*HioloadDispatch, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	h := &HioloadDispatch{config: cfg}
	h.control = adapters.NewControlAdapter()

	d, err := dispatch.NewSyncDispatcherConfig(h.dispatchConfig())
	if err != nil {
		return nil, err
	}
	h.sync = d
	if cfg.EnableDebug {
		adapters.BindDispatcher(h.control, "sync", h.sync)
	}
	h.control.SetConfig(map[string]any{
		"max_concurrency": cfg.MaxConcurrency,
		"numa_node":       cfg.NUMANode,
		"cpu_affinity":    cfg.CPUAffinity,
	})
	return h, nil
}

func (h *HioloadDispatch) dispatchConfig() dispatch.Config {
	dc := dispatch.DefaultConfig()
	dc.MaxConcurrency = h.config.MaxConcurrency
	dc.NUMANode = h.config.NUMANode
	dc.PinWorkers = h.config.CPUAffinity
	if h.config.GateSpinLimit > 0 {
		dc.GateSpinLimit = h.config.GateSpinLimit
	}
	if h.config.WaitSpinLimit > 0 {
		dc.WaitSpinLimit = h.config.WaitSpinLimit
	}
	return dc
}

// Add registers a synchronous action.
func (h *HioloadDispatch) Add(action api.Action) error {
	return h.sync.Add(action)
}

// ExecuteAndWait triggers one synchronous cycle.
func (h *HioloadDispatch) ExecuteAndWait() error {
	err := h.sync.ExecuteAndWait()
	if h.config.EnableMetrics {
		adapters.PublishStats(h.control, "sync", h.sync)
	}
	return err
}

// AddAsync registers a suspendable action, creating the asynchronous
// dispatcher on first use.
func (h *HioloadDispatch) AddAsync(action api.AsyncAction) error {
	d, err := h.asyncDispatcher()
	if err != nil {
		return err
	}
	return d.Add(action)
}

// ExecuteAndWaitAsync triggers one asynchronous cycle.
func (h *HioloadDispatch) ExecuteAndWaitAsync() (api.Completion, error) {
	d, err := h.asyncDispatcher()
	if err != nil {
		return nil, err
	}
	comp, err := d.ExecuteAndWaitAsync()
	if h.config.EnableMetrics {
		adapters.PublishStats(h.control, "async", d)
	}
	return comp, err
}

func (h *HioloadDispatch) asyncDispatcher() (*dispatch.AsyncDispatcher, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.async != nil {
		return h.async, nil
	}
	d, err := dispatch.NewAsyncDispatcherConfig(h.dispatchConfig())
	if err != nil {
		return nil, err
	}
	h.async = d
	if h.config.EnableDebug {
		adapters.BindDispatcher(h.control, "async", d)
	}
	return d, nil
}

// GetControl returns the Control interface for dynamic config and metrics.
func (h *HioloadDispatch) GetControl() api.Control {
	return h.control
}

// Stats returns the combined control-plane snapshot.
func (h *HioloadDispatch) Stats() map[string]any {
	return h.control.Stats()
}

// Shutdown disposes both dispatchers and joins their workers.
func (h *HioloadDispatch) Shutdown() error {
	err := h.sync.Dispose()
	h.mu.Lock()
	async := h.async
	h.mu.Unlock()
	if async != nil {
		if aerr := async.Dispose(); err == nil {
			err = aerr
		}
	}
	return err
}
