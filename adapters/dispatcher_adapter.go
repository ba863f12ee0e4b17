// File: adapters/dispatcher_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Glue between core dispatchers and the control plane: stats snapshots
// become debug probes, per-cycle counters become metrics.

package adapters

import (
	"github.com/momentics/hioload-dispatch/api"
	"github.com/momentics/hioload-dispatch/core/dispatch"
)

// StatsSource is anything that exposes a dispatcher stats snapshot. Both
// core dispatchers satisfy it.
type StatsSource interface {
	Stats() api.DispatcherStats
}

var (
	_ StatsSource = (*dispatch.SyncDispatcher)(nil)
	_ StatsSource = (*dispatch.AsyncDispatcher)(nil)
)

// BindDispatcher registers a debug probe exposing the dispatcher's stats
// under "dispatcher.<name>".
func BindDispatcher(ctrl api.Control, name string, src StatsSource) {
	ctrl.RegisterDebugProbe("dispatcher."+name, func() any {
		return statsMap(src.Stats())
	})
}

// PublishStats pushes the current counters into the metrics registry,
// prefixed with the dispatcher name.
func PublishStats(ctrl *ControlAdapter, name string, src StatsSource) {
	s := src.Stats()
	ctrl.SetMetric(name+".cycles", int64(s.Cycles))
	ctrl.SetMetric(name+".steals", int64(s.Steals))
	ctrl.SetMetric(name+".failures", int64(s.Failures))
	ctrl.SetMetric(name+".workers", int64(s.Workers))
}

func statsMap(s api.DispatcherStats) map[string]any {
	return map[string]any{
		"max_concurrency": s.MaxConcurrency,
		"callables":       s.Callables,
		"workers":         s.Workers,
		"cycles":          s.Cycles,
		"steals":          s.Steals,
		"failures":        s.Failures,
		"status":          s.Status.String(),
	}
}
