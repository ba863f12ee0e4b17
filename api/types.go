// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

// DispatcherStatus enumerates the lifecycle state of a dispatcher.
type DispatcherStatus int

const (
	StatusConfiguring DispatcherStatus = iota
	StatusIdle
	StatusRunning
	StatusDisposed
)

func (s DispatcherStatus) String() string {
	switch s {
	case StatusConfiguring:
		return "configuring"
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// DispatcherStats provides a standard layout for runtime statistics reporting.
type DispatcherStats struct {
	MaxConcurrency int
	Callables      int
	Workers        int
	Cycles         uint64 // completed trigger cycles
	Steals         uint64 // nodes claimed through the steal cursor
	Failures       uint64 // callable failures recorded across all cycles
	Status         DispatcherStatus
}
