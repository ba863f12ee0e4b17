// File: control/platform_stub.go
//go:build !linux && !windows
// +build !linux,!windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generic platform probes for other systems.

package control

import "runtime"

// RegisterPlatformProbes sets generic debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
}
