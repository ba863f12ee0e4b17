// File: internal/concurrency/affinity_windows.go
//go:build windows
// +build windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows affinity via SetThreadAffinityMask. NUMA-awareness is not
// supported in this build; node arguments only spread the CPU choice.

package concurrency

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = modkernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread      = modkernel32.NewProc("GetCurrentThread")
)

func platformPinCurrentThread(_, cpuID int) error {
	if cpuID < 0 {
		return nil
	}
	handle, _, _ := procGetCurrentThread.Call()
	mask := uintptr(1) << uint(cpuID)
	old, _, err := procSetThreadAffinityMask.Call(handle, mask)
	if old == 0 {
		return fmt.Errorf("SetThreadAffinityMask failed: %v", err)
	}
	return nil
}

func platformUnpinCurrentThread() error {
	handle, _, _ := procGetCurrentThread.Call()
	total := runtime.NumCPU()
	if total <= 0 {
		total = 1
	}
	mask := (uintptr(1) << uint(total)) - 1
	old, _, err := procSetThreadAffinityMask.Call(handle, mask)
	if old == 0 {
		return fmt.Errorf("SetThreadAffinityMask(unpin) failed: %v", err)
	}
	return nil
}

func platformPreferredCPUID(numaNode int) int {
	total := runtime.NumCPU()
	if total <= 0 || numaNode < 0 {
		return 0
	}
	return numaNode % total
}

func platformCurrentNUMANodeID() int { return -1 }

func platformNUMANodes() int { return 1 }
