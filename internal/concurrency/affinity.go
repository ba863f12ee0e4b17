// File: internal/concurrency/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral entry points for CPU and NUMA affinity management.

package concurrency

import "runtime"

// PinCurrentThread locks the calling goroutine to its OS thread and binds
// the thread to the given CPU and NUMA node. cpuID -1 selects the node's
// CPU set; numaNode -1 means no node preference.
func PinCurrentThread(numaNode, cpuID int) error {
	runtime.LockOSThread()
	return platformPinCurrentThread(numaNode, cpuID)
}

// UnpinCurrentThread clears the binding and releases the OS thread lock.
func UnpinCurrentThread() error {
	defer runtime.UnlockOSThread()
	return platformUnpinCurrentThread()
}

// PreferredCPUID returns a suggested CPU core for the given NUMA node.
func PreferredCPUID(numaNode int) int {
	return platformPreferredCPUID(numaNode)
}

// CurrentNUMANodeID returns the NUMA node of the current thread, or -1
// when the platform cannot tell.
func CurrentNUMANodeID() int {
	return platformCurrentNUMANodeID()
}

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}

// NUMANodes returns the number of configured NUMA nodes.
func NUMANodes() int {
	return platformNUMANodes()
}
