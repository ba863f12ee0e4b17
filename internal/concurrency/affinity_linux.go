// File: internal/concurrency/affinity_linux.go
//go:build linux
// +build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux affinity through sched_setaffinity (golang.org/x/sys/unix) with
// NUMA topology probed from sysfs. No CGO, no libnuma.

package concurrency

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

const sysNodeDir = "/sys/devices/system/node"

// platformPinCurrentThread binds the current OS thread to the given CPU,
// or to the full CPU set of the NUMA node when cpuID is -1.
func platformPinCurrentThread(numaNode, cpuID int) error {
	var set unix.CPUSet
	if cpuID >= 0 {
		set.Set(cpuID)
	} else {
		for _, cpu := range nodeCPUs(numaNode) {
			set.Set(cpu)
		}
	}
	if set.Count() == 0 {
		return nil
	}
	return unix.SchedSetaffinity(0, &set)
}

// platformUnpinCurrentThread resets affinity to every logical CPU.
func platformUnpinCurrentThread() error {
	var set unix.CPUSet
	for i := 0; i < runtime.NumCPU(); i++ {
		set.Set(i)
	}
	return unix.SchedSetaffinity(0, &set)
}

func platformPreferredCPUID(numaNode int) int {
	cpus := nodeCPUs(numaNode)
	if len(cpus) == 0 {
		return 0
	}
	return cpus[0]
}

func platformCurrentNUMANodeID() int {
	var cpu, node uint32
	_, _, errno := unix.Syscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), uintptr(unsafe.Pointer(&node)), 0)
	if errno != 0 {
		return -1
	}
	return int(node)
}

func platformNUMANodes() int {
	entries, err := os.ReadDir(sysNodeDir)
	if err != nil {
		return 1
	}
	n := 0
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "node") {
			if _, err := strconv.Atoi(name[4:]); err == nil {
				n++
			}
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// nodeCPUs returns the CPU set of a NUMA node; numaNode -1 means all CPUs.
func nodeCPUs(numaNode int) []int {
	if numaNode < 0 {
		out := make([]int, runtime.NumCPU())
		for i := range out {
			out[i] = i
		}
		return out
	}
	data, err := os.ReadFile(sysNodeDir + "/node" + strconv.Itoa(numaNode) + "/cpulist")
	if err != nil {
		return nil
	}
	return parseCPUList(strings.TrimSpace(string(data)))
}

// parseCPUList expands a sysfs cpulist such as "0-3,8,10-11".
func parseCPUList(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, errA := strconv.Atoi(lo)
			b, errB := strconv.Atoi(hi)
			if errA != nil || errB != nil || b < a {
				continue
			}
			for i := a; i <= b; i++ {
				out = append(out, i)
			}
		} else if v, err := strconv.Atoi(part); err == nil {
			out = append(out, v)
		}
	}
	return out
}
