// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package concurrency provides cross-platform CPU and NUMA affinity for
// dispatcher worker threads. Platform code is partitioned by build tags:
// Linux binds through sched_setaffinity and probes NUMA topology via
// sysfs, Windows uses SetThreadAffinityMask, everything else is a no-op.
package concurrency
