// File: control/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package control is the runtime control plane of hioload-dispatch:
// dynamic configuration with reload listeners, a metrics registry for
// per-cycle dispatcher counters, and debug probes for state dumps.
//
// The dispatchers themselves stay free of control-plane concerns; the
// adapters package wires their stats snapshots into this layer.
package control
