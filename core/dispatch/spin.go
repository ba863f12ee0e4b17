// File: core/dispatch/spin.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded spin ladder shared by the barrier and the completion wait path.
// Active spinning keeps release latency low for short cycles; past the
// yield mask the spinner cedes the processor, and past the limit callers
// escalate to a condition wait.

package dispatch

import "runtime"

const (
	// cacheLinePad separates hot atomics from neighbouring fields.
	cacheLinePad = 64

	// defaultGateSpinLimit bounds spinning at the rendezvous before a
	// parked participant falls back to a condition wait.
	defaultGateSpinLimit = 4096

	// defaultWaitSpinLimit bounds the driver's completion spin.
	defaultWaitSpinLimit = 8192

	// spinYieldMask: every (mask+1)-th iteration yields the processor.
	spinYieldMask = 63
)

// spinOnce performs iteration i of a bounded spin loop.
func spinOnce(i int) {
	if i&spinYieldMask == spinYieldMask {
		runtime.Gosched()
	}
}
