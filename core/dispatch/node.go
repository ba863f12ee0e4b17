// File: core/dispatch/node.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Work ring nodes. Registered callables form a circular singly-linked list
// terminated by a head sentinel embedded in the dispatcher core; links are
// written during configuration and at cycle splice points only, always by
// the driver.

package dispatch

import "github.com/momentics/hioload-dispatch/api"

// workNode is one registered synchronous callable.
type workNode struct {
	next   *workNode
	action api.Action
}

func (n *workNode) nextNode() *workNode { return n.next }

// asyncNode is one registered suspendable callable. Its continuation is
// bound once at registration and reused every cycle, so suspension and
// resumption allocate nothing.
type asyncNode struct {
	next   *asyncNode
	action api.AsyncAction // nil marks the sentinel: end of work

	// awaited holds the in-flight handle between suspension and resume.
	// Only the strand currently executing this node touches it.
	awaited api.Awaitable

	// resume observes the awaited result, records any failure, and takes
	// over the drain from the steal cursor.
	resume func()
}

func (n *asyncNode) nextNode() *asyncNode { return n.next }

// noopAction replaces disposed synchronous actions.
func noopAction() error { return nil }
