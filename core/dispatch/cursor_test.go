// File: core/dispatch/cursor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
)

// buildRing links n nodes behind a self-linked sentinel, as a cycle sees
// it: sentinel spliced out, nodes chaining back to the sentinel.
func buildRing(n int) (head *workNode, first *workNode) {
	head = &workNode{action: noopAction}
	head.next = head
	prev := head
	for i := 0; i < n; i++ {
		node := &workNode{next: head, action: noopAction}
		if prev == head {
			first = node
		} else {
			prev.next = node
		}
		prev = node
	}
	return head, first
}

func TestStealCursorClaimsEachNodeOnce(t *testing.T) {
	const nodes = 1000
	const claimers = 8

	head, first := buildRing(nodes)
	claims := make([]atomic.Int32, nodes)
	idx := make(map[*workNode]int, nodes)
	for i, n := 0, first; n != head; i, n = i+1, n.next {
		idx[n] = i
	}

	var cursor stealCursor[workNode, *workNode]
	cursor.position(first)

	var wg sync.WaitGroup
	wg.Add(claimers)
	for c := 0; c < claimers; c++ {
		go func() {
			defer wg.Done()
			for {
				n := cursor.takeNext()
				if n == head {
					return
				}
				claims[idx[n]].Add(1)
			}
		}()
	}
	wg.Wait()

	for i := range claims {
		if got := claims[i].Load(); got != 1 {
			t.Fatalf("node %d claimed %d times", i, got)
		}
	}
}

func TestStealCursorExhaustedStaysOnSentinel(t *testing.T) {
	head, _ := buildRing(0)
	var cursor stealCursor[workNode, *workNode]
	cursor.position(head)
	for i := 0; i < 10; i++ {
		if n := cursor.takeNext(); n != head {
			t.Fatalf("takeNext returned non-sentinel on empty ring")
		}
	}
}
