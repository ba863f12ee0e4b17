// File: core/dispatch/sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExceptionSink collects callable failures during a cycle. The backing
// queue is allocated lazily on the first failure, so fully successful
// cycles never touch the heap.

package dispatch

import (
	"sync"

	"github.com/eapache/queue"
)

// ExceptionSink is a mutex-guarded failure accumulator. Workers record
// concurrently; the sink is drained only once the cycle's last strand has
// retired (by the driver in the sync dispatcher, by that final strand in
// the async one), which orders all records before the read.
type ExceptionSink struct {
	mu sync.Mutex
	q  *queue.Queue
}

// Record appends one failure.
func (s *ExceptionSink) Record(err error) {
	s.mu.Lock()
	if s.q == nil {
		s.q = queue.New()
	}
	s.q.Add(err)
	s.mu.Unlock()
}

// Drain removes and returns all recorded failures, or nil if none.
func (s *ExceptionSink) Drain() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.q == nil || s.q.Length() == 0 {
		return nil
	}
	out := make([]error, 0, s.q.Length())
	for s.q.Length() > 0 {
		out = append(out, s.q.Remove().(error))
	}
	return out
}

// Clear discards recorded failures without materialising a slice.
func (s *ExceptionSink) Clear() {
	s.mu.Lock()
	if s.q != nil {
		for s.q.Length() > 0 {
			s.q.Remove()
		}
	}
	s.mu.Unlock()
}

// Empty reports whether any failure is recorded.
func (s *ExceptionSink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q == nil || s.q.Length() == 0
}
