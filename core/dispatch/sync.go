// File: core/dispatch/sync.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Synchronous fan-out/fan-in dispatcher. A fixed callable set is triggered
// repeatedly; every trigger releases the parked workers through the barrier,
// runs all callables in parallel with cursor-based stealing, and blocks the
// driver until the last strand retires. Steady-state triggering performs no
// heap allocation.

package dispatch

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-dispatch/api"
	"github.com/momentics/hioload-dispatch/internal/concurrency"
)

// syncCore is the block shared with worker goroutines. Workers reference
// only this core, never the outer dispatcher, so a dispatcher leaked
// without Dispose stays collectable; its finalizer clears alive and trips
// the gate, and every worker exits at its next rendezvous.
type syncCore struct {
	head   workNode
	cursor stealCursor[workNode, *workNode]
	gate   *BarrierGate
	sink   ExceptionSink
	signal *completionSignal
	alive  atomic.Bool

	steals   atomic.Uint64
	failures atomic.Uint64

	wg   sync.WaitGroup
	pin  bool
	numa int
}

// workerLoop parks at the gate between cycles and runs one strand per
// release. The alive check happens only at the rendezvous, never across
// the execution of a callable.
func (c *syncCore) workerLoop(start *workNode, id int) {
	defer c.wg.Done()
	if c.pin {
		concurrency.PinCurrentThread(c.numa, id%concurrency.NumCPUs())
		defer concurrency.UnpinCurrentThread()
	}
	for {
		c.gate.SignalAndWait()
		if !c.alive.Load() {
			return
		}
		c.runStrand(start)
	}
}

// runStrand executes one strand of a cycle: the starting node, then every
// node claimed through the cursor, until a claim lands on the sentinel.
func (c *syncCore) runStrand(n *workNode) {
	c.runAction(n.action)
	for {
		n = c.cursor.takeNext()
		if n == &c.head {
			break
		}
		c.steals.Add(1)
		c.runAction(n.action)
	}
	c.signal.strandDone()
}

// runAction executes one callable. Failures and panics are recorded and
// never interrupt the strand.
func (c *syncCore) runAction(a api.Action) {
	defer func() {
		if r := recover(); r != nil {
			c.failures.Add(1)
			c.sink.Record(recoveredError(r))
		}
	}()
	if err := a(); err != nil {
		c.failures.Add(1)
		c.sink.Record(err)
	}
}

// SyncDispatcher runs every registered callable in parallel per trigger
// and blocks the driver until all have finished.
//
// Add, ExecuteAndWait and Dispose are driver-only: a single external
// thread configures, triggers and disposes. The dispatcher does no
// internal locking for these operations.
type SyncDispatcher struct {
	core *syncCore

	callerNode *workNode
	tail       *workNode
	stealPos   *workNode

	maxConcurrency int
	workers        int
	callables      int
	cycles         atomic.Uint64
	status         atomic.Int32
}

var (
	_ api.Dispatcher       = (*SyncDispatcher)(nil)
	_ api.GracefulShutdown = (*SyncDispatcher)(nil)
)

// NewSyncDispatcher constructs a dispatcher with the default configuration
// and the given worker budget. -1 selects the logical CPU count.
func NewSyncDispatcher(maxConcurrency int) (*SyncDispatcher, error) {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = maxConcurrency
	return NewSyncDispatcherConfig(cfg)
}

// NewSyncDispatcherConfig constructs a dispatcher from an explicit Config.
func NewSyncDispatcherConfig(cfg Config) (*SyncDispatcher, error) {
	w, err := effectiveConcurrency(cfg.MaxConcurrency)
	if err != nil {
		return nil, err
	}
	core := &syncCore{
		gate:   NewBarrierGate(cfg.GateSpinLimit),
		signal: newCompletionSignal(cfg.WaitSpinLimit),
		pin:    cfg.PinWorkers,
		numa:   cfg.NUMANode,
	}
	core.head.action = noopAction
	core.head.next = &core.head
	core.alive.Store(true)

	d := &SyncDispatcher{
		core:           core,
		tail:           &core.head,
		stealPos:       &core.head,
		maxConcurrency: w,
	}
	d.status.Store(int32(api.StatusConfiguring))
	runtime.SetFinalizer(d, (*SyncDispatcher).finalize)
	return d, nil
}

// finalize quiesces the workers of a dispatcher that was leaked without
// Dispose: clear alive, trip the gate, let the workers exit.
func (d *SyncDispatcher) finalize() {
	d.core.alive.Store(false)
	d.core.gate.SignalAndWait()
}

// Add registers a callable. The first registration becomes the caller
// node; registrations 2..maxConcurrency each spawn a dedicated worker
// with that node as its starting position; anything beyond extends the
// stealable tail behind the initial steal position.
func (d *SyncDispatcher) Add(action api.Action) error {
	switch api.DispatcherStatus(d.status.Load()) {
	case api.StatusDisposed:
		return errDisposed("add")
	case api.StatusRunning:
		return errCycleRunning("add")
	}
	if action == nil {
		return errNilAction("add")
	}

	node := &workNode{next: &d.core.head, action: action}
	d.tail.next = node
	d.tail = node
	d.callables++

	switch {
	case d.callerNode == nil:
		d.callerNode = node
	case d.workers < d.maxConcurrency-1:
		d.spawnWorker(node)
	case d.stealPos == &d.core.head:
		d.stealPos = node
	}
	d.status.Store(int32(api.StatusIdle))
	return nil
}

func (d *SyncDispatcher) spawnWorker(start *workNode) {
	d.core.gate.AddParticipant()
	d.core.wg.Add(1)
	id := d.workers
	d.workers++
	go d.core.workerLoop(start, id)
}

// ExecuteAndWait triggers one cycle: position the cursor, splice the
// sentinel out of the ring, arm the strand counter, release the workers,
// run the caller strand, wait for the rest, restore the ring. Returns an
// AggregateError if any callable failed; every node still ran.
func (d *SyncDispatcher) ExecuteAndWait() error {
	switch api.DispatcherStatus(d.status.Load()) {
	case api.StatusDisposed:
		return errDisposed("execute_and_wait")
	case api.StatusRunning:
		return errCycleRunning("execute_and_wait")
	}
	if d.callerNode == nil {
		return errNoCallables("execute_and_wait")
	}

	c := d.core
	d.status.Store(int32(api.StatusRunning))

	c.cursor.position(d.stealPos)
	saved := c.head.next
	c.head.next = &c.head
	c.signal.reset(int32(d.workers) + 1)

	c.gate.SignalAndWait()
	c.runStrand(d.callerNode)
	c.signal.wait()

	c.head.next = saved
	d.cycles.Add(1)
	d.status.Store(int32(api.StatusIdle))

	if fails := c.sink.Drain(); fails != nil {
		return api.NewAggregateError(fails)
	}
	return nil
}

// Dispose overwrites every action with a no-op, clears the alive flag,
// releases the workers one last time and joins them. No background
// activity remains when Dispose returns.
func (d *SyncDispatcher) Dispose() error {
	switch api.DispatcherStatus(d.status.Load()) {
	case api.StatusDisposed:
		return errDisposed("dispose")
	case api.StatusRunning:
		return errCycleRunning("dispose")
	}

	c := d.core
	d.callerNode = nil
	for n := c.head.next; n != &c.head; n = n.next {
		n.action = noopAction
	}
	c.alive.Store(false)
	c.gate.SignalAndWait()
	c.wg.Wait()
	runtime.SetFinalizer(d, nil)
	d.status.Store(int32(api.StatusDisposed))
	return nil
}

// Shutdown implements api.GracefulShutdown by delegating to Dispose.
func (d *SyncDispatcher) Shutdown() error {
	return d.Dispose()
}

// Status reports the current lifecycle state.
func (d *SyncDispatcher) Status() api.DispatcherStatus {
	return api.DispatcherStatus(d.status.Load())
}

// Stats returns a snapshot of runtime counters for metrics and probes.
func (d *SyncDispatcher) Stats() api.DispatcherStats {
	return api.DispatcherStats{
		MaxConcurrency: d.maxConcurrency,
		Callables:      d.callables,
		Workers:        d.workers,
		Cycles:         d.cycles.Load(),
		Steals:         d.core.steals.Load(),
		Failures:       d.core.failures.Load(),
		Status:         api.DispatcherStatus(d.status.Load()),
	}
}
