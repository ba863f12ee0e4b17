// File: core/dispatch/async.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Asynchronous fan-out/fan-in dispatcher. Callables return an Awaitable;
// when one suspends, the executing thread installs the node's bound
// continuation on the handle and returns to the rendezvous, so a single
// worker can interleave several callables per cycle. The trigger returns
// a reusable single-shot Completion instead of blocking.

package dispatch

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-dispatch/api"
	"github.com/momentics/hioload-dispatch/internal/concurrency"
)

// asyncCore is the block shared with worker goroutines and with every
// node's continuation. Same weak-ownership shape as syncCore: workers and
// continuations never reference the outer dispatcher.
type asyncCore struct {
	head   asyncNode
	cursor stealCursor[asyncNode, *asyncNode]
	gate   *BarrierGate
	sink   ExceptionSink
	comp   asyncCompletion
	alive  atomic.Bool

	steals   atomic.Uint64
	failures atomic.Uint64

	wg   sync.WaitGroup
	pin  bool
	numa int
}

func (c *asyncCore) workerLoop(start *asyncNode, id int) {
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

// runStrand drives one strand until it suspends or the ring is drained.
// A suspension hands the strand to the node's bound continuation; the
// calling thread returns immediately and parks at the gate.
func (c *asyncCore) runStrand(n *asyncNode) {
	for {
		if !c.beginNode(n) {
			return
		}
		n = c.cursor.takeNext()
		if n.action == nil {
			c.strandDone()
			return
		}
		c.steals.Add(1)
	}
}

// beginNode invokes the node's action. Returns false when the action
// suspended and its continuation now owns the strand; true when the
// action finished inline (including failure or panic).
func (c *asyncCore) beginNode(n *asyncNode) bool {
	aw := c.invoke(n.action)
	if aw == nil {
		return true
	}
	if aw.IsCompleted() {
		c.observe(aw)
		return true
	}
	n.awaited = aw
	// If the handle completes between the check above and this install,
	// the Awaitable contract runs the continuation inline here.
	aw.OnCompleted(n.resume)
	return false
}

// invoke calls the action, converting a panic into a recorded failure.
func (c *asyncCore) invoke(a api.AsyncAction) (aw api.Awaitable) {
	defer func() {
		if r := recover(); r != nil {
			c.failures.Add(1)
			c.sink.Record(recoveredError(r))
			aw = nil
		}
	}()
	return a()
}

// observe records the outcome of a completed awaitable.
func (c *asyncCore) observe(aw api.Awaitable) {
	if err := aw.Err(); err != nil {
		c.failures.Add(1)
		c.sink.Record(err)
	}
}

// bindContinuation attaches the node's stable resume closure. Bound once
// at registration and reused every cycle, so suspension and resumption
// allocate nothing.
func (c *asyncCore) bindContinuation(n *asyncNode) {
	n.resume = func() {
		aw := n.awaited
		n.awaited = nil
		c.observe(aw)
		next := c.cursor.takeNext()
		if next.action == nil {
			c.strandDone()
			return
		}
		c.steals.Add(1)
		c.runStrand(next)
	}
}

// strandDone retires one strand. The final strand aggregates the sink and
// fires the cycle's Completion exactly once.
func (c *asyncCore) strandDone() {
	if c.comp.pending.Add(-1) != 0 {
		return
	}
	var err error
	if fails := c.sink.Drain(); fails != nil {
		err = api.NewAggregateError(fails)
	}
	c.comp.fire(err)
}

// AsyncDispatcher is the suspension-aware sibling of SyncDispatcher. Each
// trigger returns a Completion that fires when every registered callable
// has finished, including those that suspended.
//
// Add, ExecuteAndWaitAsync and Dispose are driver-only, same discipline
// as SyncDispatcher.
type AsyncDispatcher struct {
	core *asyncCore

	callerNode *asyncNode
	tail       *asyncNode
	stealPos   *asyncNode
	savedNext  *asyncNode
	inCycle    bool

	maxConcurrency int
	workers        int
	callables      int
	cycles         atomic.Uint64
	status         atomic.Int32
}

var (
	_ api.AsyncDispatcher  = (*AsyncDispatcher)(nil)
	_ api.GracefulShutdown = (*AsyncDispatcher)(nil)
)

// NewAsyncDispatcher constructs a dispatcher with the default
// configuration and the given worker budget. -1 selects the CPU count.
func NewAsyncDispatcher(maxConcurrency int) (*AsyncDispatcher, error) {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = maxConcurrency
	return NewAsyncDispatcherConfig(cfg)
}

// NewAsyncDispatcherConfig constructs a dispatcher from an explicit Config.
func NewAsyncDispatcherConfig(cfg Config) (*AsyncDispatcher, error) {
	w, err := effectiveConcurrency(cfg.MaxConcurrency)
	if err != nil {
		return nil, err
	}
	core := &asyncCore{
		gate: NewBarrierGate(cfg.GateSpinLimit),
		pin:  cfg.PinWorkers,
		numa: cfg.NUMANode,
	}
	core.head.next = &core.head
	core.comp.init(cfg.WaitSpinLimit)
	core.alive.Store(true)

	d := &AsyncDispatcher{
		core:           core,
		tail:           &core.head,
		stealPos:       &core.head,
		maxConcurrency: w,
	}
	d.status.Store(int32(api.StatusConfiguring))
	runtime.SetFinalizer(d, (*AsyncDispatcher).finalize)
	return d, nil
}

func (d *AsyncDispatcher) finalize() {
	d.core.alive.Store(false)
	d.core.gate.SignalAndWait()
}

// settleCycle folds a finished cycle back into the idle state: the ring
// is restored behind the sentinel and configuration reopens.
func (d *AsyncDispatcher) settleCycle() {
	d.core.head.next = d.savedNext
	d.savedNext = nil
	d.inCycle = false
	d.cycles.Add(1)
	d.status.Store(int32(api.StatusIdle))
}

// checkIdle rejects the operation while disposed or while a cycle is
// still pending, and settles a cycle whose Completion already fired.
func (d *AsyncDispatcher) checkIdle(op string) error {
	if api.DispatcherStatus(d.status.Load()) == api.StatusDisposed {
		return errDisposed(op)
	}
	if d.inCycle {
		if !d.core.comp.IsCompleted() {
			return errCycleRunning(op)
		}
		d.settleCycle()
	}
	return nil
}

// Add registers a suspendable callable. Distribution follows the sync
// variant: caller node first, one worker per node up to capacity, then
// the stealable tail.
func (d *AsyncDispatcher) Add(action api.AsyncAction) error {
	if err := d.checkIdle("add"); err != nil {
		return err
	}
	if action == nil {
		return errNilAction("add")
	}

	node := &asyncNode{next: &d.core.head, action: action}
	d.core.bindContinuation(node)
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

func (d *AsyncDispatcher) spawnWorker(start *asyncNode) {
	d.core.gate.AddParticipant()
	d.core.wg.Add(1)
	id := d.workers
	d.workers++
	go d.core.workerLoop(start, id)
}

// ExecuteAndWaitAsync triggers one cycle and returns the dispatcher's
// reusable Completion. The driver runs the caller strand itself; if that
// strand suspends, ExecuteAndWaitAsync returns while the cycle is still
// in flight and the Completion fires later.
func (d *AsyncDispatcher) ExecuteAndWaitAsync() (api.Completion, error) {
	if err := d.checkIdle("execute_and_wait_async"); err != nil {
		return nil, err
	}
	if d.callerNode == nil {
		return nil, errNoCallables("execute_and_wait_async")
	}

	c := d.core
	d.inCycle = true
	d.status.Store(int32(api.StatusRunning))

	c.cursor.position(d.stealPos)
	d.savedNext = c.head.next
	c.head.next = &c.head
	c.comp.reset(int32(d.workers) + 1)

	c.gate.SignalAndWait()
	c.runStrand(d.callerNode)
	return &c.comp, nil
}

// Dispose marks every action absent, clears the alive flag, releases the
// workers one last time and joins them. Rejected while a cycle is still
// pending.
func (d *AsyncDispatcher) Dispose() error {
	if api.DispatcherStatus(d.status.Load()) == api.StatusDisposed {
		return errDisposed("dispose")
	}
	if d.inCycle {
		if !d.core.comp.IsCompleted() {
			return errCycleRunning("dispose")
		}
		d.settleCycle()
	}

	c := d.core
	d.callerNode = nil
	for n := c.head.next; n != &c.head; n = n.next {
		n.action = nil
	}
	c.alive.Store(false)
	c.gate.SignalAndWait()
	c.wg.Wait()
	runtime.SetFinalizer(d, nil)
	d.status.Store(int32(api.StatusDisposed))
	return nil
}

// Shutdown implements api.GracefulShutdown by delegating to Dispose.
func (d *AsyncDispatcher) Shutdown() error {
	return d.Dispose()
}

// Status reports the current lifecycle state.
func (d *AsyncDispatcher) Status() api.DispatcherStatus {
	return api.DispatcherStatus(d.status.Load())
}

// Stats returns a snapshot of runtime counters for metrics and probes.
func (d *AsyncDispatcher) Stats() api.DispatcherStats {
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
