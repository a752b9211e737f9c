// Package proactor provides the completion engine the stream core
// consumes but does not implement. Engine and Executor give one
// single-goroutine executor per stream, mirroring the "one worker per
// host" shape in modules/renter/worker.go and workerloop.go, with
// submitted work draining strictly in order so that two operations on the
// same stream are never interleaved and completions fire in submission
// order per stream, by construction. Cross-stream concurrency falls out
// for free: each Executor owns its own goroutine.
package proactor

import (
	"sync"
	"time"

	"gitlab.com/NebulousLabs/threadgroup"

	"gitlab.com/streamkit/asyncio/persist"
)

// Engine is the shared completion engine a Stream holds a back-reference
// to. It owns process-wide shutdown coordination (via threadgroup, the
// same pattern the Renter and ContractManager modules use) and the
// metrics every Executor reports into.
type Engine struct {
	tg      threadgroup.ThreadGroup
	log     *persist.Logger
	metrics *Metrics
}

// NewEngine returns a ready-to-use Engine. Callers must call Close when
// done, which stops every Executor spawned from it.
func NewEngine(log *persist.Logger) *Engine {
	if log == nil {
		log = persist.Discard()
	}
	return &Engine{
		log:     log,
		metrics: newMetrics(),
	}
}

// Metrics exposes the Engine's Prometheus collectors for registration by a
// caller that runs its own /metrics endpoint.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Close signals every Executor spawned from this Engine to stop and waits
// for in-flight work to finish.
func (e *Engine) Close() error {
	return e.tg.Stop()
}

// NewExecutor spawns a new single-goroutine executor, the proactor-side
// handle a Stream holds for the lifetime of its open back-end. name is
// used only for logging/metrics labels.
func (e *Engine) NewExecutor(name string) (*Executor, error) {
	if err := e.tg.Add(); err != nil {
		return nil, err
	}
	x := &Executor{
		engine:   e,
		name:     name,
		wakeChan: make(chan struct{}, 1),
		killChan: make(chan struct{}),
	}
	e.metrics.activeExecutors.Inc()
	go x.threadedLoop()
	return x, nil
}

// Executor serializes work for a single stream, the Go analogue of a
// per-worker goroutine (worker.go's threadedWorkLoop). Submit is safe to
// call from any goroutine; queued functions run strictly in the order
// they were submitted, one at a time, on the Executor's own goroutine —
// this is the mechanism that gives the stream core its "at most one
// outstanding back-end operation per stream" invariant.
type Executor struct {
	engine *Engine
	name   string

	mu      sync.Mutex
	jobs    []func()
	stopped bool

	wakeChan chan struct{}
	killChan chan struct{}
	stopOnce sync.Once
}

// Submit enqueues fn to run on the executor's goroutine. It returns false,
// without running fn, if the executor has already been stopped — callers
// must treat that as a rejected submission: no callback fires for it.
func (x *Executor) Submit(fn func()) bool {
	x.mu.Lock()
	if x.stopped {
		x.mu.Unlock()
		return false
	}
	x.jobs = append(x.jobs, fn)
	x.mu.Unlock()

	select {
	case x.wakeChan <- struct{}{}:
	default:
	}
	return true
}

// Schedule enqueues fn to run after delay has elapsed. delay is a
// non-negative hint; zero means as soon as the proactor can dispatch, and
// submits immediately.
func (x *Executor) Schedule(delay time.Duration, fn func()) bool {
	if delay <= 0 {
		return x.Submit(fn)
	}
	x.mu.Lock()
	stopped := x.stopped
	x.mu.Unlock()
	if stopped {
		return false
	}
	time.AfterFunc(delay, func() { x.Deliver(fn) })
	return true
}

// Deliver runs fn on the executor's own goroutine, same as Submit, except
// it never drops fn: if the executor has already stopped, fn runs
// immediately on the calling goroutine instead of being discarded.
// Back-ends call Deliver, never Submit, to hand off the completion of an
// operation they already accepted (returned true for) — that completion
// must reach the user callback exactly once no matter how a concurrent
// Kill races it, whereas Submit's false return is reserved for rejecting
// work that was never accepted in the first place.
func (x *Executor) Deliver(fn func()) {
	if !x.Submit(fn) {
		fn()
	}
}

// StopChan returns a channel closed once Stop has been called. The stream
// core's trampolines check the stream's stopped flag on resume, not this
// channel.
func (x *Executor) StopChan() <-chan struct{} {
	return x.killChan
}

// Stop marks the executor stopped, rejecting further submissions, and
// releases its goroutine once any job currently executing finishes. Jobs
// still queued at the time of Stop are dropped, not executed; the stream
// core guarantees their user callbacks fired synchronously or will fire
// through its own kill handling, never through an executor drain.
func (x *Executor) Stop() {
	x.stopOnce.Do(func() {
		x.mu.Lock()
		x.stopped = true
		x.jobs = nil
		x.mu.Unlock()
		close(x.killChan)
		select {
		case x.wakeChan <- struct{}{}:
		default:
		}
	})
}

// threadedLoop is the Executor's dedicated goroutine, modeled on
// worker.go's threadedWorkLoop: wait for a wake signal, drain the queue
// one job at a time, repeat until stopped and drained.
func (x *Executor) threadedLoop() {
	defer x.engine.tg.Done()
	defer x.engine.metrics.activeExecutors.Dec()
	for {
		job, ok := x.next()
		if ok {
			job()
			continue
		}

		x.mu.Lock()
		stopped := x.stopped
		x.mu.Unlock()
		if stopped {
			return
		}

		select {
		case <-x.wakeChan:
		case <-x.engine.tg.StopChan():
			x.Stop()
			return
		}
	}
}

// next pops the oldest queued job, if any.
func (x *Executor) next() (func(), bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.jobs) == 0 {
		return nil, false
	}
	job := x.jobs[0]
	x.jobs = x.jobs[1:]
	return job, true
}
