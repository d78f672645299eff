package core

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Reactor: Background executor for future-based tasks
// =============================================================================

// FutureFunc is the unit of asynchronous work. It runs on a reactor worker,
// concurrently with the update thread; the owning handle only ever observes
// resolved/unresolved at poll time. ctx is cancelled when the handle is
// killed.
type FutureFunc func(ctx context.Context) (any, error)

// FutureTask is a future registered with a reactor. Resolution is observed
// through the wrapping handle; the task itself is only exposed for Cancel.
type FutureTask struct {
	fn     FutureFunc
	ctx    context.Context
	cancel context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
	result   any
	err      error

	canceled atomic.Bool
}

// Cancel cancels the task's context and, if it has not started running,
// resolves it as cancelled so no work is wasted. Safe to call repeatedly.
func (t *FutureTask) Cancel() {
	t.canceled.Store(true)
	t.cancel()
}

func (t *FutureTask) resolved() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// value returns the resolution. Only meaningful once resolved() is true.
func (t *FutureTask) value() (any, error) {
	return t.result, t.err
}

func (t *FutureTask) resolve(result any, err error) {
	t.doneOnce.Do(func() {
		t.result = result
		t.err = err
		close(t.done)
	})
}

func (t *FutureTask) run() {
	if t.canceled.Load() {
		t.resolve(nil, context.Canceled)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			t.resolve(nil, &ComputationFault{PanicValue: r, Stack: debug.Stack()})
		}
	}()

	result, err := t.fn(t.ctx)
	t.resolve(result, err)
}

// Reactor manages the worker goroutines that drive future-based tasks to
// completion between polls. Reactor-internal concurrency is opaque to
// handles: workers never share mutable state with them, all they do is
// resolve tasks that handles read at poll boundaries.
type Reactor struct {
	workers int
	queue   chan *FutureTask

	group *errgroup.Group

	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex
}

// NewReactor creates a reactor with the given number of workers.
// The reactor does not execute anything until Start is called.
func NewReactor(workers int) *Reactor {
	if workers <= 0 {
		workers = 1
	}
	return &Reactor{
		workers: workers,
		queue:   make(chan *FutureTask, 64),
	}
}

// Start starts the worker goroutines; repeated calls are no-ops.
// Tasks submitted before Start are queued and picked up once workers run.
func (r *Reactor) Start(ctx context.Context) {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()

	if r.running {
		return
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.group, _ = errgroup.WithContext(r.ctx)
	r.running = true

	for i := 0; i < r.workers; i++ {
		r.group.Go(r.workerLoop)
	}
}

// Stop stops accepting new tasks, cancels the worker loops and waits for
// in-flight tasks to finish. Repeated calls are safe.
func (r *Reactor) Stop() {
	r.runningMu.Lock()
	if !r.running {
		r.runningMu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	group := r.group
	r.runningMu.Unlock()

	cancel()
	_ = group.Wait()

	// Pending tasks will never run; resolve them as cancelled so any handle
	// still polling one finalizes instead of waiting forever.
	for {
		select {
		case task := <-r.queue:
			task.resolve(nil, context.Canceled)
		default:
			return
		}
	}
}

// Submit registers fn with the reactor and returns its task.
// Returns ErrReactorStopped after Stop.
func (r *Reactor) Submit(fn FutureFunc) (*FutureTask, error) {
	r.runningMu.RLock()
	stopped := r.cancel != nil && !r.running
	r.runningMu.RUnlock()
	if stopped {
		return nil, ErrReactorStopped
	}

	ctx, cancel := context.WithCancel(context.Background())
	task := &FutureTask{
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	select {
	case r.queue <- task:
		return task, nil
	default:
		// Queue full: run the handoff in its own goroutine rather than
		// blocking the spawn call on reactor backpressure.
		go func() {
			select {
			case r.queue <- task:
			case <-ctx.Done():
				task.resolve(nil, context.Canceled)
			}
		}()
		return task, nil
	}
}

// PendingTaskCount returns the number of tasks queued but not yet picked up.
func (r *Reactor) PendingTaskCount() int {
	return len(r.queue)
}

// WorkerCount returns the configured number of workers.
func (r *Reactor) WorkerCount() int {
	return r.workers
}

func (r *Reactor) workerLoop() error {
	for {
		select {
		case <-r.ctx.Done():
			return nil
		case task := <-r.queue:
			task.run()
		}
	}
}
