package core

import (
	"runtime/debug"
	"sync"
)

// =============================================================================
// Suspendable computations
// =============================================================================

// outcome is the result of advancing a computation by one step.
//
// Exactly one applies per advance:
//   - done: the computation completed with result
//   - cond != nil: the computation suspended on an explicit condition
//   - cond == nil: the computation is still pending with no condition of its
//     own (future tasks; the reactor decides readiness, check again next tick)
type outcome struct {
	done   bool
	result any
	cond   Yield
}

// computation unifies the two suspendable forms behind a single contract.
// The handle never knows which form backs it; it only advances and inspects.
type computation interface {
	// advance resumes the computation from its last suspension point.
	// A non-nil error is a fatal ComputationFault for the handle.
	advance(deltaTime float64) (outcome, error)

	// dispose releases the computation without completing it (kill path).
	// Safe to call more than once and safe to call after completion.
	dispose()
}

// =============================================================================
// Step coroutines
// =============================================================================

// A Flow is handed to a coroutine body so it can suspend itself.
// It is only valid inside that body, on the body's own goroutine.
type Flow struct {
	comp *stepComputation
}

// Yield suspends the coroutine body until cond is satisfied.
// It returns once the scheduler resumes the body; if the handle was killed
// in the meantime, Yield unwinds the body instead of returning, running any
// deferred calls on the way out.
func (fl *Flow) Yield(cond Yield) {
	s := fl.comp
	select {
	case s.events <- stepEvent{cond: cond}:
	case <-s.kill:
		panic(errFlowKilled)
	}
	select {
	case <-s.resume:
	case <-s.kill:
		panic(errFlowKilled)
	}
}

// CoroutineFunc is a step-function coroutine body. Each call to flow.Yield is
// a suspension point; returning completes the coroutine with the returned
// value as its result.
type CoroutineFunc func(flow *Flow) any

// errFlowKilled unwinds a coroutine body goroutine when its handle is killed.
// It must never escape this package: the recover at the goroutine top catches
// it before the goroutine exits.
type flowKilled struct{}

var errFlowKilled = flowKilled{}

type stepEvent struct {
	cond     Yield
	result   any
	done     bool
	faulted  bool
	panicVal any
	stack    []byte
}

// stepComputation runs the body on a dedicated goroutine and rendezvouses
// with it over unbuffered channels. The goroutine pins the body's locals the
// same way a native resumable function would; between advances it is parked
// on a channel receive, so the body never runs concurrently with the
// scheduling tick that drives it.
type stepComputation struct {
	resume chan struct{}
	events chan stepEvent
	kill   chan struct{}

	killOnce sync.Once

	// Only advance touches finished; dispose signals through kill so it can
	// run from any goroutine without racing the scheduler.
	finished bool
}

func newStepComputation(f CoroutineFunc) *stepComputation {
	s := &stepComputation{
		resume: make(chan struct{}),
		events: make(chan stepEvent),
		kill:   make(chan struct{}),
	}
	flow := &Flow{comp: s}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				if _, killed := r.(flowKilled); killed {
					return
				}
				stack := debug.Stack()
				select {
				case s.events <- stepEvent{faulted: true, panicVal: r, stack: stack}:
				case <-s.kill:
				}
			}
		}()

		// Do not run any of the body until the first advance.
		select {
		case <-s.resume:
		case <-s.kill:
			return
		}

		result := f(flow)

		select {
		case s.events <- stepEvent{done: true, result: result}:
		case <-s.kill:
		}
	}()

	return s
}

func (s *stepComputation) advance(_ float64) (outcome, error) {
	if s.finished {
		return outcome{}, ErrStaleHandle
	}

	select {
	case s.resume <- struct{}{}:
	case <-s.kill:
		s.finished = true
		return outcome{}, ErrStaleHandle
	}

	// The body can dispose its own computation mid-step (finishing or
	// destroying its handle from inside); it then unwinds through the kill
	// channel without sending an event, so the receive must not block on
	// events alone or the tick would never return.
	select {
	case ev := <-s.events:
		switch {
		case ev.faulted:
			s.finished = true
			return outcome{}, &ComputationFault{PanicValue: ev.panicVal, Stack: ev.stack}
		case ev.done:
			s.finished = true
			return outcome{done: true, result: ev.result}, nil
		default:
			return outcome{cond: ev.cond}, nil
		}
	case <-s.kill:
		s.finished = true
		return outcome{}, ErrStaleHandle
	}
}

func (s *stepComputation) dispose() {
	s.killOnce.Do(func() {
		close(s.kill)
	})
}

// =============================================================================
// Future tasks
// =============================================================================

// futureComputation adapts a reactor-driven FutureTask to the computation
// contract. The reactor resolves the task on its own workers; each advance
// only observes resolved/unresolved, never blocks on the task.
type futureComputation struct {
	task *FutureTask
}

func newFutureComputation(task *FutureTask) *futureComputation {
	return &futureComputation{task: task}
}

func (c *futureComputation) advance(_ float64) (outcome, error) {
	if !c.task.resolved() {
		// No explicit condition; the reactor decides readiness.
		return outcome{}, nil
	}
	result, err := c.task.value()
	if err != nil {
		if fault, ok := err.(*ComputationFault); ok {
			return outcome{}, fault
		}
		return outcome{}, &ComputationFault{PanicValue: err}
	}
	return outcome{done: true, result: result}, nil
}

func (c *futureComputation) dispose() {
	c.task.Cancel()
}
