package core

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// =============================================================================
// Error taxonomy
// =============================================================================

var (
	// ErrStaleHandle is returned when a control operation (Pause, Resume,
	// FinishWith, ...) targets a handle that already finished. The read-only
	// queries IsRunning and IsFinished never fail; everything that needs the
	// handle's live internals does, distinctly from a plain "no".
	ErrStaleHandle = errors.New("coroutine handle is finished")

	// ErrHandleBusy is returned when an operation needs exclusive control of
	// the handle while it is mid-poll, such as RunToCompletion called on a
	// coroutine that is currently being ticked (including by its own body).
	ErrHandleBusy = errors.New("coroutine handle is mid-poll")

	// ErrOwnerDestroyed is returned by Spawn when the owner is already
	// destroyed. Spawning against a dying owner fails fast instead of
	// producing a handle that would never tick.
	ErrOwnerDestroyed = errors.New("owner has been destroyed")

	// ErrReactorStopped is returned by Reactor.Submit after shutdown.
	ErrReactorStopped = errors.New("reactor is stopped")

	// ErrNoReactor is returned when spawning a future-based task on a ticker
	// that was configured without a reactor.
	ErrNoReactor = errors.New("ticker has no reactor configured")

	// ErrRunAwayCoroutine is returned by RunToCompletion when the coroutine
	// exceeds the resume cap without completing.
	ErrRunAwayCoroutine = errors.New("coroutine exceeded the maximum number of resumes (4096)")
)

// ComputationFault wraps a panic recovered while advancing a coroutine or
// evaluating one of its conditions. The handle finalizes abnormally and the
// fault is surfaced through the completion channel and the FaultHandler;
// it is never retried.
type ComputationFault struct {
	PanicValue any
	Stack      []byte
}

func newComputationFault(panicValue any) *ComputationFault {
	return &ComputationFault{
		PanicValue: panicValue,
		Stack:      debug.Stack(),
	}
}

func (f *ComputationFault) Error() string {
	return fmt.Sprintf("coroutine fault: %v", f.PanicValue)
}
