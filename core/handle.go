package core

import (
	"sync"
)

// =============================================================================
// PollMode: Tick channel selection
// =============================================================================

// PollMode selects which tick channel delivers effective ticks to a handle.
// Exactly one channel is chosen at construction; ticks on the other channel
// are ignored.
type PollMode int

const (
	// PollModeVariable polls the handle on the variable-rate tick channel
	// (the host's per-frame update). This is the default.
	PollModeVariable PollMode = iota

	// PollModeFixed polls the handle on the fixed-rate tick channel
	// (the host's physics/simulation update).
	PollModeFixed
)

func (m PollMode) String() string {
	switch m {
	case PollModeVariable:
		return "variable"
	case PollModeFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// =============================================================================
// State: Handle lifecycle
// =============================================================================

// State is the lifecycle state of a coroutine handle.
type State int

const (
	// StateCreated is the transient state during construction, before the
	// handle is attached under its owner.
	StateCreated State = iota

	// StateRunning means the handle receives effective ticks.
	StateRunning

	// StatePaused means ticks are delivered but ignored, either because the
	// caller paused the handle or because its owner left the active tree.
	StatePaused

	// StateFinished is terminal. The handle stays safely queryable but its
	// computation is gone.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Completion is delivered on a handle's Done channel when it finalizes.
// Err is non-nil when the coroutine finalized abnormally (ComputationFault);
// a killed coroutine closes the channel without delivering a Completion.
type Completion struct {
	Result any
	Err    error
}

// maxRunToCompletionResumes caps RunToCompletion so a coroutine stuck in a
// yield loop cannot hang the caller.
const maxRunToCompletionResumes = 4096

// =============================================================================
// Handle
// =============================================================================

// Handle is the addressable unit wrapping one suspended/running computation.
//
// A handle is always attached beneath exactly one owner; the owner delivers
// ticks and controls destruction. All control operations are safe to call at
// any time, including from inside another coroutine's body during the same
// tick; operations that need the handle's live internals return ErrStaleHandle
// once it has finished, while IsRunning and IsFinished always answer.
type Handle struct {
	id       HandleID
	owner    *Owner
	pollMode PollMode
	priority int

	comp computation

	logger  Logger
	metrics Metrics
	faults  FaultHandler

	done chan Completion

	mu              sync.Mutex
	spawned         bool
	finished        bool
	paused          bool
	ownerInactive   bool
	polling         bool
	killRequested   bool
	finishRequested bool
	finishResult    any
	cond            Yield
	result          any
	err             error
	onFinish        []func(result any)
}

// ID returns the handle's stable identity. The ID outlives the handle: it can
// be stored and queried (HandleIsFinished, HandleIsRunning) after destruction.
func (h *Handle) ID() HandleID {
	return h.id
}

// PollMode returns the tick channel the handle was configured with.
func (h *Handle) PollMode() PollMode {
	return h.pollMode
}

// TickPriority returns the ordering hint used among siblings under one owner.
func (h *Handle) TickPriority() int {
	return h.priority
}

// OwnerName returns the name of the owner the handle is attached beneath.
func (h *Handle) OwnerName() string {
	return h.owner.Name()
}

// State returns the handle's lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.finished:
		return StateFinished
	case !h.spawned:
		return StateCreated
	case h.paused || h.ownerInactive:
		return StatePaused
	default:
		return StateRunning
	}
}

// IsRunning reports whether the handle is still live (not finished).
// A paused handle is still running in this sense. Never fails.
func (h *Handle) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.finished
}

// IsFinished reports whether the handle has finished. Never fails.
func (h *Handle) IsFinished() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finished
}

// Done returns the single-fire completion channel. On normal or abnormal
// completion exactly one Completion is delivered, then the channel closes.
// When the handle is killed (explicitly or by owner destruction) the channel
// closes without a value: receivers observe the zero Completion with ok==false.
func (h *Handle) Done() <-chan Completion {
	return h.done
}

// Result returns the coroutine's result once finished.
// Returns ErrStaleHandle while the coroutine is still running, and the
// original fault if it finalized abnormally.
func (h *Handle) Result() (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.finished {
		return nil, ErrStaleHandle
	}
	return h.result, h.err
}

// WaitUntilFinished returns a condition another coroutine can yield on to
// wait for this handle. The condition holds only the handle's ID; if the
// handle is destroyed while someone waits on it, the wait resolves as
// satisfied instead of dangling.
func (h *Handle) WaitUntilFinished() Yield {
	return &handleYield{id: h.id}
}

// =============================================================================
// Control surface
// =============================================================================

// Pause stops the handle from acting on delivered ticks. Any partially
// elapsed countdown is preserved. Returns ErrStaleHandle if the handle
// already finished.
func (h *Handle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finished {
		return ErrStaleHandle
	}
	h.paused = true
	return nil
}

// Resume undoes an explicit Pause. It does not override owner inactivity:
// a handle whose owner is outside the active tree stays suspended until the
// owner returns. Returns ErrStaleHandle if the handle already finished.
func (h *Handle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finished {
		return ErrStaleHandle
	}
	h.paused = false
	return nil
}

// Kill finalizes the handle without a result: the completion notification
// never fires and the Done channel closes empty. Killing a handle that is
// mid-poll defers destruction to the end of that poll; killing a finished
// handle is a no-op. Kill never fails.
func (h *Handle) Kill() {
	h.mu.Lock()
	if h.finished || h.killRequested {
		h.mu.Unlock()
		return
	}
	h.killRequested = true
	if h.polling {
		// Mid-poll: the poll loop observes the request and finalizes.
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	if h.finalize(nil, nil, false) {
		h.metrics.RecordKill(h.owner.Name())
	}
}

// FinishWith force-finishes the handle with the supplied result, firing the
// completion notification as if the coroutine had returned it. Like Kill,
// calling it on a handle that is mid-poll (including from inside its own body)
// defers finalization to the end of that poll; the forced result wins over
// whatever the body produces in the meantime. A pending Kill wins over a
// pending FinishWith. Returns ErrStaleHandle if the handle already finished.
func (h *Handle) FinishWith(result any) error {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return ErrStaleHandle
	}
	if h.polling {
		h.finishRequested = true
		h.finishResult = result
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	h.finalizeForced(result)
	return nil
}

// RunToCompletion drives the coroutine synchronously to its end, ignoring
// wait conditions, and returns the result directly. The completion
// notification does not fire; the Done channel closes empty.
//
// Running every remaining instruction at once can produce surprising results;
// the resume count is capped, and exceeding the cap kills the coroutine and
// returns ErrRunAwayCoroutine. A future-based task that has not resolved yet
// cannot be forced and also hits the cap.
//
// Returns ErrStaleHandle on a finished handle and ErrHandleBusy on a handle
// that is mid-poll, such as a coroutine trying to drain itself.
func (h *Handle) RunToCompletion() (any, error) {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return nil, ErrStaleHandle
	}
	if h.polling {
		h.mu.Unlock()
		return nil, ErrHandleBusy
	}
	h.polling = true
	h.cond = nil
	h.mu.Unlock()

	for i := 0; i < maxRunToCompletionResumes; i++ {
		out, err := h.comp.advance(0)
		if err != nil {
			h.finalizeFault(err)
			return nil, err
		}
		if out.done {
			h.finalize(out.result, nil, false)
			return out.result, nil
		}
	}

	h.logger.Error("coroutine exceeded the maximum number of resumes, force stopping",
		F("handle", h.id), F("owner", h.owner.Name()))

	if h.finalize(nil, ErrRunAwayCoroutine, false) {
		h.metrics.RecordKill(h.owner.Name())
	}
	return nil, ErrRunAwayCoroutine
}

// =============================================================================
// Tick delivery and the poll state machine
// =============================================================================

// DeliverTick is the owner-facing tick entry point. The tick is effective
// only when mode matches the handle's channel and the handle is neither
// paused, owner-suspended, finished, nor already mid-poll.
// Reports whether the tick was effective.
func (h *Handle) DeliverTick(mode PollMode, deltaTime float64) bool {
	h.mu.Lock()
	if h.finished || h.polling || h.paused || h.ownerInactive || mode != h.pollMode {
		h.mu.Unlock()
		return false
	}
	h.polling = true
	cond := h.cond
	h.cond = nil
	h.mu.Unlock()

	h.runPoll(cond, deltaTime)
	return true
}

// runPoll advances the suspended computation through one tick:
//
//   - a present condition still waiting ends the tick
//   - a satisfied condition is cleared and the computation advances again
//     within the same tick (no extra tick of latency)
//   - a freshly produced condition is evaluated in the same tick it was
//     yielded, so Frames(k) costs exactly k ticks from the yield
//   - leftover delta from an exhausted countdown feeds the continuation
func (h *Handle) runPoll(cond Yield, deltaTime float64) {
	for {
		if h.takeKillRequest() {
			h.finalizeKilled()
			return
		}
		if result, ok := h.takeFinishRequest(); ok {
			h.finalizeForced(result)
			return
		}

		if cond != nil {
			waiting, leftover, err := cond.keepWaiting(deltaTime)
			if err != nil {
				h.finalizeFault(err)
				return
			}
			if waiting {
				h.parkOn(cond)
				return
			}
			cond = nil
			deltaTime = leftover
		}

		out, err := h.comp.advance(deltaTime)

		// The body may have requested its own destruction or forced finish
		// during advance; those requests win over whatever the advance
		// produced, and a kill wins over a forced finish.
		if h.takeKillRequest() {
			h.finalizeKilled()
			return
		}
		if result, ok := h.takeFinishRequest(); ok {
			h.finalizeForced(result)
			return
		}
		if err != nil {
			h.finalizeFault(err)
			return
		}
		if out.done {
			if h.finalize(out.result, nil, true) {
				h.metrics.RecordCompletion(h.owner.Name())
			}
			return
		}
		if out.cond == nil {
			// Future task still pending; the reactor decides readiness,
			// check again next tick.
			h.parkOn(nil)
			return
		}
		cond = out.cond
	}
}

// parkOn stores the condition to re-evaluate next tick and leaves the poll.
func (h *Handle) parkOn(cond Yield) {
	h.mu.Lock()
	h.cond = cond
	h.polling = false
	killed := h.killRequested && !h.finished
	forced := !killed && h.finishRequested && !h.finished
	result := h.finishResult
	h.mu.Unlock()

	if killed {
		h.finalizeKilled()
		return
	}
	if forced {
		h.finalizeForced(result)
	}
}

func (h *Handle) takeKillRequest() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.killRequested && !h.finished
}

func (h *Handle) takeFinishRequest() (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.finishRequested || h.killRequested || h.finished {
		return nil, false
	}
	return h.finishResult, true
}

// =============================================================================
// Owner lifecycle events
// =============================================================================

// notifyOwnerInactive is pushed by the owner when it leaves or re-enters the
// active tree. Owner inactivity suspends effective ticking without touching
// the explicit pause flag, so re-entering the tree never un-pauses a handle
// the caller paused.
func (h *Handle) notifyOwnerInactive(inactive bool) {
	h.mu.Lock()
	h.ownerInactive = inactive
	h.mu.Unlock()
}

// notifyOwnerDestroyed is pushed by the owner during Destroy. The handle is
// destroyed synchronously and its completion notification never fires.
func (h *Handle) notifyOwnerDestroyed() {
	if h.finalize(nil, nil, false) {
		h.metrics.RecordKill(h.owner.Name())
	}
}

// =============================================================================
// Finalization
// =============================================================================

// finalize is the single Finished transition. It runs at most once; later
// calls report false. notify controls whether the completion notification
// (Done delivery plus on-finish callbacks) fires.
func (h *Handle) finalize(result any, err error, notify bool) bool {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return false
	}
	h.finished = true
	h.polling = false
	h.cond = nil
	h.result = result
	h.err = err
	callbacks := h.onFinish
	h.onFinish = nil
	h.mu.Unlock()

	h.comp.dispose()
	unregisterHandle(h.id)
	h.owner.detach(h)
	h.metrics.RecordLiveHandles(LiveHandleCount())

	if notify {
		if err != nil {
			h.done <- Completion{Err: err}
		} else {
			h.done <- Completion{Result: result}
		}
	}
	close(h.done)

	if notify && err == nil {
		// Synchronous, within the tick that detected completion.
		for _, cb := range callbacks {
			cb(result)
		}
	}
	return true
}

func (h *Handle) finalizeKilled() {
	if h.finalize(nil, nil, false) {
		h.metrics.RecordKill(h.owner.Name())
	}
}

// finalizeForced completes a FinishWith request that was deferred because the
// handle was mid-poll when it arrived.
func (h *Handle) finalizeForced(result any) {
	if h.finalize(result, nil, true) {
		h.metrics.RecordCompletion(h.owner.Name())
	}
}

func (h *Handle) finalizeFault(err error) {
	if h.finalize(nil, err, true) {
		var panicVal any = err
		var stack []byte
		if fault, ok := err.(*ComputationFault); ok {
			panicVal = fault.PanicValue
			stack = fault.Stack
		}
		h.faults.HandleFault(h.id, h.owner.Name(), panicVal, stack)
		h.metrics.RecordFault(h.owner.Name())
	}
}
