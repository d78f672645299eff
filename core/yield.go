package core

// =============================================================================
// Yield: Wait conditions between coroutine steps
// =============================================================================

// KeepWaiting is the extension point for custom wait conditions.
// Any type implementing this single method can be used as a yield
// condition via WaitFor.
//
// KeepWaiting is called once per effective tick with the tick's delta time.
// The coroutine stays suspended as long as it returns true.
type KeepWaiting interface {
	KeepWaiting(deltaTime float64) bool
}

// Yield describes what a suspended coroutine is waiting for.
//
// Values are produced by the constructors in this package (Frames, Seconds,
// WaitUntil, WaitWhile, WaitFor) or by Handle.WaitUntilFinished.
// A condition that reported "satisfied" once is dropped by the handle and
// never evaluated again for that suspension point.
type Yield interface {
	// keepWaiting evaluates the condition against one tick.
	//
	// leftover is the portion of deltaTime not consumed by the condition;
	// it is fed into whatever the coroutine does next within the same tick
	// (only time-based countdowns consume delta).
	// err is non-nil when a user-supplied predicate panicked; the handle
	// treats it as fatal for the coroutine.
	keepWaiting(deltaTime float64) (waiting bool, leftover float64, err error)
}

// -----------------------------------------------------------------------------
// Frames
// -----------------------------------------------------------------------------

type framesYield struct {
	remaining uint64
}

// Frames suspends the coroutine for n effective ticks on its poll channel.
//
// The countdown is independent of delta time: a Frames(30) condition needs
// exactly 30 evaluations to be satisfied, however long the ticks take.
// Frames(0) is satisfied immediately.
func Frames(n uint64) Yield {
	return &framesYield{remaining: n}
}

func (y *framesYield) keepWaiting(deltaTime float64) (bool, float64, error) {
	if y.remaining > 0 {
		y.remaining--
	}
	return y.remaining > 0, deltaTime, nil
}

// -----------------------------------------------------------------------------
// Seconds
// -----------------------------------------------------------------------------

type secondsYield struct {
	remaining float64
}

// Seconds suspends the coroutine until the given amount of scheduler time has
// elapsed on its poll channel. Time only passes while the coroutine is being
// effectively ticked: pausing the handle or removing its owner from the tree
// freezes the countdown without resetting it.
func Seconds(s float64) Yield {
	return &secondsYield{remaining: s}
}

func (y *secondsYield) keepWaiting(deltaTime float64) (bool, float64, error) {
	// A zero or negative delta must not advance the countdown.
	if deltaTime < 0 {
		deltaTime = 0
	}
	y.remaining -= deltaTime
	if y.remaining > 0 {
		return true, 0, nil
	}
	// The countdown ate only part of the delta; hand the remainder to the
	// next step so chained Seconds conditions do not drift by a tick.
	return false, -y.remaining, nil
}

// -----------------------------------------------------------------------------
// Predicates
// -----------------------------------------------------------------------------

type predicateYield struct {
	pred func() bool
	// until waits for the predicate to become true, while waits for false
	until bool
}

// WaitUntil suspends the coroutine until pred returns true.
// pred is invoked once per effective tick. If pred panics, the coroutine
// finalizes abnormally; the panic is not retried.
func WaitUntil(pred func() bool) Yield {
	return &predicateYield{pred: pred, until: true}
}

// WaitWhile suspends the coroutine as long as pred returns true.
// pred is invoked once per effective tick. If pred panics, the coroutine
// finalizes abnormally; the panic is not retried.
func WaitWhile(pred func() bool) Yield {
	return &predicateYield{pred: pred}
}

func (y *predicateYield) keepWaiting(deltaTime float64) (waiting bool, leftover float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			waiting = false
			err = newComputationFault(r)
		}
	}()
	v := y.pred()
	if y.until {
		return !v, deltaTime, nil
	}
	return v, deltaTime, nil
}

// -----------------------------------------------------------------------------
// Custom conditions
// -----------------------------------------------------------------------------

type customYield struct {
	cond KeepWaiting
}

// WaitFor wraps any KeepWaiting implementation as a yield condition.
func WaitFor(cond KeepWaiting) Yield {
	return &customYield{cond: cond}
}

func (y *customYield) keepWaiting(deltaTime float64) (waiting bool, leftover float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			waiting = false
			err = newComputationFault(r)
		}
	}()
	return y.cond.KeepWaiting(deltaTime), deltaTime, nil
}

// -----------------------------------------------------------------------------
// Waiting on another handle
// -----------------------------------------------------------------------------

// handleYield holds a weak reference to another handle: only its ID.
// The target is resolved through the live-handle registry at every
// evaluation, so a vanished target reads as finished instead of dangling.
type handleYield struct {
	id HandleID
}

func (y *handleYield) keepWaiting(deltaTime float64) (bool, float64, error) {
	h, ok := findHandle(y.id)
	if !ok {
		// Target destroyed or never existed; waiting forever on it would
		// deadlock the coroutine, so a dangling wait counts as satisfied.
		return false, deltaTime, nil
	}
	return !h.IsFinished(), deltaTime, nil
}
