package coroutines

import "github.com/spirekit/go-coroutines/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the coroutines package for most use cases.

// Handle is the addressable unit wrapping one running coroutine
type Handle = core.Handle

// HandleID identifies a spawned coroutine handle
type HandleID = core.HandleID

// Builder customizes a coroutine before spawning it
type Builder = core.Builder

// Owner is the tree-resident object handles attach beneath
type Owner = core.Owner

// Ticker drives owners once per tick on each channel
type Ticker = core.Ticker

// Reactor drives future-based tasks on background workers
type Reactor = core.Reactor

// FutureTask is a future registered with a reactor
type FutureTask = core.FutureTask

// Flow is handed to a coroutine body so it can suspend itself
type Flow = core.Flow

// CoroutineFunc is a step-function coroutine body
type CoroutineFunc = core.CoroutineFunc

// FutureFunc is the unit of asynchronous work for async tasks
type FutureFunc = core.FutureFunc

// Yield describes what a suspended coroutine is waiting for
type Yield = core.Yield

// KeepWaiting is the extension point for custom wait conditions
type KeepWaiting = core.KeepWaiting

// Completion is delivered on a handle's Done channel when it finalizes
type Completion = core.Completion

// PollMode selects the tick channel of a handle
type PollMode = core.PollMode

// State is the lifecycle state of a handle
type State = core.State

// Poll mode constants
const (
	PollModeVariable PollMode = core.PollModeVariable
	PollModeFixed    PollMode = core.PollModeFixed
)

// State constants
const (
	StateCreated  State = core.StateCreated
	StateRunning  State = core.StateRunning
	StatePaused   State = core.StatePaused
	StateFinished State = core.StateFinished
)

// Yield condition constructors
var (
	Frames    = core.Frames
	Seconds   = core.Seconds
	WaitUntil = core.WaitUntil
	WaitWhile = core.WaitWhile
	WaitFor   = core.WaitFor
)

// Registry queries, safe on dead identities
var (
	FindHandle       = core.FindHandle
	HandleIsRunning  = core.HandleIsRunning
	HandleIsFinished = core.HandleIsFinished
	LiveHandleCount  = core.LiveHandleCount
)

// Error sentinels
var (
	ErrStaleHandle      = core.ErrStaleHandle
	ErrHandleBusy       = core.ErrHandleBusy
	ErrOwnerDestroyed   = core.ErrOwnerDestroyed
	ErrReactorStopped   = core.ErrReactorStopped
	ErrNoReactor        = core.ErrNoReactor
	ErrRunAwayCoroutine = core.ErrRunAwayCoroutine
)
