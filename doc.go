// Package coroutines provides cooperative, frame-driven coroutine scheduling for Go.
//
// This library implements the coroutine model found in game engines: long-running
// logic is written as a sequence of steps separated by wait conditions (time
// elapsed, frames elapsed, predicate, another coroutine finishing), and a scheduler
// advances every suspended coroutine exactly once per tick of the host's update loop.
//
// # Quick Start
//
// Initialize the global runtime at application startup:
//
//	coroutines.InitRuntime(4) // 4 reactor workers for async tasks
//	defer coroutines.ShutdownRuntime()
//
// Create an owner and start a coroutine beneath it:
//
//	owner := coroutines.NewOwner("player")
//	handle, _ := owner.StartCoroutine(func(flow *coroutines.Flow) any {
//		flow.Yield(coroutines.Seconds(1.5))
//		// 1.5 seconds of scheduler time have passed
//		flow.Yield(coroutines.Frames(2))
//		// 2 more ticks have passed
//		return 42
//	})
//
// Drive the scheduler from the host's update loop:
//
//	coroutines.OnVariableTick(deltaTime) // once per frame
//	coroutines.OnFixedTick(fixedDelta)   // once per physics step
//
// # Key Concepts
//
// Handle: The addressable unit wrapping one running coroutine. Supports
// Pause/Resume/Kill, completion callbacks, a single-fire Done channel, and
// composition via WaitUntilFinished.
//
// Owner: The tree-resident object a handle is attached beneath. Removing an
// owner from the tree suspends its coroutines without destroying them;
// destroying the owner destroys them synchronously without firing completion.
//
// Ticker: The per-tick entry point with two independent channels, variable-rate
// and fixed-rate. A handle is polled by exactly one channel, chosen at spawn.
//
// Reactor: The background executor for future-based tasks. Async work runs on
// reactor workers; the coroutine handle observes resolution once per tick.
//
// # Threading Model
//
// All coroutine bodies execute on the goroutine that drives the ticks,
// cooperative multitasking only. Suspension happens solely at explicit
// flow.Yield calls. Reactor tasks are the exception: their functions run on
// background workers, but handles only read their resolved state at poll time.
//
// # Example
//
//	import (
//		coroutines "github.com/spirekit/go-coroutines"
//	)
//
//	func main() {
//		coroutines.InitRuntime(2)
//		defer coroutines.ShutdownRuntime()
//
//		owner := coroutines.NewOwner("demo")
//		handle, _ := owner.Coroutine(func(flow *coroutines.Flow) any {
//			flow.Yield(coroutines.Frames(3))
//			return "done"
//		}).OnFinish(func(result any) {
//			fmt.Println("finished:", result)
//		}).Spawn()
//
//		for handle.IsRunning() {
//			coroutines.OnVariableTick(1.0 / 60.0)
//		}
//	}
package coroutines
