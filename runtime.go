package coroutines

import (
	"context"
	"sync"

	"github.com/spirekit/go-coroutines/core"
)

// The global runtime bundles one ticker and one reactor for applications that
// drive all their coroutines from a single update loop. Hosts embedding more
// than one independent loop can create core.Ticker instances directly.

var (
	globalTicker  *core.Ticker
	globalReactor *core.Reactor
	globalMu      sync.Mutex
)

// InitRuntime initializes the global runtime: a reactor with the given number
// of workers (started immediately) and a ticker wired to it.
// Repeated calls are no-ops.
func InitRuntime(reactorWorkers int) {
	InitRuntimeWithConfig(reactorWorkers, core.DefaultTickerConfig())
}

// InitRuntimeWithConfig initializes the global runtime with a custom ticker
// config. The config's Reactor field is overwritten with the runtime's own
// reactor. Repeated calls are no-ops.
func InitRuntimeWithConfig(reactorWorkers int, config *core.TickerConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalTicker != nil {
		return // Already initialized
	}

	globalReactor = core.NewReactor(reactorWorkers)
	globalReactor.Start(context.Background())

	if config == nil {
		config = core.DefaultTickerConfig()
	}
	config.Reactor = globalReactor
	globalTicker = core.NewTicker(config)
}

// GetTicker returns the global ticker.
// It panics if InitRuntime has not been called.
func GetTicker() *core.Ticker {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalTicker == nil {
		panic("runtime not initialized. Call InitRuntime() first.")
	}
	return globalTicker
}

// ShutdownRuntime destroys every owner spawned from the global ticker and
// stops the reactor.
func ShutdownRuntime() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalTicker != nil {
		globalTicker.Shutdown()
		globalTicker = nil
	}
	if globalReactor != nil {
		globalReactor.Stop()
		globalReactor = nil
	}
}

// NewOwner creates an owner registered with the global ticker.
// This is the recommended way to get a spawn point for coroutines.
func NewOwner(name string) *core.Owner {
	return GetTicker().NewOwner(name)
}

// OnVariableTick forwards a variable-rate tick to the global ticker.
func OnVariableTick(deltaTime float64) {
	GetTicker().OnVariableTick(deltaTime)
}

// OnFixedTick forwards a fixed-rate tick to the global ticker.
func OnFixedTick(deltaTime float64) {
	GetTicker().OnFixedTick(deltaTime)
}
