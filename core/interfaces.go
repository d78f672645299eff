package core

import "fmt"

// =============================================================================
// FaultHandler: Interface for handling coroutine faults
// =============================================================================

// FaultHandler is called when a coroutine body or one of its wait predicates
// panics during a tick. The handle has already finalized abnormally by the
// time the handler runs; the handler exists for logging and crash reporting,
// not for recovery.
//
// Implementations should be thread-safe: reactor-backed tasks can fault from
// reactor workers.
type FaultHandler interface {
	// HandleFault is called with the faulted handle's ID, its owner's name,
	// the recovered panic value and the stack trace captured at panic time
	// (nil for reactor task errors, which carry no engine stack).
	HandleFault(id HandleID, ownerName string, panicInfo any, stackTrace []byte)
}

// DefaultFaultHandler provides a basic fault handler that logs to stdout.
type DefaultFaultHandler struct{}

// HandleFault prints fault information to stdout.
func (h *DefaultFaultHandler) HandleFault(id HandleID, ownerName string, panicInfo any, stackTrace []byte) {
	if len(stackTrace) > 0 {
		fmt.Printf("[Coroutine %d @ %s] Fault: %v\nStack trace:\n%s",
			id, ownerName, panicInfo, stackTrace)
	} else {
		fmt.Printf("[Coroutine %d @ %s] Fault: %v\n", id, ownerName, panicInfo)
	}
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduling metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast: they run inside the tick that
// drives every coroutine in the process.
type Metrics interface {
	// RecordTick records one scheduling tick on the given channel.
	//
	// Parameters:
	// - mode: which tick channel fired
	// - polled: how many handles received an effective tick
	// - deltaTime: the tick's delta time in seconds
	RecordTick(mode PollMode, polled int, deltaTime float64)

	// RecordCompletion records a coroutine finishing normally.
	RecordCompletion(ownerName string)

	// RecordFault records a coroutine finalizing abnormally.
	RecordFault(ownerName string)

	// RecordKill records a coroutine being killed before completion
	// (explicit Kill or owner destruction).
	RecordKill(ownerName string)

	// RecordSpawnRejected records a spawn that failed fast
	// (e.g., owner already destroyed).
	RecordSpawnRejected(ownerName string, reason string)

	// RecordLiveHandles records the current number of live handles.
	RecordLiveHandles(count int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTick is a no-op.
func (m *NilMetrics) RecordTick(mode PollMode, polled int, deltaTime float64) {}

// RecordCompletion is a no-op.
func (m *NilMetrics) RecordCompletion(ownerName string) {}

// RecordFault is a no-op.
func (m *NilMetrics) RecordFault(ownerName string) {}

// RecordKill is a no-op.
func (m *NilMetrics) RecordKill(ownerName string) {}

// RecordSpawnRejected is a no-op.
func (m *NilMetrics) RecordSpawnRejected(ownerName string, reason string) {}

// RecordLiveHandles is a no-op.
func (m *NilMetrics) RecordLiveHandles(count int) {}

// =============================================================================
// TickerConfig: Configuration for Ticker
// =============================================================================

// TickerConfig holds configuration options for a Ticker.
// All fields are optional; if not provided, default implementations are used.
type TickerConfig struct {
	// Logger receives engine lifecycle logs. Defaults to NoOpLogger.
	Logger Logger

	// Metrics is called to record scheduling metrics. Defaults to NilMetrics.
	Metrics Metrics

	// FaultHandler is called when a coroutine faults. Defaults to DefaultFaultHandler.
	FaultHandler FaultHandler

	// Reactor resolves future-based tasks. Optional; owners spawned from a
	// ticker without a reactor cannot start async tasks.
	Reactor *Reactor
}

// DefaultTickerConfig returns a config with default handlers and no reactor.
func DefaultTickerConfig() *TickerConfig {
	return &TickerConfig{
		Logger:       NewNoOpLogger(),
		Metrics:      &NilMetrics{},
		FaultHandler: &DefaultFaultHandler{},
	}
}
