package core

import (
	"sync"
	"sync/atomic"
)

// =============================================================================
// Ticker: The per-tick scheduling entry point
// =============================================================================

// Ticker drives every owner registered with it. The host calls OnVariableTick
// once per frame and OnFixedTick once per physics step; each call advances
// exactly the handles configured for that channel.
//
// All coroutine bodies run on the goroutine that calls the tick methods
// (cooperative multitasking); the two methods must not be called
// concurrently with each other.
type Ticker struct {
	logger  Logger
	metrics Metrics
	faults  FaultHandler
	reactor *Reactor

	mu     sync.Mutex
	owners []*Owner

	variableTicks atomic.Int64
	fixedTicks    atomic.Int64
	completed     atomic.Int64
	faulted       atomic.Int64
	killed        atomic.Int64
	rejected      atomic.Int64
}

// NewTicker creates a ticker with the given configuration.
// A nil config and nil config fields fall back to defaults.
func NewTicker(config *TickerConfig) *Ticker {
	t := &Ticker{}

	if config != nil {
		t.logger = config.Logger
		t.metrics = config.Metrics
		t.faults = config.FaultHandler
		t.reactor = config.Reactor
	}
	if t.logger == nil {
		t.logger = NewNoOpLogger()
	}
	if t.metrics == nil {
		t.metrics = &NilMetrics{}
	}
	if t.faults == nil {
		t.faults = &DefaultFaultHandler{}
	}

	return t
}

// Reactor returns the reactor configured for this ticker, or nil.
func (t *Ticker) Reactor() *Reactor {
	return t.reactor
}

// NewOwner creates an owner registered with this ticker. The owner starts
// inside the active tree.
func (t *Ticker) NewOwner(name string) *Owner {
	o := &Owner{
		name:   name,
		ticker: t,
		inTree: true,
	}

	t.mu.Lock()
	t.owners = append(t.owners, o)
	t.mu.Unlock()

	t.logger.Debug("owner registered", F("owner", name))
	return o
}

// OnVariableTick delivers one variable-rate tick (the host's frame update).
func (t *Ticker) OnVariableTick(deltaTime float64) {
	t.variableTicks.Add(1)
	t.tick(PollModeVariable, deltaTime)
}

// OnFixedTick delivers one fixed-rate tick (the host's physics update).
func (t *Ticker) OnFixedTick(deltaTime float64) {
	t.fixedTicks.Add(1)
	t.tick(PollModeFixed, deltaTime)
}

func (t *Ticker) tick(mode PollMode, deltaTime float64) {
	t.mu.Lock()
	owners := make([]*Owner, len(t.owners))
	copy(owners, t.owners)
	t.mu.Unlock()

	polled := 0
	for _, o := range owners {
		polled += o.deliverTick(mode, deltaTime)
	}

	t.metrics.RecordTick(mode, polled, deltaTime)
}

// Shutdown destroys every owner (and with them, every attached handle).
// It does not stop a configured reactor; the reactor's lifetime belongs to
// whoever created it.
func (t *Ticker) Shutdown() {
	t.mu.Lock()
	owners := make([]*Owner, len(t.owners))
	copy(owners, t.owners)
	t.mu.Unlock()

	for _, o := range owners {
		o.Destroy()
	}

	t.logger.Info("ticker shut down", F("owners", len(owners)))
}

func (t *Ticker) removeOwner(o *Owner) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, owner := range t.owners {
		if owner == o {
			t.owners = append(t.owners[:i], t.owners[i+1:]...)
			return
		}
	}
}

// Stats returns a snapshot of the ticker's runtime state.
func (t *Ticker) Stats() TickerStats {
	t.mu.Lock()
	owners := make([]*Owner, len(t.owners))
	copy(owners, t.owners)
	t.mu.Unlock()

	stats := TickerStats{
		Owners:        len(owners),
		VariableTicks: t.variableTicks.Load(),
		FixedTicks:    t.fixedTicks.Load(),
		Completed:     t.completed.Load(),
		Faulted:       t.faulted.Load(),
		Killed:        t.killed.Load(),
		Rejected:      t.rejected.Load(),
	}
	for _, o := range owners {
		stats.Handles += o.HandleCount()
	}
	return stats
}

// =============================================================================
// Internal counters
// =============================================================================

// tickerCounters adapts the ticker's own counters as a Metrics sink so the
// Stats snapshot stays accurate regardless of the user-configured Metrics.
// It fans out to the configured implementation.
type tickerCounters struct {
	ticker *Ticker
	next   Metrics
}

func newTickerCounters(t *Ticker) Metrics {
	return &tickerCounters{ticker: t, next: t.metrics}
}

func (c *tickerCounters) RecordTick(mode PollMode, polled int, deltaTime float64) {
	c.next.RecordTick(mode, polled, deltaTime)
}

func (c *tickerCounters) RecordCompletion(ownerName string) {
	c.ticker.completed.Add(1)
	c.next.RecordCompletion(ownerName)
}

func (c *tickerCounters) RecordFault(ownerName string) {
	c.ticker.faulted.Add(1)
	c.next.RecordFault(ownerName)
}

func (c *tickerCounters) RecordKill(ownerName string) {
	c.ticker.killed.Add(1)
	c.next.RecordKill(ownerName)
}

func (c *tickerCounters) RecordSpawnRejected(ownerName string, reason string) {
	c.ticker.rejected.Add(1)
	c.next.RecordSpawnRejected(ownerName, reason)
}

func (c *tickerCounters) RecordLiveHandles(count int) {
	c.next.RecordLiveHandles(count)
}
