package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spirekit/go-coroutines/core"
)

// TickerSnapshotProvider provides current ticker stats snapshots.
type TickerSnapshotProvider interface {
	Stats() core.TickerStats
}

// SnapshotPoller periodically exports ticker Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	tickersMu sync.RWMutex
	tickers   map[string]TickerSnapshotProvider

	owners        *prom.GaugeVec
	handles       *prom.GaugeVec
	variableTicks *prom.GaugeVec
	fixedTicks    *prom.GaugeVec
	completed     *prom.GaugeVec
	faulted       *prom.GaugeVec
	killed        *prom.GaugeVec
	rejected      *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	owners := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "coroutines",
		Name:      "ticker_owners",
		Help:      "Number of owners registered per ticker.",
	}, []string{"ticker"})
	handles := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "coroutines",
		Name:      "ticker_handles",
		Help:      "Number of attached handles per ticker.",
	}, []string{"ticker"})
	variableTicks := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "coroutines",
		Name:      "ticker_variable_ticks",
		Help:      "Variable-rate tick count snapshot.",
	}, []string{"ticker"})
	fixedTicks := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "coroutines",
		Name:      "ticker_fixed_ticks",
		Help:      "Fixed-rate tick count snapshot.",
	}, []string{"ticker"})
	completed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "coroutines",
		Name:      "ticker_completed_total",
		Help:      "Completed coroutine count snapshot.",
	}, []string{"ticker"})
	faulted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "coroutines",
		Name:      "ticker_faulted_total",
		Help:      "Faulted coroutine count snapshot.",
	}, []string{"ticker"})
	killed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "coroutines",
		Name:      "ticker_killed_total",
		Help:      "Killed coroutine count snapshot.",
	}, []string{"ticker"})
	rejected := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "coroutines",
		Name:      "ticker_rejected_total",
		Help:      "Rejected spawn count snapshot.",
	}, []string{"ticker"})

	var err error
	if owners, err = registerCollector(reg, owners); err != nil {
		return nil, err
	}
	if handles, err = registerCollector(reg, handles); err != nil {
		return nil, err
	}
	if variableTicks, err = registerCollector(reg, variableTicks); err != nil {
		return nil, err
	}
	if fixedTicks, err = registerCollector(reg, fixedTicks); err != nil {
		return nil, err
	}
	if completed, err = registerCollector(reg, completed); err != nil {
		return nil, err
	}
	if faulted, err = registerCollector(reg, faulted); err != nil {
		return nil, err
	}
	if killed, err = registerCollector(reg, killed); err != nil {
		return nil, err
	}
	if rejected, err = registerCollector(reg, rejected); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:      interval,
		tickers:       make(map[string]TickerSnapshotProvider),
		owners:        owners,
		handles:       handles,
		variableTicks: variableTicks,
		fixedTicks:    fixedTicks,
		completed:     completed,
		faulted:       faulted,
		killed:        killed,
		rejected:      rejected,
	}, nil
}

// AddTicker adds or replaces a ticker snapshot provider by name.
func (p *SnapshotPoller) AddTicker(name string, provider TickerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "ticker")
	p.tickersMu.Lock()
	p.tickers[name] = provider
	p.tickersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.tickersMu.RLock()
	for name, provider := range p.tickers {
		stats := provider.Stats()
		p.owners.WithLabelValues(name).Set(float64(stats.Owners))
		p.handles.WithLabelValues(name).Set(float64(stats.Handles))
		p.variableTicks.WithLabelValues(name).Set(float64(stats.VariableTicks))
		p.fixedTicks.WithLabelValues(name).Set(float64(stats.FixedTicks))
		p.completed.WithLabelValues(name).Set(float64(stats.Completed))
		p.faulted.WithLabelValues(name).Set(float64(stats.Faulted))
		p.killed.WithLabelValues(name).Set(float64(stats.Killed))
		p.rejected.WithLabelValues(name).Set(float64(stats.Rejected))
	}
	p.tickersMu.RUnlock()
}
