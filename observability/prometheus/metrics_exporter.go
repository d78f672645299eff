package prometheus

import (
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spirekit/go-coroutines/core"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DeltaBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	tickDeltaSeconds *prom.HistogramVec
	ticksTotal       *prom.CounterVec
	polledPerTick    *prom.HistogramVec
	completionsTotal *prom.CounterVec
	faultsTotal      *prom.CounterVec
	killsTotal       *prom.CounterVec
	rejectedTotal    *prom.CounterVec
	liveHandles      prom.Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "coroutines"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DeltaBuckets
	if len(buckets) == 0 {
		// Frame deltas cluster well under a second.
		buckets = []float64{0.001, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1, 0.25, 1}
	}

	deltaVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_delta_seconds",
		Help:      "Delta time per scheduling tick in seconds.",
		Buckets:   buckets,
	}, []string{"mode"})
	ticksVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Total number of scheduling ticks.",
	}, []string{"mode"})
	polledVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "handles_polled_per_tick",
		Help:      "Number of handles receiving an effective poll per tick.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
	}, []string{"mode"})
	completionsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "completions_total",
		Help:      "Total number of coroutines finishing normally.",
	}, []string{"owner"})
	faultsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "faults_total",
		Help:      "Total number of coroutines finalizing abnormally.",
	}, []string{"owner"})
	killsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "kills_total",
		Help:      "Total number of coroutines killed before completion.",
	}, []string{"owner"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "spawns_rejected_total",
		Help:      "Total number of spawns rejected.",
	}, []string{"owner", "reason"})
	liveGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live_handles",
		Help:      "Current number of live coroutine handles.",
	})

	var err error
	if deltaVec, err = registerCollector(reg, deltaVec); err != nil {
		return nil, err
	}
	if ticksVec, err = registerCollector(reg, ticksVec); err != nil {
		return nil, err
	}
	if polledVec, err = registerCollector(reg, polledVec); err != nil {
		return nil, err
	}
	if completionsVec, err = registerCollector(reg, completionsVec); err != nil {
		return nil, err
	}
	if faultsVec, err = registerCollector(reg, faultsVec); err != nil {
		return nil, err
	}
	if killsVec, err = registerCollector(reg, killsVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if liveGauge, err = registerCollector(reg, liveGauge); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		tickDeltaSeconds: deltaVec,
		ticksTotal:       ticksVec,
		polledPerTick:    polledVec,
		completionsTotal: completionsVec,
		faultsTotal:      faultsVec,
		killsTotal:       killsVec,
		rejectedTotal:    rejectedVec,
		liveHandles:      liveGauge,
	}, nil
}

// RecordTick records one scheduling tick.
func (m *MetricsExporter) RecordTick(mode core.PollMode, polled int, deltaTime float64) {
	if m == nil {
		return
	}
	label := modeLabel(mode)
	m.ticksTotal.WithLabelValues(label).Inc()
	m.tickDeltaSeconds.WithLabelValues(label).Observe(deltaTime)
	m.polledPerTick.WithLabelValues(label).Observe(float64(polled))
}

// RecordCompletion records a coroutine finishing normally.
func (m *MetricsExporter) RecordCompletion(ownerName string) {
	if m == nil {
		return
	}
	m.completionsTotal.WithLabelValues(normalizeLabel(ownerName, "unknown")).Inc()
}

// RecordFault records a coroutine finalizing abnormally.
func (m *MetricsExporter) RecordFault(ownerName string) {
	if m == nil {
		return
	}
	m.faultsTotal.WithLabelValues(normalizeLabel(ownerName, "unknown")).Inc()
}

// RecordKill records a coroutine killed before completion.
func (m *MetricsExporter) RecordKill(ownerName string) {
	if m == nil {
		return
	}
	m.killsTotal.WithLabelValues(normalizeLabel(ownerName, "unknown")).Inc()
}

// RecordSpawnRejected records a rejected spawn.
func (m *MetricsExporter) RecordSpawnRejected(ownerName string, reason string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(normalizeLabel(ownerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordLiveHandles records the current number of live handles.
func (m *MetricsExporter) RecordLiveHandles(count int) {
	if m == nil {
		return
	}
	m.liveHandles.Set(float64(count))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func modeLabel(mode core.PollMode) string {
	switch mode {
	case core.PollModeVariable:
		return "variable"
	case core.PollModeFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
