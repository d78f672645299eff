package prometheus

import (
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/spirekit/go-coroutines/core"
)

// TestMetricsExporter_RecordsEvents tests event counting
// Main test items:
// 1. Ticks, completions, faults, kills and rejections land in their collectors
// 2. Labels carry the owner name and tick mode
func TestMetricsExporter_RecordsEvents(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("test", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTick(core.PollModeVariable, 3, 0.016)
	exporter.RecordTick(core.PollModeVariable, 2, 0.017)
	exporter.RecordTick(core.PollModeFixed, 1, 0.02)
	exporter.RecordCompletion("player")
	exporter.RecordCompletion("player")
	exporter.RecordFault("enemy")
	exporter.RecordKill("player")
	exporter.RecordSpawnRejected("level", "owner destroyed")
	exporter.RecordLiveHandles(7)

	if got := testutil.ToFloat64(exporter.ticksTotal.WithLabelValues("variable")); got != 2 {
		t.Errorf("Expected 2 variable ticks, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.ticksTotal.WithLabelValues("fixed")); got != 1 {
		t.Errorf("Expected 1 fixed tick, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.completionsTotal.WithLabelValues("player")); got != 2 {
		t.Errorf("Expected 2 completions for player, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.faultsTotal.WithLabelValues("enemy")); got != 1 {
		t.Errorf("Expected 1 fault for enemy, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.killsTotal.WithLabelValues("player")); got != 1 {
		t.Errorf("Expected 1 kill for player, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.rejectedTotal.WithLabelValues("level", "owner destroyed")); got != 1 {
		t.Errorf("Expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.liveHandles); got != 7 {
		t.Errorf("Expected live handles gauge 7, got %v", got)
	}
}

// TestMetricsExporter_HistogramSamples tests that delta and polled histograms
// observe one sample per tick
func TestMetricsExporter_HistogramSamples(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("test", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTick(core.PollModeVariable, 5, 0.016)
	exporter.RecordTick(core.PollModeVariable, 5, 0.016)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	if got := histogramSamples(t, families, "test_tick_delta_seconds"); got != 2 {
		t.Errorf("Expected 2 delta samples, got %d", got)
	}
	if got := histogramSamples(t, families, "test_handles_polled_per_tick"); got != 2 {
		t.Errorf("Expected 2 polled samples, got %d", got)
	}
}

func histogramSamples(t *testing.T, families []*dto.MetricFamily, name string) uint64 {
	t.Helper()
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total uint64
		for _, m := range mf.GetMetric() {
			if h := m.GetHistogram(); h != nil {
				total += h.GetSampleCount()
			}
		}
		return total
	}
	t.Fatalf("Metric family %q not found", name)
	return 0
}

// TestMetricsExporter_ReregisterReusesCollectors tests that creating a second
// exporter against the same registry reuses the existing collectors instead
// of failing
func TestMetricsExporter_ReregisterReusesCollectors(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("test", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("First NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("test", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("Second NewMetricsExporter failed: %v", err)
	}

	first.RecordCompletion("shared")
	second.RecordCompletion("shared")

	if got := testutil.ToFloat64(second.completionsTotal.WithLabelValues("shared")); got != 2 {
		t.Errorf("Expected both exporters to share one collector, got %v", got)
	}
}

// TestMetricsExporter_EmptyLabelsNormalized tests the label fallback
func TestMetricsExporter_EmptyLabelsNormalized(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("test", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordCompletion("")

	if got := testutil.ToFloat64(exporter.completionsTotal.WithLabelValues("unknown")); got != 1 {
		t.Errorf("Expected empty owner normalized to 'unknown', got %v", got)
	}
}
