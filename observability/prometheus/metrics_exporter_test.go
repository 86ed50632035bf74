package prometheus

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("timetable", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordCallDuration("sched-a", 250*time.Millisecond)
	exporter.RecordCallPanic("sched-a", "panic")
	exporter.RecordCallDropped("sched-a", "cancelled")
	exporter.RecordPendingDepth("sched-a", 7)

	panicTotal := testutil.ToFloat64(exporter.callPanicTotal.WithLabelValues("sched-a"))
	if panicTotal != 1 {
		t.Fatalf("panic total = %v, want 1", panicTotal)
	}

	dropped := testutil.ToFloat64(exporter.callDroppedTotal.WithLabelValues("sched-a", "cancelled"))
	if dropped != 1 {
		t.Fatalf("dropped total = %v, want 1", dropped)
	}

	pending := testutil.ToFloat64(exporter.pendingDepth.WithLabelValues("sched-a"))
	if pending != 7 {
		t.Fatalf("pending depth = %v, want 7", pending)
	}

	histCount, err := histogramSampleCount(exporter.callDurationSeconds.WithLabelValues("sched-a"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("duration sample count = %d, want 1", histCount)
	}
}

func TestMetricsExporter_EmptyLabelFallback(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("timetable", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordCallDropped("", "")

	got := testutil.ToFloat64(exporter.callDroppedTotal.WithLabelValues("unknown", "unknown"))
	if got != 1 {
		t.Fatalf("fallback-labelled counter = %v, want 1", got)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("timetable", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("timetable", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordCallPanic("sched-a", nil)
	second.RecordCallPanic("sched-a", nil)

	got := testutil.ToFloat64(first.callPanicTotal.WithLabelValues("sched-a"))
	if got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
