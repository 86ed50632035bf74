package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-task-timetable/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	callDurationSeconds *prom.HistogramVec
	callPanicTotal      *prom.CounterVec
	callDroppedTotal    *prom.CounterVec
	pendingDepth        *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "timetable"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "call_duration_seconds",
		Help:      "Scheduled call execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"scheduler"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "call_panic_total",
		Help:      "Total number of panics in scheduled calls.",
	}, []string{"scheduler"})
	droppedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "call_dropped_total",
		Help:      "Total number of calls discarded without running.",
	}, []string{"scheduler", "reason"})
	pendingDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_depth",
		Help:      "Current number of calls waiting for their deadline.",
	}, []string{"scheduler"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if droppedVec, err = registerCollector(reg, droppedVec); err != nil {
		return nil, err
	}
	if pendingDepthVec, err = registerCollector(reg, pendingDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		callDurationSeconds: durationVec,
		callPanicTotal:      panicVec,
		callDroppedTotal:    droppedVec,
		pendingDepth:        pendingDepthVec,
	}, nil
}

// RecordCallDuration records call execution duration.
func (m *MetricsExporter) RecordCallDuration(schedulerName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.callDurationSeconds.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Observe(duration.Seconds())
}

// RecordCallPanic records call panic events.
func (m *MetricsExporter) RecordCallPanic(schedulerName string, panicInfo any) {
	if m == nil {
		return
	}
	m.callPanicTotal.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Inc()
}

// RecordCallDropped records calls discarded without running.
func (m *MetricsExporter) RecordCallDropped(schedulerName string, reason string) {
	if m == nil {
		return
	}
	m.callDroppedTotal.WithLabelValues(normalizeLabel(schedulerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordPendingDepth records the pending queue depth.
func (m *MetricsExporter) RecordPendingDepth(schedulerName string, depth int) {
	if m == nil {
		return
	}
	m.pendingDepth.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Set(float64(depth))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
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
