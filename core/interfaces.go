package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling call panics
// =============================================================================

// PanicHandler is called when a scheduled call panics during execution.
// The scheduler guarantees the call token is released on all exit paths, so
// a panic leaves the cancellation state machine consistent; what to do with
// the panic itself is up to the handler.
//
// Implementations must be safe for concurrent use.
type PanicHandler interface {
	// HandlePanic is called with the scheduler name, the worker index the
	// call ran on, the recovered value and the stack trace at panic time.
	HandlePanic(schedulerName string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler prints panic information to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(schedulerName string, workerID int, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Worker %d @ %s] Panic: %v\nStack trace:\n%s",
		workerID, schedulerName, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduler metrics.
// Implementations can send metrics to monitoring systems (Prometheus,
// StatsD, etc.). Methods must be non-blocking and fast; they run on the
// scheduler's worker and coordinator goroutines and on goroutines calling Add.
type Metrics interface {
	// RecordCallDuration records how long one invocation took.
	RecordCallDuration(schedulerName string, duration time.Duration)

	// RecordCallPanic records that an invocation panicked.
	RecordCallPanic(schedulerName string, panicInfo any)

	// RecordCallDropped records a call that was discarded without running,
	// e.g. because its token was cancelled or the scheduler shut down.
	RecordCallDropped(schedulerName string, reason string)

	// RecordPendingDepth records the current number of pending calls.
	RecordPendingDepth(schedulerName string, depth int)
}

// NilMetrics provides a no-op metrics implementation.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordCallDuration is a no-op.
func (m *NilMetrics) RecordCallDuration(schedulerName string, duration time.Duration) {}

// RecordCallPanic is a no-op.
func (m *NilMetrics) RecordCallPanic(schedulerName string, panicInfo any) {}

// RecordCallDropped is a no-op.
func (m *NilMetrics) RecordCallDropped(schedulerName string, reason string) {}

// RecordPendingDepth is a no-op.
func (m *NilMetrics) RecordPendingDepth(schedulerName string, depth int) {}

// =============================================================================
// SchedulerConfig: Configuration for CallScheduler
// =============================================================================

// SchedulerConfig holds configuration options for a CallScheduler.
// All fields are optional; zero values fall back to defaults, except
// Compensate, which is always taken as given.
type SchedulerConfig struct {
	// Name labels the scheduler in logs and metrics. Defaults to "scheduler".
	Name string

	// Workers is the number of buffered workers executing due calls.
	// Defaults to 1 and is clamped to the hardware concurrency.
	Workers int

	// Compensate selects how the next fire time of a repeating call is
	// computed: from its previous scheduled time (true) or from the current
	// time once execution ends (false).
	Compensate bool

	// WorkerQueueLen bounds each worker buffer. Defaults to
	// DefaultWorkerQueueLen.
	WorkerQueueLen int

	// HistoryCapacity sizes the ring buffer of execution records.
	HistoryCapacity int

	// Logger receives lifecycle events. Defaults to NoOpLogger.
	Logger Logger

	// Metrics is called to record execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a call panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler
}

// DefaultSchedulerConfig returns a config with default handlers: one
// compensating worker, no-op logging and metrics.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Name:            "scheduler",
		Workers:         1,
		Compensate:      true,
		WorkerQueueLen:  DefaultWorkerQueueLen,
		HistoryCapacity: defaultHistoryCapacity,
		Logger:          NewNoOpLogger(),
		Metrics:         &NilMetrics{},
		PanicHandler:    &DefaultPanicHandler{},
	}
}

func (c *SchedulerConfig) withDefaults() *SchedulerConfig {
	out := *DefaultSchedulerConfig()
	if c == nil {
		return &out
	}

	if c.Name != "" {
		out.Name = c.Name
	}
	if c.Workers != 0 {
		out.Workers = c.Workers
	}
	out.Compensate = c.Compensate
	if c.WorkerQueueLen > 0 {
		out.WorkerQueueLen = c.WorkerQueueLen
	}
	if c.HistoryCapacity > 0 {
		out.HistoryCapacity = c.HistoryCapacity
	}
	if c.Logger != nil {
		out.Logger = c.Logger
	}
	if c.Metrics != nil {
		out.Metrics = c.Metrics
	}
	if c.PanicHandler != nil {
		out.PanicHandler = c.PanicHandler
	}
	return &out
}

// =============================================================================
// TimelineConfig: Configuration for Timeline
// =============================================================================

// TimelineConfig holds configuration options for a Timeline and its embedded
// scheduler.
type TimelineConfig struct {
	// Scheduler configures the embedded CallScheduler. Defaults to a single
	// compensating worker named "timeline".
	Scheduler *SchedulerConfig

	// Logger receives timer lifecycle events. Defaults to the scheduler's
	// logger.
	Logger Logger
}

// DefaultTimelineConfig returns the default Timeline configuration.
func DefaultTimelineConfig() *TimelineConfig {
	sched := DefaultSchedulerConfig()
	sched.Name = "timeline"
	return &TimelineConfig{Scheduler: sched}
}
