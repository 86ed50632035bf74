package timetable

import "github.com/Swind/go-task-timetable/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the timetable package for most use cases.

// Result is the value a scheduled call returns to decide its own fate.
type Result = core.Result

// Result constants
const (
	Finished Result = core.Finished
	Repeat   Result = core.Repeat
)

// CallFn is the unit of schedulable work.
type CallFn = core.CallFn

// CallHandle is the caller-visible owner of a scheduled call.
type CallHandle = core.CallHandle

// CallScheduler dispatches due calls to a pool of buffered workers.
type CallScheduler = core.CallScheduler

// Timeline manages named countdown timers on top of a CallScheduler.
type Timeline = core.Timeline

// TimerState is the countdown state visible to tick actions.
type TimerState = core.TimerState

// TimerFn is the user action invoked after every tick of a timer.
type TimerFn = core.TimerFn

// BufferedWorker serializes a stream of work items onto one goroutine.
type BufferedWorker = core.BufferedWorker

// Configuration types
type (
	SchedulerConfig = core.SchedulerConfig
	TimelineConfig  = core.TimelineConfig
)

// Observability types
type (
	SchedulerStats      = core.SchedulerStats
	TimelineStats       = core.TimelineStats
	CallExecutionRecord = core.CallExecutionRecord
)

// Ambient interfaces
type (
	Logger       = core.Logger
	Field        = core.Field
	Metrics      = core.Metrics
	PanicHandler = core.PanicHandler
)

// F creates a structured logging field.
var F = core.F

// Construction errors
var (
	ErrNoWorkers        = core.ErrNoWorkers
	ErrZeroLengthBuffer = core.ErrZeroLengthBuffer
)

// Config constructors
var (
	DefaultSchedulerConfig = core.DefaultSchedulerConfig
	DefaultTimelineConfig  = core.DefaultTimelineConfig
)

// NewScheduler creates a CallScheduler with the given compensation policy and
// worker count.
func NewScheduler(compensate bool, workers int) (*CallScheduler, error) {
	return core.NewCallScheduler(compensate, workers)
}

// NewSchedulerWithConfig creates a CallScheduler from a config.
func NewSchedulerWithConfig(config *SchedulerConfig) (*CallScheduler, error) {
	return core.NewCallSchedulerWithConfig(config)
}

// NewTimeline creates a Timeline with the default configuration.
func NewTimeline() (*Timeline, error) {
	return core.NewTimeline()
}

// NewTimelineWithConfig creates a Timeline from a config.
func NewTimelineWithConfig(config *TimelineConfig) (*Timeline, error) {
	return core.NewTimelineWithConfig(config)
}

// NewTimelineFromState reconstructs a Timeline from serialized elements.
func NewTimelineFromState(elements []string, onTick TimerFn) (*Timeline, error) {
	return core.NewTimelineFromState(elements, onTick)
}

// Logger constructors
var (
	NewDefaultLogger   = core.NewDefaultLogger
	NewNoOpLogger      = core.NewNoOpLogger
	NewZerologLogger   = core.NewZerologLogger
	NewZerologLoggerTo = core.NewZerologLoggerTo
)
