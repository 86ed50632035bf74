package core

import "time"

// CallExecutionRecord captures one completed invocation of a scheduled call.
type CallExecutionRecord struct {
	ID            TaskID
	SchedulerName string
	WorkerID      int
	ScheduledAt   time.Time
	StartedAt     time.Time
	FinishedAt    time.Time
	Duration      time.Duration
	Outcome       Result
	Panicked      bool
}

// SchedulerStats represents runtime observability state for a CallScheduler.
type SchedulerStats struct {
	Name     string
	Workers  int
	Pending  int
	Executed int64
	Dropped  int64
	Closed   bool
}

// TimelineStats represents runtime observability state for a Timeline.
type TimelineStats struct {
	Timers int
	Active int
}
