package timetable

import (
	"sync"
	"time"

	"github.com/Swind/go-task-timetable/core"
)

// =============================================================================
// Global Scheduler Helper (Singleton)
// =============================================================================

var (
	globalScheduler *core.CallScheduler
	globalMu        sync.Mutex
)

// InitGlobalScheduler initializes the process-wide scheduler with the given
// compensation policy and worker count. Subsequent calls are no-ops.
func InitGlobalScheduler(compensate bool, workers int) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalScheduler != nil {
		return nil // Already initialized
	}

	cfg := core.DefaultSchedulerConfig()
	cfg.Name = "global-scheduler"
	cfg.Compensate = compensate
	cfg.Workers = workers

	s, err := core.NewCallSchedulerWithConfig(cfg)
	if err != nil {
		return err
	}
	globalScheduler = s
	return nil
}

// GetGlobalScheduler returns the global scheduler instance.
// It panics if InitGlobalScheduler has not been called.
func GetGlobalScheduler() *CallScheduler {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalScheduler == nil {
		panic("GlobalScheduler not initialized. Call InitGlobalScheduler() first.")
	}
	return globalScheduler
}

// ShutdownGlobalScheduler stops the global scheduler.
func ShutdownGlobalScheduler() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalScheduler != nil {
		globalScheduler.Stop()
		globalScheduler = nil
	}
}

// ScheduleCall registers a call on the global scheduler. This is the
// recommended entry point for one-off periodic work that does not need its
// own scheduler instance.
func ScheduleCall(call CallFn, interval time.Duration, immediate bool) *CallHandle {
	return GetGlobalScheduler().Add(call, interval, immediate)
}
