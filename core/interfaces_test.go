package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerConfig_WithDefaults_Nil(t *testing.T) {
	var cfg *SchedulerConfig
	out := cfg.withDefaults()

	assert.Equal(t, "scheduler", out.Name)
	assert.Equal(t, 1, out.Workers)
	assert.True(t, out.Compensate)
	assert.Equal(t, DefaultWorkerQueueLen, out.WorkerQueueLen)
	assert.Equal(t, defaultHistoryCapacity, out.HistoryCapacity)
	assert.NotNil(t, out.Logger)
	assert.NotNil(t, out.Metrics)
	assert.NotNil(t, out.PanicHandler)
}

func TestSchedulerConfig_WithDefaults_Partial(t *testing.T) {
	logger := NewDefaultLogger()
	cfg := &SchedulerConfig{
		Name:    "custom",
		Workers: 3,
		Logger:  logger,
	}
	out := cfg.withDefaults()

	assert.Equal(t, "custom", out.Name)
	assert.Equal(t, 3, out.Workers)
	assert.False(t, out.Compensate, "compensation is taken as given, not defaulted")
	assert.Equal(t, DefaultWorkerQueueLen, out.WorkerQueueLen)
	assert.Same(t, logger, out.Logger)
}

func TestDefaultTimelineConfig(t *testing.T) {
	cfg := DefaultTimelineConfig()

	assert.NotNil(t, cfg.Scheduler)
	assert.Equal(t, "timeline", cfg.Scheduler.Name)
	assert.Equal(t, 1, cfg.Scheduler.Workers)
}

func TestNilMetrics_NoOps(t *testing.T) {
	var m Metrics = &NilMetrics{}

	m.RecordCallDuration("s", time.Second)
	m.RecordCallPanic("s", "boom")
	m.RecordCallDropped("s", "cancelled")
	m.RecordPendingDepth("s", 3)
}
