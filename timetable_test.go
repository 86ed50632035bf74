package timetable_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	timetable "github.com/Swind/go-task-timetable"
)

func TestNewScheduler_FacadeErrors(t *testing.T) {
	s, err := timetable.NewScheduler(true, 0)
	if s != nil {
		t.Fatal("expected no scheduler for zero workers")
	}
	if !errors.Is(err, timetable.ErrNoWorkers) {
		t.Errorf("expected ErrNoWorkers, got %v", err)
	}
}

func TestNewSchedulerWithConfig_Defaults(t *testing.T) {
	s, err := timetable.NewSchedulerWithConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if got := s.WorkerCount(); got != 1 {
		t.Errorf("expected 1 default worker, got %d", got)
	}
	if !s.Compensating() {
		t.Error("expected compensating default")
	}
}

func TestGlobalScheduler_Lifecycle(t *testing.T) {
	if err := timetable.InitGlobalScheduler(true, 2); err != nil {
		t.Fatal(err)
	}
	defer timetable.ShutdownGlobalScheduler()

	// Second init is a no-op.
	if err := timetable.InitGlobalScheduler(false, 8); err != nil {
		t.Fatal(err)
	}

	var executed atomic.Int32
	done := make(chan struct{})
	h := timetable.ScheduleCall(func() timetable.Result {
		executed.Add(1)
		close(done)
		return timetable.Finished
	}, time.Millisecond, true)
	defer h.Cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("global scheduler did not execute the call")
	}

	if got := timetable.GetGlobalScheduler().Stats().Name; got != "global-scheduler" {
		t.Errorf("unexpected global scheduler name %q", got)
	}
}

func TestGetGlobalScheduler_PanicsUninitialized(t *testing.T) {
	timetable.ShutdownGlobalScheduler()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for uninitialized global scheduler")
		}
	}()
	timetable.GetGlobalScheduler()
}

func TestTimeline_FacadeRoundTrip(t *testing.T) {
	tl, err := timetable.NewTimeline()
	if err != nil {
		t.Fatal(err)
	}

	if !tl.TimerAdd("boot", 50*time.Millisecond, time.Second, false, nil, false) {
		t.Fatal("TimerAdd failed")
	}
	if !tl.TimerPause("boot") {
		t.Fatal("TimerPause failed")
	}

	elements := tl.Serialize(true, false, false)
	tl.Stop()

	restored, err := timetable.NewTimelineFromState(elements, func(*timetable.TimerState) {})
	if err != nil {
		t.Fatal(err)
	}
	defer restored.Stop()

	again := restored.Serialize(true, false, false)
	if len(again) != len(elements) {
		t.Fatalf("round trip changed element count: %v vs %v", elements, again)
	}
	for i := range elements {
		if again[i] != elements[i] {
			t.Errorf("element %d changed: %q vs %q", i, elements[i], again[i])
		}
	}
}
