package main

import (
	"fmt"
	"os"
	"time"

	timetable "github.com/Swind/go-task-timetable"
	"github.com/Swind/go-task-timetable/core"
	"github.com/rs/zerolog"
)

func main() {
	logger := core.NewZerologLogger(
		zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger().
			Level(zerolog.InfoLevel))

	fmt.Println("=== Countdown Example ===")

	// 1. Create a Timeline with a two-worker compensating scheduler.
	cfg := timetable.DefaultTimelineConfig()
	cfg.Scheduler.Workers = 2
	cfg.Scheduler.Logger = logger
	cfg.Logger = logger

	tl, err := timetable.NewTimelineWithConfig(cfg)
	if err != nil {
		logger.Error("timeline construction failed", timetable.F("error", err))
		os.Exit(1)
	}

	// 2. A non-repeating launch countdown: 10 ticks of 100ms.
	done := make(chan struct{})
	tl.TimerAdd("launch", 100*time.Millisecond, time.Second, false,
		func(s *timetable.TimerState) {
			if s.Remaining() == 0 {
				fmt.Println("liftoff!")
				close(done)
				return
			}
			fmt.Printf("T-minus %v\n", s.Remaining())
		}, false)

	// 3. A repeating heartbeat ticking alongside it.
	tl.TimerAdd("heartbeat", 250*time.Millisecond, 250*time.Millisecond, true,
		func(s *timetable.TimerState) {
			logger.Info("heartbeat", timetable.F("timer", s.Name))
		}, false)

	<-done

	// 4. Pause the heartbeat and snapshot the timeline.
	tl.TimerPause("heartbeat")
	elements := tl.Serialize(true, false, false)
	for _, element := range elements {
		fmt.Println("serialized:", element)
	}
	tl.Stop()

	// 5. Restore the snapshot; inactive timers stay paused until resumed.
	restored, err := timetable.NewTimelineFromState(elements, func(s *timetable.TimerState) {
		logger.Info("restored tick",
			timetable.F("timer", s.Name),
			timetable.F("remaining", s.Remaining()))
	})
	if err != nil {
		logger.Error("timeline restore failed", timetable.F("error", err))
		os.Exit(1)
	}
	defer restored.Stop()

	restored.TimerResume("heartbeat")
	time.Sleep(600 * time.Millisecond)

	fmt.Println("done")
}
