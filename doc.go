// Package timetable provides an in-process call scheduler and a timeline of
// named countdown timers built on top of it.
//
// Application code registers zero-argument actions for deferred or periodic
// invocation, cancels them deterministically through the returned handle, and
// can serialize timer state to strings and reconstruct it after a restart.
//
// # Quick Start
//
// Create a scheduler and register a repeating call:
//
//	sched, err := timetable.NewScheduler(true, 2)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sched.Stop()
//
//	handle := sched.Add(func() timetable.Result {
//		// Your code here - runs every 100ms on a worker goroutine
//		return timetable.Repeat
//	}, 100*time.Millisecond, false)
//	defer handle.Cancel()
//
// # Key Concepts
//
// CallScheduler: dispatches due calls from a deadline-ordered queue to a pool
// of buffered workers. One coordinator goroutine sleeps until the earliest
// deadline. The compensation policy chosen at construction decides whether a
// repeating call's execution time shortens the next sleep (compensating) or
// is added on top of the interval (non-compensating).
//
// CallHandle: owns a scheduled call. Cancel guarantees no invocation starts
// after it returns; an invocation already in flight completes first. Detach
// severs that ownership so the call runs until it reports Finished.
//
// Timeline: named, pausable, resettable countdown timers layered on a
// scheduler. Each timer counts down from its duration in resolution-sized
// ticks and invokes a user action after every tick:
//
//	tl, err := timetable.NewTimeline()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tl.Stop()
//
//	tl.TimerAdd("countdown", 10*time.Millisecond, 100*time.Millisecond, false,
//		func(s *timetable.TimerState) {
//			fmt.Println(s.Name, "remaining:", s.Remaining())
//		}, false)
//
// Timer state survives restarts through the string serialization:
//
//	elements := tl.Serialize(true, false, false)
//	restored, err := timetable.NewTimelineFromState(elements, onTick)
//
// # Thread Safety
//
// All scheduler and timeline methods are safe for concurrent use. User
// actions execute on worker goroutines, never on the caller's goroutine, and
// no internal lock is held across a user action.
//
// For more details, see https://github.com/Swind/go-task-timetable
package timetable
