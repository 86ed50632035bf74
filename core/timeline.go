package core

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// errTickBeyondZero is the panic message raised when a timer tick fires with
// no remaining time. A bound timer always reports Finished on the tick that
// reaches zero, so this state is unreachable unless the binding protocol is
// broken.
const errTickBeyondZero = "timers cannot tick beyond zero"

// TimerState is the countdown state visible to tick actions. Name,
// Resolution, Duration and Repeating are fixed at construction; the remaining
// time is updated by ticks and may be read concurrently through Remaining.
type TimerState struct {
	Name       string
	Resolution time.Duration
	Duration   time.Duration
	Repeating  bool

	remaining atomic.Int64
}

// Remaining returns the time left on the countdown. Safe to call from any
// goroutine.
func (s *TimerState) Remaining() time.Duration {
	return time.Duration(s.remaining.Load())
}

func (s *TimerState) setRemaining(d time.Duration) {
	s.remaining.Store(int64(d))
}

// tick advances the countdown by one resolution and reports whether the
// timer wants another tick. Ticking an exhausted timer panics.
func (s *TimerState) tick() Result {
	rem := time.Duration(s.remaining.Load())
	if rem <= 0 {
		panic(errTickBeyondZero)
	}

	rem -= s.Resolution
	if rem <= 0 {
		if s.Repeating {
			s.remaining.Store(int64(s.Duration))
			return Repeat
		}
		s.remaining.Store(0)
		return Finished
	}

	s.remaining.Store(int64(rem))
	return Repeat
}

// TimerFn is the user action invoked after every tick of a timer.
type TimerFn func(*TimerState)

// timerEntity pairs a timer's countdown state with its scheduler binding.
// The handle is guarded by the Timeline mutex; removed and bound are atomic
// because the tick closure reads them without that mutex.
type timerEntity struct {
	state  *TimerState
	action TimerFn

	handle  *CallHandle
	removed atomic.Bool
	bound   atomic.Bool
}

// Timeline manages named countdown timers on top of an embedded
// CallScheduler. Timers can be added, removed, reset, stopped, paused and
// resumed by name, and the whole set can be serialized to strings and
// reconstructed later.
//
// All methods are safe for concurrent use. Stopping the Timeline stops the
// embedded scheduler.
type Timeline struct {
	mu     sync.Mutex
	timers map[string]*timerEntity

	sched  *CallScheduler
	logger Logger
}

// NewTimeline creates a Timeline with the default configuration.
func NewTimeline() (*Timeline, error) {
	return NewTimelineWithConfig(nil)
}

// NewTimelineWithConfig creates a Timeline from a config. Nil or zero fields
// fall back to DefaultTimelineConfig values.
func NewTimelineWithConfig(config *TimelineConfig) (*Timeline, error) {
	cfg := DefaultTimelineConfig()
	if config != nil {
		if config.Scheduler != nil {
			cfg.Scheduler = config.Scheduler
		}
		if config.Logger != nil {
			cfg.Logger = config.Logger
		}
	}

	sched, err := NewCallSchedulerWithConfig(cfg.Scheduler)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = sched.logger
	}

	return &Timeline{
		timers: make(map[string]*timerEntity),
		sched:  sched,
		logger: logger,
	}, nil
}

// NewTimelineFromState reconstructs a Timeline from serialized elements.
// Every timer element gets onTick as its action; elements whose active flag
// is set and whose remaining time is above zero are bound with their first
// tick one resolution in the future. Any
// malformed element aborts construction with an error and nothing ticks.
func NewTimelineFromState(elements []string, onTick TimerFn) (*Timeline, error) {
	return NewTimelineFromStateWithConfig(elements, onTick, nil)
}

// NewTimelineFromStateWithConfig is NewTimelineFromState with an explicit
// configuration.
func NewTimelineFromStateWithConfig(elements []string, onTick TimerFn, config *TimelineConfig) (*Timeline, error) {
	t, err := NewTimelineWithConfig(config)
	if err != nil {
		return nil, err
	}

	for _, raw := range elements {
		elem, err := parseTimerElement(raw)
		if err != nil {
			t.Stop()
			return nil, err
		}

		t.mu.Lock()
		if _, exists := t.timers[elem.name]; exists {
			t.mu.Unlock()
			t.Stop()
			return nil, duplicateElementError(elem.name)
		}

		e := &timerEntity{
			state: &TimerState{
				Name:       elem.name,
				Resolution: elem.resolution,
				Duration:   elem.duration,
				Repeating:  elem.repeating,
			},
			action: onTick,
		}
		e.state.setRemaining(elem.remaining)
		t.timers[elem.name] = e
		// An exhausted countdown stays unbound; binding it would tick a
		// timer with no remaining time.
		if elem.active && elem.remaining > 0 {
			t.bind(e, false)
		}
		t.mu.Unlock()
	}

	t.logger.Info("timeline restored", F("timers", len(elements)))
	return t, nil
}

// TimerAdd registers a new named countdown. With tickNow the first tick is
// due at once and the countdown starts at duration+resolution so that first
// tick lands on duration; otherwise the countdown starts at duration and the
// first tick is one resolution in the future.
//
// Returns false when the name is taken, the name is empty or contains the
// serialization separator, or the durations are inconsistent.
func (t *Timeline) TimerAdd(name string, resolution, duration time.Duration, repeating bool, onTick TimerFn, tickNow bool) bool {
	if !validTimerName(name) || resolution <= 0 || duration < resolution {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.timers[name]; exists {
		return false
	}

	e := &timerEntity{
		state: &TimerState{
			Name:       name,
			Resolution: resolution,
			Duration:   duration,
			Repeating:  repeating,
		},
		action: onTick,
	}
	if tickNow {
		e.state.setRemaining(duration + resolution)
	} else {
		e.state.setRemaining(duration)
	}

	t.timers[name] = e
	t.bind(e, tickNow)

	t.logger.Debug("timer added",
		F("timer", name),
		F("resolution", resolution),
		F("duration", duration),
		F("repeating", repeating),
		F("tick_now", tickNow))

	return true
}

// TimerRemove deletes the named timer. Its scheduler binding is cancelled;
// a tick already running completes first, and no tick runs afterwards.
func (t *Timeline) TimerRemove(name string) bool {
	t.mu.Lock()
	e, ok := t.timers[name]
	var h *CallHandle
	if ok {
		delete(t.timers, name)
		e.removed.Store(true)
		e.bound.Store(false)
		h = e.handle
		e.handle = nil
	}
	t.mu.Unlock()

	if !ok {
		return false
	}

	// Cancel outside the mutex: a running tick action may call back into
	// the Timeline, and Cancel waits for it.
	h.Cancel()

	t.logger.Debug("timer removed", F("timer", name))
	return true
}

// TimerReset rewinds the named timer to a full countdown and re-arms it with
// an immediate first tick, so the next tick observes remaining == duration.
func (t *Timeline) TimerReset(name string) bool {
	e, h, ok := t.unbind(name)
	if !ok {
		return false
	}
	h.Cancel()

	e.state.setRemaining(e.state.Duration + e.state.Resolution)

	t.mu.Lock()
	if !e.removed.Load() && e.handle == nil {
		t.bind(e, true)
	}
	t.mu.Unlock()

	t.logger.Debug("timer reset", F("timer", name))
	return true
}

// TimerStop cancels the named timer's binding and rewinds the countdown to
// its full duration. The entity stays in the Timeline and serializes as
// inactive; TimerResume starts a fresh countdown.
func (t *Timeline) TimerStop(name string) bool {
	e, h, ok := t.unbind(name)
	if !ok {
		return false
	}
	h.Cancel()

	e.state.setRemaining(e.state.Duration)

	t.logger.Debug("timer stopped", F("timer", name))
	return true
}

// TimerPause cancels the named timer's binding and leaves the remaining
// time untouched, so TimerResume continues where the countdown left off.
func (t *Timeline) TimerPause(name string) bool {
	_, h, ok := t.unbind(name)
	if !ok {
		return false
	}
	h.Cancel()

	t.logger.Debug("timer paused", F("timer", name))
	return true
}

// TimerResume re-arms an unbound timer with its first tick one resolution in
// the future. Resuming a timer that is already bound or has no remaining time
// is a no-op; TimerReset rewinds an exhausted countdown.
func (t *Timeline) TimerResume(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.timers[name]
	if !ok {
		return false
	}
	if e.handle == nil && e.state.Remaining() > 0 {
		t.bind(e, false)
		t.logger.Debug("timer resumed", F("timer", name))
	}
	return true
}

// Serialize renders the selected entity categories to their wire strings,
// ordered by name. Only timers exist in this Timeline; the pulse and alarm
// flags select nothing.
func (t *Timeline) Serialize(timers, pulses, alarms bool) []string {
	_ = pulses
	_ = alarms

	if !timers {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.timers))
	for name := range t.timers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		e := t.timers[name]
		elem := timerElement{
			name:       e.state.Name,
			resolution: e.state.Resolution,
			duration:   e.state.Duration,
			remaining:  e.state.Remaining(),
			repeating:  e.state.Repeating,
			active:     e.handle != nil && e.bound.Load(),
		}
		out = append(out, elem.String())
	}
	return out
}

// Stats returns a point-in-time observability snapshot.
func (t *Timeline) Stats() TimelineStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := 0
	for _, e := range t.timers {
		if e.handle != nil && e.bound.Load() {
			active++
		}
	}
	return TimelineStats{Timers: len(t.timers), Active: active}
}

// Scheduler exposes the embedded scheduler for observability.
func (t *Timeline) Scheduler() *CallScheduler {
	return t.sched
}

// Stop shuts down the embedded scheduler. Ticks already executing complete;
// no tick runs afterwards. Stop is idempotent. The timer entities remain
// readable, so a stopped Timeline can still be serialized.
func (t *Timeline) Stop() {
	t.sched.Stop()
	t.logger.Info("timeline stopped")
}

// bind registers the entity's tick with the scheduler. Caller holds t.mu.
func (t *Timeline) bind(e *timerEntity, immediate bool) {
	e.bound.Store(true)
	e.handle = t.sched.Add(t.tickFor(e), e.state.Resolution, immediate)
}

// unbind detaches the named entity's handle under the mutex and returns it
// for the caller to cancel outside the mutex.
func (t *Timeline) unbind(name string) (*timerEntity, *CallHandle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.timers[name]
	if !ok {
		return nil, nil, false
	}

	h := e.handle
	e.handle = nil
	e.bound.Store(false)
	return e, h, true
}

// tickFor builds the scheduler callback for one entity. The closure never
// takes the Timeline mutex: removal is observed through the entity's atomic
// flag, so a tick already queued on a worker degrades to a no-op.
func (t *Timeline) tickFor(e *timerEntity) CallFn {
	return func() Result {
		if e.removed.Load() {
			return Finished
		}

		res := e.state.tick()
		if res == Finished {
			e.bound.Store(false)
		}

		if e.action != nil {
			e.action(e.state)
		}
		return res
	}
}

func validTimerName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] == elementSeparator {
			return false
		}
	}
	return true
}
