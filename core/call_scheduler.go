package core

import (
	"container/heap"
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoWorkers is returned when a CallScheduler is constructed with a
// non-positive worker count.
var ErrNoWorkers = errors.New("scheduler has NO workers")

// pendingCall is one entry in the scheduler's deadline heap.
type pendingCall struct {
	runAt time.Time
	seq   uint64 // insertion order, breaks deadline ties
	call  scheduledCall
	index int // for heap interface
}

// pendingCallHeap implements heap.Interface ordered by deadline, then by
// insertion sequence so equal deadlines dispatch in insertion order.
type pendingCallHeap []*pendingCall

func (h pendingCallHeap) Len() int { return len(h) }
func (h pendingCallHeap) Less(i, j int) bool {
	if h[i].runAt.Equal(h[j].runAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].runAt.Before(h[j].runAt)
}
func (h pendingCallHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pendingCallHeap) Push(x any) {
	n := len(*h)
	item := x.(*pendingCall)
	item.index = n
	*h = append(*h, item)
}

func (h *pendingCallHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h *pendingCallHeap) Peek() *pendingCall {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// CallScheduler dispatches due calls from a deadline-ordered heap to a pool
// of buffered workers. One coordinator goroutine sleeps until the earliest
// deadline; due entries are handed round-robin to the workers, which consult
// the call token before invoking the user function.
type CallScheduler struct {
	pq      pendingCallHeap
	mu      sync.Mutex
	nextSeq uint64

	wakeup chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	workers    []*BufferedWorker
	nextWorker atomic.Uint64

	compensate bool
	name       string

	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler
	history      *executionHistory

	metricExecuted atomic.Int64
	metricDropped  atomic.Int64

	closed   atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewCallScheduler creates a scheduler with the given compensation policy
// and worker count. The worker count is clamped to the hardware concurrency;
// zero workers is a construction error.
func NewCallScheduler(compensate bool, workers int) (*CallScheduler, error) {
	// Validated here: the config merge treats a zero worker count as unset.
	if workers <= 0 {
		return nil, ErrNoWorkers
	}

	config := DefaultSchedulerConfig()
	config.Compensate = compensate
	config.Workers = workers
	return NewCallSchedulerWithConfig(config)
}

// NewCallSchedulerWithConfig creates a scheduler from a config. Nil or zero
// fields fall back to DefaultSchedulerConfig values; Compensate is used as
// given.
func NewCallSchedulerWithConfig(config *SchedulerConfig) (*CallScheduler, error) {
	cfg := config.withDefaults()

	if cfg.Workers <= 0 {
		return nil, ErrNoWorkers
	}
	if n := runtime.NumCPU(); cfg.Workers > n {
		cfg.Workers = n
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &CallScheduler{
		pq:           make(pendingCallHeap, 0),
		wakeup:       make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
		compensate:   cfg.Compensate,
		name:         cfg.Name,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		panicHandler: cfg.PanicHandler,
		history:      newExecutionHistory(cfg.HistoryCapacity),
		stopped:      make(chan struct{}),
	}
	heap.Init(&s.pq)

	s.workers = make([]*BufferedWorker, cfg.Workers)
	for i := range s.workers {
		// Scheduler workers drop leftovers: only the call executing at
		// shutdown is allowed to complete.
		w, err := NewBufferedWorker(cfg.WorkerQueueLen, true)
		if err != nil {
			cancel()
			for _, started := range s.workers[:i] {
				started.Kill()
			}
			return nil, err
		}
		s.workers[i] = w
	}

	go s.loop()

	s.logger.Info("scheduler started",
		F("scheduler", s.name),
		F("workers", len(s.workers)),
		F("compensate", s.compensate))

	return s, nil
}

// Add registers call for execution every interval. With immediate=true the
// first fire is due at once, otherwise one interval in the future. The
// returned handle cancels the call when Cancel is called, unless detached.
//
// Adding to a stopped scheduler returns a dead-on-arrival handle.
func (s *CallScheduler) Add(call CallFn, interval time.Duration, immediate bool) *CallHandle {
	token := &callToken{}

	if s.closed.Load() {
		token.cancel()
		s.metrics.RecordCallDropped(s.name, "shutdown")
		return &CallHandle{token: token}
	}

	runAt := time.Now()
	if !immediate {
		runAt = runAt.Add(interval)
	}

	item := &pendingCall{
		runAt: runAt,
		call: scheduledCall{
			id:       GenerateTaskID(),
			work:     call,
			token:    token,
			interval: interval,
		},
	}

	s.insert(item)

	s.logger.Debug("call added",
		F("scheduler", s.name),
		F("task", item.call.id),
		F("interval", interval),
		F("immediate", immediate))

	return &CallHandle{token: token}
}

// insert pushes item into the heap and wakes the coordinator when the head
// changed.
func (s *CallScheduler) insert(item *pendingCall) {
	s.mu.Lock()
	s.nextSeq++
	item.seq = s.nextSeq
	heap.Push(&s.pq, item)
	newHead := item.index == 0
	depth := len(s.pq)
	s.mu.Unlock()

	s.metrics.RecordPendingDepth(s.name, depth)

	if newHead {
		select {
		case s.wakeup <- struct{}{}:
		default:
		}
	}
}

// Stop shuts the scheduler down: the coordinator is joined, the workers are
// killed and all pending calls are discarded. Calls currently executing on a
// worker complete; nothing else runs afterwards. Stop is idempotent.
func (s *CallScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		<-s.stopped

		for _, w := range s.workers {
			w.Kill()
		}

		// Drop pending entries to release token and closure references.
		s.mu.Lock()
		s.pq = make(pendingCallHeap, 0)
		heap.Init(&s.pq)
		s.mu.Unlock()

		s.logger.Info("scheduler stopped", F("scheduler", s.name))
	})
}

// PendingCallCount reports the number of calls waiting for their deadline.
func (s *CallScheduler) PendingCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pq)
}

// WorkerCount returns the number of execution workers.
func (s *CallScheduler) WorkerCount() int {
	return len(s.workers)
}

// Compensating reports the scheduler-wide interval recomputation policy.
func (s *CallScheduler) Compensating() bool {
	return s.compensate
}

// Stats returns a point-in-time observability snapshot.
func (s *CallScheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Name:     s.name,
		Workers:  len(s.workers),
		Pending:  s.PendingCallCount(),
		Executed: s.metricExecuted.Load(),
		Dropped:  s.metricDropped.Load(),
		Closed:   s.closed.Load(),
	}
}

// RecentExecutions returns up to limit execution records, newest first.
func (s *CallScheduler) RecentExecutions(limit int) []CallExecutionRecord {
	return s.history.Recent(limit)
}

// LastExecution returns the most recent execution record, if any.
func (s *CallScheduler) LastExecution() (CallExecutionRecord, bool) {
	return s.history.Last()
}

// loop is the coordinator: it sleeps until the earliest deadline, then moves
// every due entry out of the heap and onto a worker.
func (s *CallScheduler) loop() {
	defer close(s.stopped)

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	const idleWait = 1000 * time.Hour

	for {
		wait, due := s.nextWait()
		if due {
			s.dispatchDue()
			continue
		}
		if wait == 0 {
			// Empty heap, wait for an insert.
			wait = idleWait
		}

		timer.Reset(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.dispatchDue()
		case <-s.wakeup:
			// Head changed, recompute the deadline.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}

// nextWait returns how long to sleep until the earliest deadline. due=true
// means the head entry is already runnable; wait==0 with due=false means the
// heap is empty.
func (s *CallScheduler) nextWait() (wait time.Duration, due bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.pq.Peek()
	if item == nil {
		return 0, false
	}

	d := time.Until(item.runAt)
	if d <= 0 {
		return 0, true
	}
	return d, false
}

// dispatchDue extracts every entry whose deadline has passed and hands each
// to the next worker round-robin. Extraction removes the entry from the
// heap; a repeating call re-inserts its own entry after execution.
func (s *CallScheduler) dispatchDue() {
	s.mu.Lock()

	now := time.Now()
	var expired []*pendingCall

	for s.pq.Len() > 0 {
		item := s.pq.Peek()
		if item.runAt.After(now) {
			break
		}
		heap.Pop(&s.pq)
		expired = append(expired, item)
	}

	s.mu.Unlock()

	for _, item := range expired {
		s.handToWorker(item)
	}
}

func (s *CallScheduler) handToWorker(item *pendingCall) {
	id := int(s.nextWorker.Add(1)-1) % len(s.workers)
	worker := s.workers[id]

	accepted := worker.Add(func() { s.runCall(item, id) })
	if !accepted {
		s.metricDropped.Add(1)
		s.metrics.RecordCallDropped(s.name, "worker killed")
	}
}

// runCall executes one extracted entry on a worker goroutine. The token
// gates the invocation; the guard is released on every exit path, including
// a panicking user call.
func (s *CallScheduler) runCall(item *pendingCall, workerID int) {
	call := &item.call
	outcome := Finished

	if call.token.tryAcquire() {
		startedAt := time.Now()
		panicked := false

		func() {
			defer call.token.release()
			defer func() {
				if rec := recover(); rec != nil {
					panicked = true
					s.panicHandler.HandlePanic(s.name, workerID, rec, debug.Stack())
					s.metrics.RecordCallPanic(s.name, rec)
				}
			}()
			outcome = call.work()
		}()

		finishedAt := time.Now()
		s.metricExecuted.Add(1)
		s.metrics.RecordCallDuration(s.name, finishedAt.Sub(startedAt))
		s.history.Add(CallExecutionRecord{
			ID:            call.id,
			SchedulerName: s.name,
			WorkerID:      workerID,
			ScheduledAt:   item.runAt,
			StartedAt:     startedAt,
			FinishedAt:    finishedAt,
			Duration:      finishedAt.Sub(startedAt),
			Outcome:       outcome,
			Panicked:      panicked,
		})
	} else {
		s.metricDropped.Add(1)
		reason := "racing"
		if call.token.dead() {
			reason = "cancelled"
		}
		s.metrics.RecordCallDropped(s.name, reason)
		return
	}

	if outcome != Repeat {
		return
	}

	if s.compensate {
		// Intervals are measured boundary to boundary: execution time
		// shortens the next sleep.
		item.runAt = item.runAt.Add(call.interval)
	} else {
		item.runAt = time.Now().Add(call.interval)
	}

	if s.closed.Load() {
		return
	}
	s.insert(item)
}
