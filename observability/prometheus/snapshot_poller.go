package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-task-timetable/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SchedulerSnapshotProvider provides current scheduler stats snapshots.
type SchedulerSnapshotProvider interface {
	Stats() core.SchedulerStats
}

// TimelineSnapshotProvider provides current timeline stats snapshots.
type TimelineSnapshotProvider interface {
	Stats() core.TimelineStats
}

// SnapshotPoller periodically exports scheduler/timeline Stats() snapshots
// into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	schedulersMu sync.RWMutex
	schedulers   map[string]SchedulerSnapshotProvider

	timelinesMu sync.RWMutex
	timelines   map[string]TimelineSnapshotProvider

	schedulerWorkers  *prom.GaugeVec
	schedulerPending  *prom.GaugeVec
	schedulerExecuted *prom.GaugeVec
	schedulerDropped  *prom.GaugeVec
	schedulerClosed   *prom.GaugeVec

	timelineTimers *prom.GaugeVec
	timelineActive *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	schedulerWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timetable",
		Name:      "scheduler_workers",
		Help:      "Worker count per scheduler.",
	}, []string{"scheduler"})
	schedulerPending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timetable",
		Name:      "scheduler_pending",
		Help:      "Calls waiting for their deadline per scheduler.",
	}, []string{"scheduler"})
	schedulerExecuted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timetable",
		Name:      "scheduler_executed_total",
		Help:      "Scheduler executed call count snapshot.",
	}, []string{"scheduler"})
	schedulerDropped := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timetable",
		Name:      "scheduler_dropped_total",
		Help:      "Scheduler dropped call count snapshot.",
	}, []string{"scheduler"})
	schedulerClosed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timetable",
		Name:      "scheduler_closed",
		Help:      "Scheduler closed state (1=closed, 0=open).",
	}, []string{"scheduler"})

	timelineTimers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timetable",
		Name:      "timeline_timers",
		Help:      "Timer entities per timeline.",
	}, []string{"timeline"})
	timelineActive := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timetable",
		Name:      "timeline_active",
		Help:      "Timers currently bound to the scheduler per timeline.",
	}, []string{"timeline"})

	var err error
	if schedulerWorkers, err = registerCollector(reg, schedulerWorkers); err != nil {
		return nil, err
	}
	if schedulerPending, err = registerCollector(reg, schedulerPending); err != nil {
		return nil, err
	}
	if schedulerExecuted, err = registerCollector(reg, schedulerExecuted); err != nil {
		return nil, err
	}
	if schedulerDropped, err = registerCollector(reg, schedulerDropped); err != nil {
		return nil, err
	}
	if schedulerClosed, err = registerCollector(reg, schedulerClosed); err != nil {
		return nil, err
	}
	if timelineTimers, err = registerCollector(reg, timelineTimers); err != nil {
		return nil, err
	}
	if timelineActive, err = registerCollector(reg, timelineActive); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:          interval,
		schedulers:        make(map[string]SchedulerSnapshotProvider),
		timelines:         make(map[string]TimelineSnapshotProvider),
		schedulerWorkers:  schedulerWorkers,
		schedulerPending:  schedulerPending,
		schedulerExecuted: schedulerExecuted,
		schedulerDropped:  schedulerDropped,
		schedulerClosed:   schedulerClosed,
		timelineTimers:    timelineTimers,
		timelineActive:    timelineActive,
	}, nil
}

// AddScheduler adds or replaces a scheduler snapshot provider by name.
func (p *SnapshotPoller) AddScheduler(name string, provider SchedulerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "scheduler")
	p.schedulersMu.Lock()
	p.schedulers[name] = provider
	p.schedulersMu.Unlock()
}

// AddTimeline adds or replaces a timeline snapshot provider by name.
func (p *SnapshotPoller) AddTimeline(name string, provider TimelineSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "timeline")
	p.timelinesMu.Lock()
	p.timelines[name] = provider
	p.timelinesMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.schedulersMu.RLock()
	for name, provider := range p.schedulers {
		stats := provider.Stats()
		p.schedulerWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.schedulerPending.WithLabelValues(name).Set(float64(stats.Pending))
		p.schedulerExecuted.WithLabelValues(name).Set(float64(stats.Executed))
		p.schedulerDropped.WithLabelValues(name).Set(float64(stats.Dropped))
		if stats.Closed {
			p.schedulerClosed.WithLabelValues(name).Set(1)
		} else {
			p.schedulerClosed.WithLabelValues(name).Set(0)
		}
	}
	p.schedulersMu.RUnlock()

	p.timelinesMu.RLock()
	for name, provider := range p.timelines {
		stats := provider.Stats()
		p.timelineTimers.WithLabelValues(name).Set(float64(stats.Timers))
		p.timelineActive.WithLabelValues(name).Set(float64(stats.Active))
	}
	p.timelinesMu.RUnlock()
}
