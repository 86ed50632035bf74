package core

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// ErrZeroLengthBuffer is returned when a BufferedWorker is constructed with
// a non-positive buffer length.
var ErrZeroLengthBuffer = errors.New("worker cannot have a zero length buffer")

// DefaultWorkerQueueLen bounds each of the worker's two buffers unless the
// caller asks for something else.
const DefaultWorkerQueueLen = 10000

// WorkItem is the unit of work a BufferedWorker consumes.
type WorkItem func()

// BufferedWorker serializes a stream of work items onto one background
// goroutine. Producers append to a back buffer under a mutex; the consumer
// swaps front and back, then drains the front buffer without holding the
// lock. This keeps producer contention to a pointer swap per wake-up.
//
// When the back buffer is full the oldest queued item is evicted, so a slow
// consumer sheds the stalest work first.
type BufferedWorker struct {
	buffers     [2]*queue.Queue
	front, back int

	mu   sync.Mutex
	bell *sync.Cond

	maxLen         int
	stop           atomic.Bool
	drainLeftovers bool

	done     chan struct{}
	killOnce sync.Once
}

// NewBufferedWorker starts the consumer goroutine. maxLen bounds each buffer;
// dropLeftovers selects whether items still queued when Kill is called are
// discarded (true) or executed before the consumer exits (false).
func NewBufferedWorker(maxLen int, dropLeftovers bool) (*BufferedWorker, error) {
	if maxLen <= 0 {
		return nil, ErrZeroLengthBuffer
	}

	w := &BufferedWorker{
		buffers:        [2]*queue.Queue{queue.New(), queue.New()},
		front:          0,
		back:           1,
		maxLen:         maxLen,
		drainLeftovers: !dropLeftovers,
		done:           make(chan struct{}),
	}
	w.bell = sync.NewCond(&w.mu)

	go w.consume()

	return w, nil
}

// Add queues work for execution. It returns false iff the worker has been
// killed. When the back buffer is at capacity the oldest entry is evicted
// before the new one is appended.
func (w *BufferedWorker) Add(work WorkItem) bool {
	if w.stop.Load() {
		return false
	}

	w.mu.Lock()
	if w.buffers[w.back].Length() >= w.maxLen {
		w.buffers[w.back].Remove()
	}
	w.buffers[w.back].Add(work)
	w.mu.Unlock()

	w.bell.Signal()
	return true
}

// Kill stops the consumer and joins its goroutine. It is idempotent and safe
// to call concurrently. An item that is mid-execution always completes.
func (w *BufferedWorker) Kill() {
	w.killOnce.Do(func() {
		w.mu.Lock()
		w.stop.Store(true)
		w.mu.Unlock()

		w.bell.Signal()
		<-w.done
	})
}

// Len reports the number of items waiting in the back buffer.
func (w *BufferedWorker) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffers[w.back].Length()
}

func (w *BufferedWorker) consume() {
	defer close(w.done)

	for !w.stop.Load() {
		w.swapBuffers()
		w.processFront()
		w.waitForWorkOrStop()
	}

	if w.drainLeftovers {
		// One final swap picks up whatever producers managed to queue
		// before the stop flag was observed.
		w.swapBuffers()
		w.processFront()
	}
}

func (w *BufferedWorker) swapBuffers() {
	w.mu.Lock()
	w.front, w.back = w.back, w.front
	w.mu.Unlock()
}

// processFront drains the front buffer. Only the consumer touches the front
// buffer, so no lock is held while items execute.
func (w *BufferedWorker) processFront() {
	q := w.buffers[w.front]
	for q.Length() > 0 {
		if w.stop.Load() && !w.drainLeftovers {
			return
		}
		work := q.Remove().(WorkItem)
		work()
	}
}

func (w *BufferedWorker) waitForWorkOrStop() {
	w.mu.Lock()
	for !w.stop.Load() && w.buffers[w.back].Length() == 0 {
		w.bell.Wait()
	}
	w.mu.Unlock()
}
