package caching

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sideEffectsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vibecast_side_effects_dropped_total",
	Help: "Side effects dropped because the runner queue was full.",
})

// Runner executes side effects off the request path. The queue is bounded;
// when it is full the effect is dropped and counted rather than blocking
// the caller. Only use it for work whose loss is tolerable, such as cache
// invalidation.
type Runner struct {
	queue chan func()
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner starts a runner with a single worker and the given queue depth.
func NewRunner(depth int) *Runner {
	if depth <= 0 {
		depth = 256
	}
	r := &Runner{queue: make(chan func(), depth)}
	r.wg.Add(1)
	go r.loop()
	return r
}

func (r *Runner) loop() {
	defer r.wg.Done()
	for fn := range r.queue {
		fn()
	}
}

// Submit enqueues a side effect. Returns false if the effect was dropped.
func (r *Runner) Submit(fn func()) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		sideEffectsDropped.Inc()
		return false
	}
	select {
	case r.queue <- fn:
		r.mu.Unlock()
		return true
	default:
		r.mu.Unlock()
		sideEffectsDropped.Inc()
		slog.Warn("side effect dropped, queue full")
		return false
	}
}

// Close stops accepting new effects and drains the queue before returning.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}
