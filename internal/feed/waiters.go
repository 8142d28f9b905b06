package feed

import (
	"sync"

	"gossipgraph/backend/internal/metrics"
)

// Waiters bounds the number of concurrent long-poll loops. Each blocked feed
// request ties up a connection for the duration of its wait, so past the cap
// AwaitChange degrades to a plain short poll instead of queueing.
type Waiters struct {
	mu     sync.Mutex
	active int
	max    int
}

func NewWaiters(max int) *Waiters {
	return &Waiters{max: max}
}

// Acquire reserves a waiter slot, reporting false when the cap is reached.
func (w *Waiters) Acquire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active >= w.max {
		return false
	}
	w.active++
	metrics.FeedWaiters.Set(float64(w.active))
	return true
}

// Release returns a slot taken by Acquire.
func (w *Waiters) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active > 0 {
		w.active--
	}
	metrics.FeedWaiters.Set(float64(w.active))
}

// Active returns the current number of parked waiters.
func (w *Waiters) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}
