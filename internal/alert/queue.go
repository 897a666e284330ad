package alert

import (
	"context"
	"sync"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
)

// Queue is an unbounded FIFO hand-off between feed workers and the dispatcher.
// Unbounded is deliberate: an unreachable dispatch target grows the queue, and
// depth is exposed for external monitoring instead of in-process backpressure.
type Queue struct {
	mu     sync.Mutex
	events []models.AlertEvent
	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Enqueue appends an event and wakes one waiting consumer.
func (q *Queue) Enqueue(ev models.AlertEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Dequeue pops the oldest event, blocking up to timeout. Returns false on
// timeout or context cancellation so the caller can observe shutdown promptly.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (models.AlertEvent, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events = q.events[1:]
			remaining := len(q.events)
			q.mu.Unlock()

			// Keep other consumers awake if events remain
			if remaining > 0 {
				select {
				case q.notify <- struct{}{}:
				default:
				}
			}
			return ev, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.AlertEvent{}, false
		case <-deadline.C:
			return models.AlertEvent{}, false
		case <-q.notify:
		}
	}
}

// Depth returns the number of pending events.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
