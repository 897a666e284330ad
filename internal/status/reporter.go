package status

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/alert"
	"github.com/Capitan-Parrot/safety-monitor/internal/monitor"
)

// Reporter periodically logs a read-only snapshot of feed counters and queue
// depth. It never mutates worker or queue state.
type Reporter struct {
	stats    *monitor.Registry
	queue    *alert.Queue
	interval time.Duration
}

func New(stats *monitor.Registry, queue *alert.Queue, interval time.Duration) *Reporter {
	return &Reporter{stats: stats, queue: queue, interval: interval}
}

// Run prints the live status until the context is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reporter stopped")
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	snapshot := r.stats.Snapshot()

	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	log.Printf("Status: %d pending alert(s) in queue", r.queue.Depth())
	for _, id := range ids {
		s := snapshot[id]
		last := "none"
		if s.LastAlert != nil {
			last = s.LastAlert.Format("15:04:05")
		}
		log.Printf("  [%s] status=%s frames=%d alerts=%d last_alert=%s",
			id, s.Status, s.FramesProcessed, s.AlertsSent, last)
	}
}
