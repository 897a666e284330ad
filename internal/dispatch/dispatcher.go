package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/alert"
	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/Capitan-Parrot/safety-monitor/internal/monitor"
)

const dequeueTimeout = time.Second

// Sender delivers one alert to the remote endpoint.
type Sender interface {
	Send(ctx context.Context, ev models.AlertEvent) error
}

// History persists dispatched alerts.
type History interface {
	InsertAlert(ctx context.Context, ev models.AlertEvent) error
}

// Publisher fans dispatched alerts out to the alert topic.
type Publisher interface {
	PublishAlert(ev models.AlertEvent) error
}

// Dispatcher is the single consumer draining the alert queue. Delivery is
// at-most-once: failures are logged and dropped, never re-enqueued, so an
// endpoint outage cannot build a retry storm.
type Dispatcher struct {
	queue     *alert.Queue
	sender    Sender
	stats     *monitor.Registry
	history   History   // optional
	publisher Publisher // optional
}

func New(queue *alert.Queue, sender Sender, stats *monitor.Registry, history History, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		sender:    sender,
		stats:     stats,
		history:   history,
		publisher: publisher,
	}
}

// Run drains the queue until the context is cancelled. The dequeue timeout
// bounds how long shutdown can take.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Println("Dispatcher: started")
	for {
		ev, ok := d.queue.Dequeue(ctx, dequeueTimeout)
		if !ok {
			if ctx.Err() != nil {
				log.Println("Dispatcher: shutting down")
				return
			}
			continue
		}

		d.dispatch(ctx, ev)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev models.AlertEvent) {
	if err := d.sender.Send(ctx, ev); err != nil {
		// Dropped on purpose; visible as a missing alerts-sent increment
		log.Printf("Dispatcher: failed to send alert %s from %s: %v", ev.ID, ev.FeedID, err)
		return
	}

	log.Printf("Dispatcher: ALERT SENT [%s] %s - %s", ev.Severity, ev.CameraID, ev.Place)
	d.stats.Get(ev.FeedID).RecordAlert(time.Now())

	if d.history != nil {
		if err := d.history.InsertAlert(ctx, ev); err != nil {
			log.Printf("Dispatcher: failed to store alert %s: %v", ev.ID, err)
		}
	}

	if d.publisher != nil {
		if err := d.publisher.PublishAlert(ev); err != nil {
			log.Printf("Dispatcher: failed to publish alert %s: %v", ev.ID, err)
		}
	}
}
