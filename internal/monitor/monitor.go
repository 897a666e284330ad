package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/alert"
	"github.com/Capitan-Parrot/safety-monitor/internal/config"
	"github.com/Capitan-Parrot/safety-monitor/internal/detect"
	"github.com/Capitan-Parrot/safety-monitor/internal/kafka"
	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/Capitan-Parrot/safety-monitor/internal/risk"
	"github.com/Capitan-Parrot/safety-monitor/internal/source"
	"github.com/Capitan-Parrot/safety-monitor/internal/track"
)

const startStagger = 500 * time.Millisecond

// SnippetStore uploads alert snapshots and returns their reference path.
type SnippetStore interface {
	UploadSnippet(ctx context.Context, feedID string, ts time.Time, frame []byte) (string, error)
}

// CommandSource delivers feed control commands.
type CommandSource interface {
	Messages() <-chan kafka.ConsumerMessage
}

// HeartbeatSender publishes feed liveness records.
type HeartbeatSender interface {
	SendHeartbeat(hb models.Heartbeat) error
}

// Monitor owns the feed workers and the shared pipeline state.
type Monitor struct {
	cfg      *config.Config
	detector detect.Detector
	open     source.Opener
	engine   *risk.Engine
	gate     *alert.CooldownGate
	queue    *alert.Queue
	stats    *Registry
	snippets SnippetStore

	mu      sync.Mutex
	active  map[string]context.CancelFunc
	running sync.WaitGroup
}

func New(cfg *config.Config, detector detect.Detector, open source.Opener, queue *alert.Queue, snippets SnippetStore) *Monitor {
	thresholds := risk.Thresholds{
		Dark:          cfg.Risk.DarkThreshold,
		VeryDark:      cfg.Risk.VeryDarkThresh,
		BasicDark:     cfg.Risk.BasicDarkThresh,
		RunSpeed:      cfg.Risk.RunSpeed,
		AspectBucketA: 2.2,
	}

	return &Monitor{
		cfg:      cfg,
		detector: detector,
		open:     open,
		engine:   risk.NewEngine(thresholds, cfg.Risk.AspectSplit),
		gate:     alert.NewCooldownGate(cfg.Cooldown()),
		queue:    queue,
		stats:    NewRegistry(),
		snippets: snippets,
		active:   make(map[string]context.CancelFunc),
	}
}

// Stats exposes the per-feed counters for the reporter and the read API.
func (m *Monitor) Stats() *Registry {
	return m.stats
}

// StartAll launches a worker for every enabled feed, staggered like the
// original deployment to avoid source-open bursts.
func (m *Monitor) StartAll(ctx context.Context) {
	for _, feed := range m.cfg.Feeds {
		if !feed.Enabled {
			continue
		}
		if err := m.StartFeed(ctx, feed.ID); err != nil {
			log.Printf("Monitor: failed to start feed %s: %v", feed.ID, err)
		}
		time.Sleep(startStagger)
	}
}

// StartFeed launches one feed worker. Starting an unknown or already running
// feed is an error.
func (m *Monitor) StartFeed(ctx context.Context, feedID string) error {
	feed, ok := m.cfg.Feed(feedID)
	if !ok {
		return fmt.Errorf("unknown feed %q", feedID)
	}

	m.mu.Lock()
	if _, exists := m.active[feedID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("feed %s already running", feedID)
	}
	childCtx, cancel := context.WithCancel(ctx)
	m.active[feedID] = cancel
	m.mu.Unlock()

	w := &worker{
		feed: feed,
		settings: settings{
			sampleInterval: m.cfg.Monitor.SampleInterval,
			minConfidence:  m.cfg.Detection.MinConfidence,
			alertThreshold: m.cfg.Monitor.AlertSeverity,
			profile:        m.cfg.Risk.Profile,
			aspectSplit:    m.cfg.Risk.AspectSplit,
		},
		detector: m.detector,
		engine:   m.engine,
		tracker: track.New(track.Config{
			DwellThreshold: time.Duration(m.cfg.Risk.LoiterDwellSecs) * time.Second,
			LoiterRadius:   m.cfg.Risk.LoiterRadius,
			MinSamples:     m.cfg.Risk.LoiterMinSamples,
			Staleness:      time.Duration(m.cfg.Risk.TrackStaleSecs) * time.Second,
		}),
		gate:     m.gate,
		queue:    m.queue,
		stats:    m.stats.Get(feedID),
		snippets: m.snippets,
		open:     m.open,
	}

	m.running.Add(1)
	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.active, feedID)
			m.mu.Unlock()
			m.running.Done()
		}()

		w.run(childCtx)
	}()

	return nil
}

// StopFeed cancels one running feed worker.
func (m *Monitor) StopFeed(feedID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.active[feedID]; ok {
		cancel()
		log.Printf("Monitor: feed %s stop requested", feedID)
		return true
	}
	return false
}

// StopAll cancels every worker and waits for them to release their sources.
func (m *Monitor) StopAll() {
	m.mu.Lock()
	for id, cancel := range m.active {
		cancel()
		log.Printf("Monitor: feed %s stop requested", id)
	}
	m.mu.Unlock()

	m.running.Wait()
}

// ActiveFeeds returns the ids of currently running workers.
func (m *Monitor) ActiveFeeds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	return ids
}

// ListenCommands consumes feed control commands until the context ends.
// Messages are acked only after successful handling.
func (m *Monitor) ListenCommands(ctx context.Context, commands CommandSource) {
	log.Println("Monitor: listening for feed commands")
	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor: command listener shutting down")
			return
		case msg, ok := <-commands.Messages():
			if !ok {
				return
			}

			var cmd models.FeedCommand
			if err := json.Unmarshal(msg.Value, &cmd); err != nil {
				log.Printf("Invalid command format: %v", err)
				continue
			}
			log.Printf("Monitor: received command %+v", cmd)

			var processErr error
			switch cmd.Action {
			case models.CommandStart:
				processErr = m.StartFeed(ctx, cmd.FeedID)
			case models.CommandStop:
				if !m.StopFeed(cmd.FeedID) {
					processErr = fmt.Errorf("feed %s not running", cmd.FeedID)
				}
			default:
				log.Printf("Unknown command action: %s", cmd.Action)
			}

			if processErr != nil {
				log.Printf("Error processing command: %v", processErr)
				continue
			}

			msg.Ack()
		}
	}
}

// RunHeartbeats periodically publishes liveness for every active feed.
func (m *Monitor) RunHeartbeats(ctx context.Context, sender HeartbeatSender, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, feedID := range m.ActiveFeeds() {
				snap := m.stats.Get(feedID).Snapshot()
				hb := models.Heartbeat{
					FeedID:          feedID,
					Status:          snap.Status,
					FramesProcessed: snap.FramesProcessed,
					AlertsSent:      snap.AlertsSent,
					TimeStamp:       time.Now().UTC(),
				}
				if err := sender.SendHeartbeat(hb); err != nil {
					log.Printf("Monitor: heartbeat for %s failed: %v", feedID, err)
				}
			}
		}
	}
}
