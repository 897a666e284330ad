package monitor

import (
	"sync"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
)

// Stats is one feed's counters. Each feed owns its entry, so the lock only
// serializes the owning worker against snapshot readers and the dispatcher's
// sent-counter updates.
type Stats struct {
	mu              sync.Mutex
	framesProcessed int64
	alertsSent      int64
	lastAlert       time.Time
	status          models.FeedStatus
}

// AddFrame counts one processed frame.
func (s *Stats) AddFrame() {
	s.mu.Lock()
	s.framesProcessed++
	s.mu.Unlock()
}

// SetStatus updates the worker run state.
func (s *Stats) SetStatus(status models.FeedStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// RecordAlert counts one successfully dispatched alert.
func (s *Stats) RecordAlert(at time.Time) {
	s.mu.Lock()
	s.alertsSent++
	if at.After(s.lastAlert) {
		s.lastAlert = at
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() models.FeedStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.FeedStats{
		FramesProcessed: s.framesProcessed,
		AlertsSent:      s.alertsSent,
		Status:          s.status,
	}
	if !s.lastAlert.IsZero() {
		last := s.lastAlert
		snap.LastAlert = &last
	}
	return snap
}

// Registry holds per-feed stats entries. Entry-level granularity keeps feeds
// from contending with each other.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]*Stats
}

func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]*Stats)}
}

// Get returns the entry for a feed, creating it on first use.
func (r *Registry) Get(feedID string) *Stats {
	r.mu.RLock()
	s, ok := r.feeds[feedID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.feeds[feedID]; ok {
		return s
	}
	s = &Stats{status: models.FeedStopped}
	r.feeds[feedID] = s
	return s
}

// Snapshot copies every feed's counters.
func (r *Registry) Snapshot() map[string]models.FeedStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]models.FeedStats, len(r.feeds))
	for id, s := range r.feeds {
		out[id] = s.Snapshot()
	}
	return out
}
