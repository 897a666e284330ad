package alert

import (
	"sync"
	"time"
)

// CooldownGate suppresses repeat alerts per feed. The window is measured from
// the last recorded permit, not from dispatch outcome. Different feeds never
// interfere.
type CooldownGate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewCooldownGate(window time.Duration) *CooldownGate {
	return &CooldownGate{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Permit reports whether a feed may alert at the given instant.
func (g *CooldownGate) Permit(feedID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.last[feedID]
	return !ok || now.Sub(last) >= g.window
}

// Record marks the instant of a permitted alert for the feed.
func (g *CooldownGate) Record(feedID string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[feedID] = now
}
