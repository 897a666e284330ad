package track

import (
	"fmt"
	"math"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Sample is one observed position of a tracked subject.
type Sample struct {
	X, Y float64
	At   time.Time
}

// Signals are the motion-derived inputs to the risk engine.
type Signals struct {
	Speed     float64 // path length per second over the retained window
	Loitering bool
}

// Config holds tracking thresholds. Zero values fall back to defaults.
type Config struct {
	MaxSamples     int           // retained positions per track
	DwellThreshold time.Duration // minimum presence before loitering
	LoiterRadius   float64       // maximum bounding extent for loitering
	MinSamples     int           // minimum samples before loitering
	MaxJump        float64       // association radius between frames
	Staleness      time.Duration // tracks idle longer than this are dropped
	MaxTracks      int
}

func (c *Config) applyDefaults() {
	if c.MaxSamples <= 0 {
		c.MaxSamples = 30
	}
	if c.DwellThreshold <= 0 {
		c.DwellThreshold = 300 * time.Second
	}
	if c.LoiterRadius <= 0 {
		c.LoiterRadius = 100
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 10
	}
	if c.MaxJump <= 0 {
		c.MaxJump = 150
	}
	if c.Staleness <= 0 {
		c.Staleness = 60 * time.Second
	}
	if c.MaxTracks <= 0 {
		c.MaxTracks = 128
	}
}

// Track is the short-term trajectory of one subject. Owned by a single feed
// worker, never shared across feeds.
type Track struct {
	samples   []Sample
	firstSeen time.Time
}

// Tracker maintains per-subject motion history for one feed. Stale identities
// expire from the underlying LRU without an explicit GC pass.
type Tracker struct {
	cfg    Config
	tracks *expirable.LRU[string, *Track]
	nextID int
}

func New(cfg Config) *Tracker {
	cfg.applyDefaults()
	return &Tracker{
		cfg:    cfg,
		tracks: expirable.NewLRU[string, *Track](cfg.MaxTracks, nil, cfg.Staleness),
	}
}

// Update appends a position sample, evicting the oldest once the capacity is
// reached.
func (t *Tracker) Update(id string, x, y float64, at time.Time) {
	tr, ok := t.tracks.Get(id)
	if !ok {
		tr = &Track{firstSeen: at}
	}

	tr.samples = append(tr.samples, Sample{X: x, Y: y, At: at})
	if len(tr.samples) > t.cfg.MaxSamples {
		tr.samples = tr.samples[len(tr.samples)-t.cfg.MaxSamples:]
	}

	// Re-adding refreshes the staleness TTL
	t.tracks.Add(id, tr)
}

// Signals computes speed and loitering for one identity. Unknown identities
// yield zero signals.
func (t *Tracker) Signals(id string, now time.Time) Signals {
	tr, ok := t.tracks.Get(id)
	if !ok {
		return Signals{}
	}

	return Signals{
		Speed:     t.speed(tr),
		Loitering: t.loitering(tr, now),
	}
}

func (t *Tracker) speed(tr *Track) float64 {
	if len(tr.samples) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(tr.samples); i++ {
		dx := tr.samples[i].X - tr.samples[i-1].X
		dy := tr.samples[i].Y - tr.samples[i-1].Y
		total += math.Hypot(dx, dy)
	}

	elapsed := tr.samples[len(tr.samples)-1].At.Sub(tr.samples[0].At).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return total / elapsed
}

func (t *Tracker) loitering(tr *Track, now time.Time) bool {
	if tr.firstSeen.IsZero() || now.Sub(tr.firstSeen) <= t.cfg.DwellThreshold {
		return false
	}
	if len(tr.samples) < t.cfg.MinSamples {
		return false
	}

	minX, maxX := tr.samples[0].X, tr.samples[0].X
	minY, maxY := tr.samples[0].Y, tr.samples[0].Y
	for _, s := range tr.samples[1:] {
		minX = math.Min(minX, s.X)
		maxX = math.Max(maxX, s.X)
		minY = math.Min(minY, s.Y)
		maxY = math.Max(maxY, s.Y)
	}

	extent := math.Max(maxX-minX, maxY-minY)
	return extent < t.cfg.LoiterRadius
}

// Associate assigns each detection to the nearest existing track within the
// association radius, creating new identities for the rest, and records the
// resulting position samples. The returned ids are index-aligned with the
// detections.
//
// Greedy nearest-neighbour keeps identities stable when the detector reorders
// its output between frames; index-keyed identity would silently merge tracks.
func (t *Tracker) Associate(detections []models.Detection, at time.Time) []string {
	ids := make([]string, len(detections))
	used := make(map[string]bool, len(detections))

	for i, det := range detections {
		cx, cy := det.Center()

		bestID := ""
		bestDist := t.cfg.MaxJump
		for _, id := range t.tracks.Keys() {
			if used[id] {
				continue
			}
			tr, ok := t.tracks.Peek(id)
			if !ok || len(tr.samples) == 0 {
				continue
			}
			last := tr.samples[len(tr.samples)-1]
			if d := math.Hypot(cx-last.X, cy-last.Y); d <= bestDist {
				bestDist = d
				bestID = id
			}
		}

		if bestID == "" {
			t.nextID++
			bestID = fmt.Sprintf("track-%d", t.nextID)
		}
		used[bestID] = true
		ids[i] = bestID
		t.Update(bestID, cx, cy, at)
	}

	return ids
}

// Len returns the number of live tracks.
func (t *Tracker) Len() int {
	return t.tracks.Len()
}
