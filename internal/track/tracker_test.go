package track

import (
	"testing"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSignals_SpeedZeroCases(t *testing.T) {
	tr := New(Config{})

	assert.Zero(t, tr.Signals("missing", base).Speed)

	tr.Update("p1", 10, 10, base)
	assert.Zero(t, tr.Signals("p1", base).Speed, "single sample has no speed")

	// Two samples at the same instant: zero elapsed time
	tr.Update("p2", 0, 0, base)
	tr.Update("p2", 30, 40, base)
	assert.Zero(t, tr.Signals("p2", base).Speed)
}

func TestSignals_SpeedIsPathLengthOverElapsed(t *testing.T) {
	tr := New(Config{})

	// 3-4-5 triangle legs: 50px total over 2s
	tr.Update("p1", 0, 0, base)
	tr.Update("p1", 30, 0, base.Add(time.Second))
	tr.Update("p1", 30, 20, base.Add(2*time.Second))

	sig := tr.Signals("p1", base.Add(2*time.Second))
	assert.InDelta(t, 25.0, sig.Speed, 1e-9)
	assert.GreaterOrEqual(t, sig.Speed, 0.0)
}

func TestSignals_SampleEviction(t *testing.T) {
	tr := New(Config{MaxSamples: 5})

	for i := 0; i < 20; i++ {
		tr.Update("p1", float64(i*10), 0, base.Add(time.Duration(i)*time.Second))
	}

	// Only the last 5 samples survive: 40px over 4s
	sig := tr.Signals("p1", base.Add(20*time.Second))
	assert.InDelta(t, 10.0, sig.Speed, 1e-9)
}

func TestSignals_Loitering(t *testing.T) {
	cfg := Config{DwellThreshold: 300 * time.Second, LoiterRadius: 100, MinSamples: 10}

	t.Run("flips true after dwell with small extent", func(t *testing.T) {
		tr := New(cfg)
		for i := 0; i < 12; i++ {
			tr.Update("p1", 50+float64(i), 50, base.Add(time.Duration(i)*time.Second))
		}

		assert.False(t, tr.Signals("p1", base.Add(60*time.Second)).Loitering, "dwell not reached")
		assert.True(t, tr.Signals("p1", base.Add(301*time.Second)).Loitering)
	})

	t.Run("large extent never loiters", func(t *testing.T) {
		tr := New(cfg)
		for i := 0; i < 12; i++ {
			tr.Update("p1", float64(i*30), 50, base.Add(time.Duration(i)*time.Second))
		}

		assert.False(t, tr.Signals("p1", base.Add(10*time.Hour)).Loitering)
	})

	t.Run("too few samples never loiters", func(t *testing.T) {
		tr := New(cfg)
		for i := 0; i < 5; i++ {
			tr.Update("p1", 50, 50, base.Add(time.Duration(i)*time.Second))
		}

		assert.False(t, tr.Signals("p1", base.Add(301*time.Second)).Loitering)
	})
}

func det(x1, y1, x2, y2 float64) models.Detection {
	return models.Detection{Class: "person", Score: 0.9, Box: []float64{x1, y1, x2, y2}}
}

func TestAssociate_KeepsIdentityUnderReordering(t *testing.T) {
	tr := New(Config{MaxJump: 50})

	first := tr.Associate([]models.Detection{
		det(0, 0, 20, 60),     // centre (10, 30)
		det(200, 0, 220, 60),  // centre (210, 30)
	}, base)
	require.Len(t, first, 2)
	require.NotEqual(t, first[0], first[1])

	// Same subjects, slightly moved, reported in reverse order
	second := tr.Associate([]models.Detection{
		det(205, 5, 225, 65),
		det(5, 5, 25, 65),
	}, base.Add(time.Second))

	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[1])
}

func TestAssociate_NewTrackBeyondJumpRadius(t *testing.T) {
	tr := New(Config{MaxJump: 50})

	first := tr.Associate([]models.Detection{det(0, 0, 20, 60)}, base)
	second := tr.Associate([]models.Detection{det(500, 500, 520, 560)}, base.Add(time.Second))

	assert.NotEqual(t, first[0], second[0])
	assert.Equal(t, 2, tr.Len())
}

func TestTracker_StaleTracksExpire(t *testing.T) {
	tr := New(Config{Staleness: 20 * time.Millisecond})

	tr.Update("p1", 10, 10, base)
	require.Equal(t, 1, tr.Len())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, tr.Signals("p1", base.Add(time.Minute)))
}
