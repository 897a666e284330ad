package risk

import (
	"fmt"
	"testing"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/Capitan-Parrot/safety-monitor/internal/track"
	"github.com/stretchr/testify/assert"
)

func persons(n int) []models.Detection {
	out := make([]models.Detection, n)
	for i := range out {
		x := float64(i * 100)
		out[i] = models.Detection{Class: "person", Score: 0.9, Box: []float64{x, 0, x + 40, 120}}
	}
	return out
}

func input(n int, brightness float64) Input {
	return Input{
		Persons:     persons(n),
		Brightness:  brightness,
		FrameWidth:  1280,
		FrameHeight: 720,
	}
}

func TestAssess_DecisionTable(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	tests := []struct {
		name     string
		in       Input
		severity models.Severity
		category string
	}{
		{"lone person very dark", input(1, 30), models.SeverityCritical, "Lone Person - Very Dark Area"},
		{"lone person dark", input(1, 70), models.SeverityHigh, "Lone Person - Dark Area"},
		{"lone person well lit", input(1, 120), models.SeverityMedium, "Lone Person Detected"},
		{"two persons dark", input(2, 70), models.SeverityHigh, "Two Persons - Dark Area"},
		{"two persons well lit", input(2, 90), models.SeverityMedium, "Two Persons Detected"},
		{"group well lit", input(4, 120), models.SeverityLow, "Multiple Persons"},
		{"empty frame", input(0, 120), models.SeverityLow, "Normal Activity"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Assess(tc.in)
			assert.Equal(t, tc.severity, got.Severity)
			assert.Equal(t, tc.category, got.Category)
		})
	}
}

func TestAssess_PriorityOrder(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	// Matches both "very dark" (rule 1) and "loitering in dark" (rule 2):
	// the earlier rule must win.
	in := input(1, 30)
	in.Signals = track.Signals{Loitering: true, Speed: 120}

	got := engine.Assess(in)
	assert.Equal(t, models.SeverityCritical, got.Severity)
	assert.Equal(t, "Lone Person - Very Dark Area", got.Category)
}

func TestAssess_LoiteringInDark(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	in := input(1, 70)
	in.Signals = track.Signals{Loitering: true}

	got := engine.Assess(in)
	assert.Equal(t, models.SeverityCritical, got.Severity)
	assert.Equal(t, "Loitering Detected - Dark Area", got.Category)
}

func TestAssess_RunningPerson(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	in := input(1, 120)
	in.Signals = track.Signals{Speed: 75}

	got := engine.Assess(in)
	assert.Equal(t, models.SeverityHigh, got.Severity)
	assert.Equal(t, "Running Person Detected", got.Category)

	in.Signals.Speed = 40
	assert.Equal(t, models.SeverityMedium, engine.Assess(in).Severity)
}

func TestAssess_RiskZone(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	in := input(2, 70)
	in.Zones = []models.Zone{{0, 0, 300, 300}}

	got := engine.Assess(in)
	assert.Equal(t, models.SeverityCritical, got.Severity)
	assert.Equal(t, "Multiple Persons in Risk Zone", got.Category)

	// Same zones, well lit: zone rule requires darkness
	in.Brightness = 120
	assert.Equal(t, models.SeverityMedium, engine.Assess(in).Severity)
}

func TestAssess_CrowdDensity(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	// Sparse crowd of 4 in a large frame stays LOW
	in := Input{Persons: persons(4), Brightness: 120, FrameWidth: 4000, FrameHeight: 4000}
	got := engine.Assess(in)
	assert.Equal(t, models.SeverityLow, got.Severity)
	assert.Equal(t, CrowdSparse, got.CrowdLevel)
	assert.Less(t, got.CrowdDensity, 0.1)

	// Boxes covering most of a small frame escalate to a crowd concern
	big := []models.Detection{
		{Class: "person", Score: 0.9, Box: []float64{0, 0, 100, 100}},
		{Class: "person", Score: 0.9, Box: []float64{0, 0, 100, 100}},
		{Class: "person", Score: 0.9, Box: []float64{0, 0, 100, 100}},
	}
	in = Input{Persons: big, Brightness: 120, FrameWidth: 200, FrameHeight: 100}
	got = engine.Assess(in)
	assert.Equal(t, CrowdVeryCrowded, got.CrowdLevel)
	assert.Equal(t, models.SeverityMedium, got.Severity)
	assert.Equal(t, "Very Crowded Area", got.Category)
}

func TestAssess_Deterministic(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	in := input(2, 65)
	first := engine.Assess(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, engine.Assess(in))
	}
}

func tallDet(x float64) models.Detection {
	return models.Detection{Class: "person", Score: 0.9, Box: []float64{x, 0, x + 40, 120}} // ratio 3.0
}

func wideDet(x float64) models.Detection {
	return models.Detection{Class: "person", Score: 0.9, Box: []float64{x, 0, x + 80, 120}} // ratio 1.5
}

func TestAssessBasic_WithoutSplit(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	got := engine.AssessBasic(Input{Persons: persons(1), Brightness: 60})
	assert.Equal(t, models.SeverityHigh, got.Severity)

	got = engine.AssessBasic(Input{Persons: persons(1), Brightness: 75})
	assert.Equal(t, models.SeverityMedium, got.Severity, "basic profile uses the 70 threshold")
	assert.Zero(t, got.GroupACount)
}

func TestAssessBasic_AspectSplit(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), true)

	t.Run("lone bucket-A in dark", func(t *testing.T) {
		got := engine.AssessBasic(Input{Persons: []models.Detection{tallDet(0)}, Brightness: 50})
		assert.Equal(t, models.SeverityHigh, got.Severity)
		assert.Equal(t, 1, got.GroupACount)
		assert.Equal(t, 0, got.GroupBCount)
	})

	t.Run("one bucket-A among a group", func(t *testing.T) {
		dets := []models.Detection{tallDet(0), wideDet(100), wideDet(200)}
		got := engine.AssessBasic(Input{Persons: dets, Brightness: 120})
		assert.Equal(t, models.SeverityMayRisk, got.Severity)
		assert.Equal(t, "Person Surrounded by Group", got.Category)
	})

	t.Run("outnumbered pair", func(t *testing.T) {
		dets := []models.Detection{
			tallDet(0), tallDet(50),
			wideDet(100), wideDet(200), wideDet(300),
		}
		got := engine.AssessBasic(Input{Persons: dets, Brightness: 120})
		assert.Equal(t, models.SeverityMayRisk, got.Severity)
		assert.Equal(t, "Outnumbered Group", got.Category)
	})

	t.Run("MAY_RISK sits between MEDIUM and HIGH", func(t *testing.T) {
		assert.Greater(t, models.SeverityMayRisk, models.SeverityMedium)
		assert.Less(t, models.SeverityMayRisk, models.SeverityHigh)
	})
}

func TestLightingLabel(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), false)

	for brightness, want := range map[float64]string{30: "Very Dark", 65: "Dark", 120: "Well-lit"} {
		assert.Equal(t, want, engine.LightingLabel(brightness), fmt.Sprintf("brightness %v", brightness))
	}
}
