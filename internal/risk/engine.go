package risk

import (
	"fmt"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/Capitan-Parrot/safety-monitor/internal/track"
	"github.com/samber/lo"
)

// Crowd density buckets by occupied frame area.
const (
	CrowdEmpty       = "empty"
	CrowdSparse      = "sparse"
	CrowdModerate    = "moderate"
	CrowdCrowded     = "crowded"
	CrowdVeryCrowded = "very_crowded"
)

// Thresholds are the tunable decision boundaries. All externally supplied.
type Thresholds struct {
	Dark          float64 // enhanced profile dark boundary
	VeryDark      float64
	BasicDark     float64 // basic profile single dark boundary
	RunSpeed      float64 // px/s above which a subject counts as running
	AspectBucketA float64 // height/width ratio for the bucket-A split
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Dark:          80,
		VeryDark:      50,
		BasicDark:     70,
		RunSpeed:      50,
		AspectBucketA: 2.2,
	}
}

// Input carries everything one assessment needs. The engine is pure: equal
// inputs always produce equal assessments.
type Input struct {
	Persons     []models.Detection
	Brightness  float64
	FrameWidth  int
	FrameHeight int
	Signals     track.Signals // signals of the lone tracked subject
	Zones       []models.Zone
}

// Engine turns per-frame observations into a RiskAssessment.
type Engine struct {
	thresholds  Thresholds
	aspectSplit bool
}

func NewEngine(thresholds Thresholds, aspectSplit bool) *Engine {
	return &Engine{thresholds: thresholds, aspectSplit: aspectSplit}
}

// Assess applies the enhanced decision table. Rule order is part of the
// contract: the first matching rule wins.
func (e *Engine) Assess(in Input) models.RiskAssessment {
	n := len(in.Persons)
	isDark := in.Brightness < e.thresholds.Dark
	isVeryDark := in.Brightness < e.thresholds.VeryDark
	crowdLevel, density := e.crowdDensity(in.Persons, in.FrameWidth, in.FrameHeight)
	inRiskZone := e.anyInZone(in.Persons, in.Zones)

	a := models.RiskAssessment{
		Severity:     models.SeverityLow,
		Category:     "Normal Activity",
		Description:  fmt.Sprintf("%d person(s) detected", n),
		PersonCount:  n,
		Brightness:   in.Brightness,
		IsDark:       isDark,
		IsVeryDark:   isVeryDark,
		CrowdLevel:   crowdLevel,
		CrowdDensity: density,
	}

	switch {
	case n == 1 && isVeryDark:
		a.Severity = models.SeverityCritical
		a.Category = "Lone Person - Very Dark Area"
		a.Description = "Single person in very poorly lit area"
		a.RiskFactors = []string{"Very poor lighting", "Isolated individual"}

	case n == 1 && isDark && in.Signals.Loitering:
		a.Severity = models.SeverityCritical
		a.Category = "Loitering Detected - Dark Area"
		a.Description = "Person staying in dark area for extended period"
		a.RiskFactors = []string{"Loitering behavior", "Poor lighting"}

	case n == 1 && isDark:
		a.Severity = models.SeverityHigh
		a.Category = "Lone Person - Dark Area"
		a.Description = "Single person detected in poorly lit area"
		a.RiskFactors = []string{"Poor lighting", "Isolated individual"}

	case n == 2 && inRiskZone && isDark:
		a.Severity = models.SeverityCritical
		a.Category = "Multiple Persons in Risk Zone"
		a.Description = "Two persons detected in high-risk area with poor lighting"
		a.RiskFactors = []string{"High-risk location", "Poor lighting"}

	case n == 2 && isDark:
		a.Severity = models.SeverityHigh
		a.Category = "Two Persons - Dark Area"
		a.Description = "Two persons in poorly lit area. Monitoring situation."
		a.RiskFactors = []string{"Poor lighting"}

	case n == 2:
		a.Severity = models.SeverityMedium
		a.Category = "Two Persons Detected"
		a.Description = "Two persons in frame. Routine monitoring."

	case n == 1 && in.Signals.Speed > e.thresholds.RunSpeed:
		a.Severity = models.SeverityHigh
		a.Category = "Running Person Detected"
		a.Description = "Person running - possible emergency or chase situation"
		a.RiskFactors = []string{"Rapid movement"}

	case n == 1:
		a.Severity = models.SeverityMedium
		a.Category = "Lone Person Detected"
		a.Description = "Single person walking alone. Monitoring."

	case crowdLevel == CrowdVeryCrowded:
		a.Severity = models.SeverityMedium
		a.Category = "Very Crowded Area"
		a.Description = fmt.Sprintf("High crowd density detected (%d persons)", n)
		a.RiskFactors = []string{"Crowd safety concern"}

	case n >= 3:
		a.Severity = models.SeverityLow
		a.Category = "Multiple Persons"
		a.Description = fmt.Sprintf("%d persons detected. Area appears safe.", n)
	}

	return a
}

// AssessBasic applies the simpler deployment profile: one dark threshold and,
// when enabled, the coarse aspect-ratio bucket split. The split is a
// low-confidence visual heuristic only.
func (e *Engine) AssessBasic(in Input) models.RiskAssessment {
	n := len(in.Persons)
	isDark := in.Brightness < e.thresholds.BasicDark

	a := models.RiskAssessment{
		Severity:    models.SeverityLow,
		Category:    "Normal Activity",
		Description: fmt.Sprintf("%d person(s) detected", n),
		PersonCount: n,
		Brightness:  in.Brightness,
		IsDark:      isDark,
	}

	if !e.aspectSplit {
		switch {
		case n == 1 && isDark:
			a.Severity = models.SeverityHigh
			a.Category = "Lone Person - Dark Area"
			a.Description = "Single person detected in poorly lit area. Possible danger."
		case n == 1:
			a.Severity = models.SeverityMedium
			a.Category = "Lone Person"
			a.Description = "Lone person detected in well-lit area."
		}
		return a
	}

	bucketA := lo.CountBy(in.Persons, func(d models.Detection) bool {
		return d.AspectRatio() > e.thresholds.AspectBucketA
	})
	bucketB := n - bucketA
	a.GroupACount = bucketA
	a.GroupBCount = bucketB

	switch {
	case bucketA == 1 && bucketB == 0 && isDark:
		a.Severity = models.SeverityHigh
		a.Category = "Lone Person - Dark Area"
		a.Description = "Single person detected in poorly lit area. Possible danger."

	case bucketA == 1 && bucketB >= 2:
		a.Severity = models.SeverityMayRisk
		a.Category = "Person Surrounded by Group"
		a.Description = "Single person among a larger group. Situation may be unsafe."

	case bucketA >= 1 && bucketA <= 2 && bucketB >= 3:
		a.Severity = models.SeverityMayRisk
		a.Category = "Outnumbered Group"
		a.Description = "Few persons surrounded by a larger group."

	case bucketA == 1 && !isDark:
		a.Severity = models.SeverityMedium
		a.Category = "Lone Person"
		a.Description = "Lone person detected in well-lit area."
	}

	return a
}

// crowdDensity buckets the ratio of summed detection area to frame area.
func (e *Engine) crowdDensity(persons []models.Detection, frameW, frameH int) (string, float64) {
	if len(persons) == 0 {
		return CrowdEmpty, 0
	}
	frameArea := float64(frameW) * float64(frameH)
	if frameArea <= 0 {
		return CrowdSparse, 0
	}

	personArea := lo.SumBy(persons, func(d models.Detection) float64 {
		return d.Area()
	})
	ratio := personArea / frameArea

	switch {
	case ratio > 0.6:
		return CrowdVeryCrowded, ratio
	case ratio > 0.3:
		return CrowdCrowded, ratio
	case ratio > 0.1:
		return CrowdModerate, ratio
	default:
		return CrowdSparse, ratio
	}
}

func (e *Engine) anyInZone(persons []models.Detection, zones []models.Zone) bool {
	if len(zones) == 0 {
		return false
	}
	return lo.SomeBy(persons, func(d models.Detection) bool {
		cx, cy := d.Center()
		for _, z := range zones {
			if z.Contains(cx, cy) {
				return true
			}
		}
		return false
	})
}

// LightingLabel is the human-readable lighting bucket used in alert records.
func (e *Engine) LightingLabel(brightness float64) string {
	switch {
	case brightness < e.thresholds.VeryDark:
		return "Very Dark"
	case brightness < e.thresholds.Dark:
		return "Dark"
	default:
		return "Well-lit"
	}
}
