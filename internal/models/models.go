package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Severity is an ordered risk level. MAY_RISK is an advisory tier used only by
// the basic analysis profile and sits between MEDIUM and HIGH.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityMayRisk
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityMayRisk:  "MAY_RISK",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SEVERITY(%d)", int(s))
}

// ParseSeverity maps a configured severity name to its ordered value.
func ParseSeverity(name string) (Severity, error) {
	for sev, n := range severityNames {
		if strings.EqualFold(name, n) {
			return sev, nil
		}
	}
	return SeverityLow, fmt.Errorf("unknown severity %q", name)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Detection is one detected object as returned by the detection service.
type Detection struct {
	Class string    `json:"class"`
	Score float64   `json:"score"`
	Box   []float64 `json:"box"` // [x1, y1, x2, y2]
}

// Center returns the midpoint of the bounding box.
func (d Detection) Center() (float64, float64) {
	return (d.Box[0] + d.Box[2]) / 2, (d.Box[1] + d.Box[3]) / 2
}

// Area returns the bounding box area in square pixels.
func (d Detection) Area() float64 {
	return math.Max(0, d.Box[2]-d.Box[0]) * math.Max(0, d.Box[3]-d.Box[1])
}

// AspectRatio returns height over width.
func (d Detection) AspectRatio() float64 {
	w := d.Box[2] - d.Box[0]
	h := d.Box[3] - d.Box[1]
	return h / (w + 1e-6)
}

// Zone is an axis-aligned risk-zone rectangle [x1, y1, x2, y2] in frame pixels.
type Zone [4]float64

// Contains reports whether the point lies inside the rectangle.
func (z Zone) Contains(x, y float64) bool {
	return z[0] <= x && x <= z[2] && z[1] <= y && y <= z[3]
}

// Frame is one opaque encoded frame pulled from a feed source.
type Frame struct {
	Index int
	Data  []byte
}

// RiskAssessment is the result of analysing one sampled frame. Immutable once
// returned; severity is a deterministic function of the inputs.
type RiskAssessment struct {
	Severity     Severity
	Category     string
	Description  string
	RiskFactors  []string
	PersonCount  int
	Brightness   float64
	IsDark       bool
	IsVeryDark   bool
	CrowdLevel   string
	CrowdDensity float64
	// GroupACount/GroupBCount are filled only when the aspect-ratio split is
	// enabled. The split is a coarse visual heuristic, not a classification.
	GroupACount int
	GroupBCount int
}

// AlertEvent is the flat record forwarded to the alert endpoint. Field names
// follow the dashboard's wire format.
type AlertEvent struct {
	ID              string   `json:"id"`
	FeedID          string   `json:"-"`
	Place           string   `json:"place"`
	Type            string   `json:"type"`
	Severity        Severity `json:"severity"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	Time            string   `json:"time"` // RFC3339
	Description     string   `json:"description"`
	CameraID        string   `json:"cameraId"`
	PersonCount     int      `json:"personCount"`
	GroupACount     *int     `json:"groupACount,omitempty"`
	GroupBCount     *int     `json:"groupBCount,omitempty"`
	Lighting        string   `json:"lighting"`
	CrowdLevel      string   `json:"crowdLevel,omitempty"`
	RiskFactors     string   `json:"riskFactors"`
	BrightnessLevel int      `json:"brightnessLevel"`
	Image           string   `json:"image,omitempty"`
}

// FeedStatus is the run state of one feed worker.
type FeedStatus string

const (
	FeedStopped FeedStatus = "stopped"
	FeedRunning FeedStatus = "running"
	FeedError   FeedStatus = "error"
)

// FeedStats is a point-in-time snapshot of one feed's counters.
type FeedStats struct {
	FramesProcessed int64      `json:"frames_processed"`
	AlertsSent      int64      `json:"alerts_sent"`
	LastAlert       *time.Time `json:"last_alert,omitempty"`
	Status          FeedStatus `json:"status"`
}

// CommandAction is a feed control verb received over the command topic.
type CommandAction string

const (
	CommandStart CommandAction = "start"
	CommandStop  CommandAction = "stop"
)

// FeedCommand starts or stops a single feed at runtime.
type FeedCommand struct {
	FeedID string        `json:"feed_id"`
	Action CommandAction `json:"action"`
}

// Heartbeat is the periodic liveness record published per running feed.
type Heartbeat struct {
	FeedID          string     `json:"FeedID"`
	Status          FeedStatus `json:"Status"`
	FramesProcessed int64      `json:"FramesProcessed"`
	AlertsSent      int64      `json:"AlertsSent"`
	TimeStamp       time.Time  `json:"TimeStamp"`
}
