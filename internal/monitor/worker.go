package monitor

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/alert"
	"github.com/Capitan-Parrot/safety-monitor/internal/config"
	"github.com/Capitan-Parrot/safety-monitor/internal/detect"
	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/Capitan-Parrot/safety-monitor/internal/risk"
	"github.com/Capitan-Parrot/safety-monitor/internal/source"
	"github.com/Capitan-Parrot/safety-monitor/internal/track"
	"github.com/Capitan-Parrot/safety-monitor/internal/vision"
	"github.com/google/uuid"
)

// worker runs the capture/analyse loop for a single feed. It owns its tracker
// and stats entry; the queue and cooldown gate are shared.
type worker struct {
	feed     config.FeedConfig
	settings settings
	detector detect.Detector
	engine   *risk.Engine
	tracker  *track.Tracker
	gate     *alert.CooldownGate
	queue    *alert.Queue
	stats    *Stats
	snippets SnippetStore
	open     source.Opener
}

type settings struct {
	sampleInterval int
	minConfidence  float64
	alertThreshold models.Severity
	profile        string
	aspectSplit    bool
}

// run drives the worker state machine: STOPPED -> RUNNING -> (STOPPED | ERROR).
func (w *worker) run(ctx context.Context) {
	log.Printf("Worker %s: starting %s", w.feed.ID, w.feed.Name)

	src, err := w.open(ctx, w.feed)
	if err != nil {
		// Fatal to this feed only; no retry
		log.Printf("Worker %s: failed to open source: %v", w.feed.ID, err)
		w.stats.SetStatus(models.FeedError)
		return
	}
	defer src.Close()

	w.stats.SetStatus(models.FeedRunning)
	final := models.FeedStopped
	defer func() {
		w.stats.SetStatus(final)
		log.Printf("Worker %s: stopped", w.feed.ID)
	}()

	frameCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Printf("Worker %s: end of stream", w.feed.ID)
				return
			}
			if ctx.Err() != nil {
				return
			}
			log.Printf("Worker %s: source read error: %v", w.feed.ID, err)
			final = models.FeedError
			return
		}

		frameCount++
		w.stats.AddFrame()

		// Analysis runs only every Kth frame to bound CPU cost
		if frameCount%w.settings.sampleInterval != 0 {
			continue
		}

		w.analyze(ctx, frame)
	}
}

// analyze runs detection, tracking and risk assessment on one sampled frame
// and enqueues an alert when the assessment qualifies. Per-frame failures are
// logged and skipped; they never stop the feed.
func (w *worker) analyze(ctx context.Context, frame models.Frame) {
	info, err := vision.Measure(frame.Data)
	if err != nil {
		log.Printf("Worker %s: frame %d: %v", w.feed.ID, frame.Index, err)
		return
	}

	detections, err := w.detector.Detect(ctx, frame.Data)
	if err != nil {
		log.Printf("Worker %s: detection error: %v", w.feed.ID, err)
		return
	}
	persons := detect.FilterPersons(detections, w.settings.minConfidence)

	now := time.Now()
	var signals track.Signals
	ids := w.tracker.Associate(persons, now)
	if len(ids) == 1 {
		signals = w.tracker.Signals(ids[0], now)
	}

	in := risk.Input{
		Persons:     persons,
		Brightness:  info.Brightness,
		FrameWidth:  info.Width,
		FrameHeight: info.Height,
		Signals:     signals,
		Zones:       w.feed.RiskZones,
	}

	var assessment models.RiskAssessment
	if w.settings.profile == config.ProfileBasic {
		assessment = w.engine.AssessBasic(in)
	} else {
		assessment = w.engine.Assess(in)
	}

	log.Printf("Worker %s: frame %d | %s | persons: %d | brightness: %d",
		w.feed.ID, frame.Index, assessment.Category, assessment.PersonCount, int(assessment.Brightness))

	if assessment.Severity < w.settings.alertThreshold {
		return
	}
	if !w.gate.Permit(w.feed.ID, now) {
		return
	}
	w.gate.Record(w.feed.ID, now)

	w.queue.Enqueue(w.buildEvent(ctx, assessment, frame, now))
}

func (w *worker) buildEvent(ctx context.Context, a models.RiskAssessment, frame models.Frame, now time.Time) models.AlertEvent {
	ev := models.AlertEvent{
		ID:              uuid.New().String(),
		FeedID:          w.feed.ID,
		Place:           w.feed.Name,
		Type:            a.Category,
		Severity:        a.Severity,
		Lat:             w.feed.Lat,
		Lng:             w.feed.Lng,
		Time:            now.Format(time.RFC3339),
		Description:     a.Description,
		CameraID:        strings.ToUpper(w.feed.ID),
		PersonCount:     a.PersonCount,
		CrowdLevel:      a.CrowdLevel,
		RiskFactors:     "None",
		BrightnessLevel: int(a.Brightness),
	}

	if len(a.RiskFactors) > 0 {
		ev.RiskFactors = strings.Join(a.RiskFactors, ", ")
	}

	if w.settings.profile == config.ProfileBasic {
		if a.IsDark {
			ev.Lighting = "Dark"
		} else {
			ev.Lighting = "Well-lit"
		}
		if w.settings.aspectSplit {
			groupA, groupB := a.GroupACount, a.GroupBCount
			ev.GroupACount = &groupA
			ev.GroupBCount = &groupB
		}
	} else {
		ev.Lighting = w.engine.LightingLabel(a.Brightness)
	}

	if w.snippets != nil {
		path, err := w.snippets.UploadSnippet(ctx, w.feed.ID, now, frame.Data)
		if err != nil {
			// Alert still goes out without the image reference
			log.Printf("Worker %s: snippet upload failed: %v", w.feed.ID, err)
		} else {
			ev.Image = path
		}
	}

	return ev
}
