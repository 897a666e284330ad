package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
)

// InsertAlert records one successfully dispatched alert.
func (d *Database) InsertAlert(ctx context.Context, ev models.AlertEvent) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO alerts (id, feed_id, place, type, severity, lat, lng, description,
			person_count, lighting, crowd_level, risk_factors, brightness, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`,
		ev.ID,
		ev.FeedID,
		ev.Place,
		ev.Type,
		ev.Severity.String(),
		ev.Lat,
		ev.Lng,
		ev.Description,
		ev.PersonCount,
		ev.Lighting,
		ev.CrowdLevel,
		ev.RiskFactors,
		ev.BrightnessLevel,
		ev.Image,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// AlertRecord is one stored alert row as served by the read API.
type AlertRecord struct {
	ID          string    `json:"id"`
	FeedID      string    `json:"feed_id"`
	Place       string    `json:"place"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Description string    `json:"description"`
	PersonCount int       `json:"person_count"`
	Lighting    string    `json:"lighting"`
	CrowdLevel  string    `json:"crowd_level,omitempty"`
	RiskFactors string    `json:"risk_factors,omitempty"`
	Brightness  int       `json:"brightness"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecentAlerts returns the newest stored alerts, newest first.
func (d *Database) RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, feed_id, place, type, severity, lat, lng, description,
			person_count, lighting, crowd_level, risk_factors, brightness, image, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []AlertRecord
	for rows.Next() {
		var a AlertRecord
		err := rows.Scan(
			&a.ID,
			&a.FeedID,
			&a.Place,
			&a.Type,
			&a.Severity,
			&a.Lat,
			&a.Lng,
			&a.Description,
			&a.PersonCount,
			&a.Lighting,
			&a.CrowdLevel,
			&a.RiskFactors,
			&a.Brightness,
			&a.Image,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
