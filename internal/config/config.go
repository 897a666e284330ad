package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Analysis profiles. Enhanced uses tracking, crowd density and risk zones;
// basic uses a single dark threshold and the optional aspect-ratio split.
const (
	ProfileEnhanced = "enhanced"
	ProfileBasic    = "basic"
)

// FeedConfig describes one monitored video feed. Immutable once monitoring
// starts.
type FeedConfig struct {
	ID        string        `yaml:"id" json:"id"`
	Name      string        `yaml:"name" json:"name"`
	Source    string        `yaml:"source" json:"source"`
	Lat       float64       `yaml:"lat" json:"lat"`
	Lng       float64       `yaml:"lng" json:"lng"`
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	RiskZones []models.Zone `yaml:"risk_zones" json:"risk_zones,omitempty"`
}

// Config is the full service configuration, YAML with env overrides.
type Config struct {
	Backend struct {
		Endpoint       string        `yaml:"endpoint" env:"BACKEND_ENDPOINT"`
		APIKey         string        `yaml:"api_key" env:"BACKEND_API_KEY"`
		TimeoutSeconds int           `yaml:"timeout_seconds" env:"BACKEND_TIMEOUT_SECONDS"`
		Timeout        time.Duration `yaml:"-"`
	} `yaml:"backend"`

	Postgres struct {
		DSN string `yaml:"dsn" env:"DATABASE_DSN"`
	} `yaml:"postgres"`

	Minio struct {
		Endpoint      string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey     string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
		SecretKey     string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
		SnippetBucket string `yaml:"snippet_bucket" env:"MINIO_SNIPPET_BUCKET"`
	} `yaml:"minio"`

	Kafka struct {
		Brokers        []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
		GroupID        string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
		CommandTopic   string   `yaml:"command_topic" env:"COMMAND_TOPIC"`
		AlertTopic     string   `yaml:"alert_topic" env:"ALERT_TOPIC"`
		HeartbeatTopic string   `yaml:"heartbeat_topic" env:"HEARTBEAT_TOPIC"`
	} `yaml:"kafka"`

	Detection struct {
		Endpoint      string  `yaml:"endpoint" env:"DETECTION_ENDPOINT"`
		MinConfidence float64 `yaml:"min_confidence" env:"DETECTION_MIN_CONFIDENCE"`
	} `yaml:"detection"`

	Monitor struct {
		SampleInterval        int    `yaml:"sample_interval" env:"SAMPLE_INTERVAL"`
		CooldownSeconds       int    `yaml:"cooldown_seconds" env:"COOLDOWN_SECONDS"`
		AlertThreshold        string `yaml:"alert_threshold" env:"ALERT_THRESHOLD"`
		StatusIntervalSeconds int    `yaml:"status_interval_seconds" env:"STATUS_INTERVAL_SECONDS"`

		AlertSeverity models.Severity `yaml:"-"`
	} `yaml:"monitor"`

	Risk struct {
		Profile          string  `yaml:"profile" env:"RISK_PROFILE"`
		AspectSplit      bool    `yaml:"aspect_split" env:"RISK_ASPECT_SPLIT"`
		DarkThreshold    float64 `yaml:"dark_threshold" env:"RISK_DARK_THRESHOLD"`
		VeryDarkThresh   float64 `yaml:"very_dark_threshold" env:"RISK_VERY_DARK_THRESHOLD"`
		BasicDarkThresh  float64 `yaml:"basic_dark_threshold" env:"RISK_BASIC_DARK_THRESHOLD"`
		RunSpeed         float64 `yaml:"run_speed" env:"RISK_RUN_SPEED"`
		LoiterDwellSecs  int     `yaml:"loiter_dwell_seconds" env:"RISK_LOITER_DWELL_SECONDS"`
		LoiterRadius     float64 `yaml:"loiter_radius" env:"RISK_LOITER_RADIUS"`
		LoiterMinSamples int     `yaml:"loiter_min_samples" env:"RISK_LOITER_MIN_SAMPLES"`
		TrackStaleSecs   int     `yaml:"track_stale_seconds" env:"RISK_TRACK_STALE_SECONDS"`
	} `yaml:"risk"`

	API struct {
		Addr string `yaml:"addr" env:"API_ADDR"`
	} `yaml:"api"`

	Feeds []FeedConfig `yaml:"feeds"`
}

// LoadConfig reads the YAML file, applies env overrides and validates.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = "internal/config/local.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Env vars win over file values
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = 5
	}
	c.Backend.Timeout = time.Duration(c.Backend.TimeoutSeconds) * time.Second
	if c.Detection.MinConfidence <= 0 {
		c.Detection.MinConfidence = 0.5
	}
	if c.Monitor.SampleInterval <= 0 {
		c.Monitor.SampleInterval = 15
	}
	if c.Monitor.CooldownSeconds <= 0 {
		c.Monitor.CooldownSeconds = 30
	}
	if c.Monitor.AlertThreshold == "" {
		c.Monitor.AlertThreshold = "MEDIUM"
	}
	if c.Monitor.StatusIntervalSeconds <= 0 {
		c.Monitor.StatusIntervalSeconds = 5
	}
	if c.Risk.Profile == "" {
		c.Risk.Profile = ProfileEnhanced
	}
	if c.Risk.DarkThreshold <= 0 {
		c.Risk.DarkThreshold = 80
	}
	if c.Risk.VeryDarkThresh <= 0 {
		c.Risk.VeryDarkThresh = 50
	}
	if c.Risk.BasicDarkThresh <= 0 {
		c.Risk.BasicDarkThresh = 70
	}
	if c.Risk.RunSpeed <= 0 {
		c.Risk.RunSpeed = 50
	}
	if c.Risk.LoiterDwellSecs <= 0 {
		c.Risk.LoiterDwellSecs = 300
	}
	if c.Risk.LoiterRadius <= 0 {
		c.Risk.LoiterRadius = 100
	}
	if c.Risk.LoiterMinSamples <= 0 {
		c.Risk.LoiterMinSamples = 10
	}
	if c.Risk.TrackStaleSecs <= 0 {
		c.Risk.TrackStaleSecs = 60
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8090"
	}
}

// Validate rejects malformed configuration before any worker starts.
func (c *Config) Validate() error {
	sev, err := models.ParseSeverity(c.Monitor.AlertThreshold)
	if err != nil {
		return fmt.Errorf("monitor.alert_threshold: %w", err)
	}
	c.Monitor.AlertSeverity = sev

	if c.Risk.Profile != ProfileEnhanced && c.Risk.Profile != ProfileBasic {
		return fmt.Errorf("risk.profile: unknown profile %q", c.Risk.Profile)
	}

	seen := make(map[string]bool, len(c.Feeds))
	for i, feed := range c.Feeds {
		if feed.ID == "" {
			return fmt.Errorf("feeds[%d]: empty id", i)
		}
		if seen[feed.ID] {
			return fmt.Errorf("feeds[%d]: duplicate id %q", i, feed.ID)
		}
		seen[feed.ID] = true
		if feed.Source == "" {
			return fmt.Errorf("feed %s: empty source", feed.ID)
		}
		for j, z := range feed.RiskZones {
			if z[0] > z[2] || z[1] > z[3] {
				return fmt.Errorf("feed %s: risk_zones[%d] is inverted", feed.ID, j)
			}
		}
	}
	return nil
}

// Feed returns the configuration of a single feed by id.
func (c *Config) Feed(id string) (FeedConfig, bool) {
	for _, f := range c.Feeds {
		if f.ID == id {
			return f, true
		}
	}
	return FeedConfig{}, false
}

// Cooldown returns the configured cooldown window.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Monitor.CooldownSeconds) * time.Second
}
