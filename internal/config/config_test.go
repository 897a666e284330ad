package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
backend:
  endpoint: http://localhost:3000
  api_key: secret
monitor:
  sample_interval: 10
  alert_threshold: HIGH
risk:
  profile: enhanced
feeds:
  - id: cam1
    name: Park Street - North Gate
    source: http://minio:9000/frames/cam1
    lat: 11.1085
    lng: 77.3411
    enabled: true
    risk_zones:
      - [0, 0, 100, 100]
  - id: cam2
    name: Bus Stand
    source: http://minio:9000/frames/cam2
    enabled: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.Backend.Endpoint)
	assert.Equal(t, 10, cfg.Monitor.SampleInterval)
	assert.Equal(t, models.SeverityHigh, cfg.Monitor.AlertSeverity)
	assert.Equal(t, 30*time.Second, cfg.Cooldown(), "default cooldown")
	assert.Equal(t, 0.5, cfg.Detection.MinConfidence, "default confidence")
	assert.Equal(t, 80.0, cfg.Risk.DarkThreshold, "default dark threshold")

	require.Len(t, cfg.Feeds, 2)
	feed, ok := cfg.Feed("cam1")
	require.True(t, ok)
	assert.Equal(t, "Park Street - North Gate", feed.Name)
	require.Len(t, feed.RiskZones, 1)
	assert.True(t, feed.RiskZones[0].Contains(50, 50))

	_, ok = cfg.Feed("cam99")
	assert.False(t, ok)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
monitor:
  sample_interval: 10
feeds:
  - id: cam1
    name: Park Street
    source: http://minio:9000/frames/cam1
    enabled: true
`)

	t.Setenv("SAMPLE_INTERVAL", "3")
	t.Setenv("ALERT_THRESHOLD", "CRITICAL")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Monitor.SampleInterval)
	assert.Equal(t, models.SeverityCritical, cfg.Monitor.AlertSeverity)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown severity",
			yaml: `
monitor:
  alert_threshold: URGENT
feeds:
  - {id: cam1, name: A, source: "s", enabled: true}
`,
		},
		{
			name: "unknown profile",
			yaml: `
risk:
  profile: paranoid
feeds:
  - {id: cam1, name: A, source: "s", enabled: true}
`,
		},
		{
			name: "empty feed id",
			yaml: `
feeds:
  - {id: "", name: A, source: "s", enabled: true}
`,
		},
		{
			name: "duplicate feed id",
			yaml: `
feeds:
  - {id: cam1, name: A, source: "s", enabled: true}
  - {id: cam1, name: B, source: "s", enabled: true}
`,
		},
		{
			name: "empty source",
			yaml: `
feeds:
  - {id: cam1, name: A, source: "", enabled: true}
`,
		},
		{
			name: "inverted risk zone",
			yaml: `
feeds:
  - id: cam1
    name: A
    source: "s"
    enabled: true
    risk_zones:
      - [100, 0, 50, 100]
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}
