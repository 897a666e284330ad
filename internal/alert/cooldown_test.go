package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownGate_SuppressesWithinWindow(t *testing.T) {
	gate := NewCooldownGate(30 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, gate.Permit("cam1", now), "first permit always succeeds")
	gate.Record("cam1", now)

	assert.False(t, gate.Permit("cam1", now.Add(10*time.Second)))
	assert.False(t, gate.Permit("cam1", now.Add(29*time.Second)))
	assert.True(t, gate.Permit("cam1", now.Add(30*time.Second)), "window boundary is inclusive")
}

func TestCooldownGate_FeedsAreIndependent(t *testing.T) {
	gate := NewCooldownGate(30 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	gate.Record("cam1", now)

	assert.False(t, gate.Permit("cam1", now.Add(time.Second)))
	assert.True(t, gate.Permit("cam2", now.Add(time.Second)))
	assert.True(t, gate.Permit("cam3", now))
}

func TestCooldownGate_WindowFromLastRecord(t *testing.T) {
	gate := NewCooldownGate(30 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	gate.Record("cam1", now)
	gate.Record("cam1", now.Add(40*time.Second))

	// Measured from the most recent record, not the first
	assert.False(t, gate.Permit("cam1", now.Add(60*time.Second)))
	assert.True(t, gate.Permit("cam1", now.Add(70*time.Second)))
}
