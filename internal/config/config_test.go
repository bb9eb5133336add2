// Filename: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "kitty", cfg.Engine.Pattern)
	assert.Equal(t, 60*time.Second, cfg.Engine.ChangeInterval)
	assert.Equal(t, 0.5, cfg.Engine.Intensity)
	assert.Equal(t, 1000, cfg.Engine.TimeUnitMs)
	assert.True(t, cfg.Engine.EnforceSafeZone)
	assert.Equal(t, SafeZoneConfig{MinX: 0.3, MaxX: 0.7, MinY: 0.5, MaxY: 0.9}, cfg.Engine.SafeZone)
	assert.Equal(t, "adb", cfg.Device.ADBPath)
	assert.False(t, cfg.Tracker.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Tracker.Interval)
	assert.Equal(t, 150.0, cfg.Reactive.LeadDistance)
	assert.Equal(t, 200.0, cfg.Reactive.TeaseDistance)
}

func TestNewConfigFromViperAppliesOverrides(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)
	v.Set("engine.pattern", "laser")
	v.Set("engine.intensity", 0.9)
	v.Set("tracker.enabled", true)
	v.Set("device.serial", "emulator-5554")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "laser", cfg.Engine.Pattern)
	assert.Equal(t, 0.9, cfg.Engine.Intensity)
	assert.True(t, cfg.Tracker.Enabled)
	assert.Equal(t, "emulator-5554", cfg.Device.Serial)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero intensity", mutate: func(c *Config) { c.Engine.Intensity = 0 }},
		{name: "intensity above one", mutate: func(c *Config) { c.Engine.Intensity = 1.5 }},
		{name: "negative change interval", mutate: func(c *Config) { c.Engine.ChangeInterval = -time.Second }},
		{name: "zero time unit", mutate: func(c *Config) { c.Engine.TimeUnitMs = 0 }},
		{name: "zero max tap failures", mutate: func(c *Config) { c.Engine.MaxTapFailures = 0 }},
		{name: "safe zone bound out of range", mutate: func(c *Config) { c.Engine.SafeZone.MaxX = 1.2 }},
		{name: "safe zone min above max", mutate: func(c *Config) { c.Engine.SafeZone.MinX = 0.8 }},
		{name: "inverted y bounds", mutate: func(c *Config) { c.Engine.SafeZone.MinY = 0.95 }},
		{name: "empty adb path", mutate: func(c *Config) { c.Device.ADBPath = "" }},
		{name: "non-positive tracker interval", mutate: func(c *Config) { c.Tracker.Interval = 0 }},
		{name: "confidence above one", mutate: func(c *Config) { c.Tracker.ConfidenceThreshold = 1.1 }},
		{name: "zero lead distance", mutate: func(c *Config) { c.Reactive.LeadDistance = 0 }},
		{name: "negative tease distance", mutate: func(c *Config) { c.Reactive.TeaseDistance = -5 }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewDefaultConfig()
			require.NoError(t, cfg.Validate())
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewConfigFromViperRejectsInvalid(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)
	v.Set("engine.intensity", 2.0)

	_, err := NewConfigFromViper(v)
	assert.Error(t, err)
}
