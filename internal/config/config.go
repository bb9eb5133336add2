// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Device   DeviceConfig   `mapstructure:"device" yaml:"device"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Tracker  TrackerConfig  `mapstructure:"tracker" yaml:"tracker"`
	Reactive ReactiveConfig `mapstructure:"reactive" yaml:"reactive"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DeviceConfig selects and locates the target device.
type DeviceConfig struct {
	// ADBPath is the adb binary; looked up on PATH when left bare.
	ADBPath string `mapstructure:"adb_path" yaml:"adb_path"`
	// Serial selects a device when several are attached. Empty means the
	// single connected device.
	Serial string `mapstructure:"serial" yaml:"serial"`
}

// SafeZoneConfig holds the fractional play-area bounds.
type SafeZoneConfig struct {
	MinX float64 `mapstructure:"min_x" yaml:"min_x"`
	MaxX float64 `mapstructure:"max_x" yaml:"max_x"`
	MinY float64 `mapstructure:"min_y" yaml:"min_y"`
	MaxY float64 `mapstructure:"max_y" yaml:"max_y"`
}

// EngineConfig configures the play engine and its session loop.
type EngineConfig struct {
	Pattern         string         `mapstructure:"pattern" yaml:"pattern"`
	ChangeInterval  time.Duration  `mapstructure:"change_interval" yaml:"change_interval"`
	Intensity       float64        `mapstructure:"intensity" yaml:"intensity"`
	TimeUnitMs      int            `mapstructure:"time_unit_ms" yaml:"time_unit_ms"`
	SafeZone        SafeZoneConfig `mapstructure:"safe_zone" yaml:"safe_zone"`
	EnforceSafeZone bool           `mapstructure:"enforce_safe_zone" yaml:"enforce_safe_zone"`
	MaxTapFailures  int            `mapstructure:"max_tap_failures" yaml:"max_tap_failures"`
	VerboseSafety   bool           `mapstructure:"verbose_safety" yaml:"verbose_safety"`
	// Seed fixes the random source for reproducible sessions; 0 uses the clock.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// TrackerConfig configures the background subject tracker.
type TrackerConfig struct {
	Enabled             bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval            time.Duration `mapstructure:"interval" yaml:"interval"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
}

// ReactiveConfig tunes the tracker-driven patterns, in pixels.
type ReactiveConfig struct {
	LeadDistance  float64 `mapstructure:"lead_distance" yaml:"lead_distance"`
	TeaseDistance float64 `mapstructure:"tease_distance" yaml:"tease_distance"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "purrsuit")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Device --
	v.SetDefault("device.adb_path", "adb")
	v.SetDefault("device.serial", "")

	// -- Engine --
	v.SetDefault("engine.pattern", "kitty")
	v.SetDefault("engine.change_interval", "60s")
	v.SetDefault("engine.intensity", 0.5)
	v.SetDefault("engine.time_unit_ms", 1000)
	v.SetDefault("engine.safe_zone.min_x", 0.3)
	v.SetDefault("engine.safe_zone.max_x", 0.7)
	v.SetDefault("engine.safe_zone.min_y", 0.5)
	v.SetDefault("engine.safe_zone.max_y", 0.9)
	v.SetDefault("engine.enforce_safe_zone", true)
	v.SetDefault("engine.max_tap_failures", 5)
	v.SetDefault("engine.verbose_safety", false)
	v.SetDefault("engine.seed", 0)

	// -- Tracker --
	v.SetDefault("tracker.enabled", false)
	v.SetDefault("tracker.interval", "500ms")
	v.SetDefault("tracker.confidence_threshold", 0.5)

	// -- Reactive --
	v.SetDefault("reactive.lead_distance", 150.0)
	v.SetDefault("reactive.tease_distance", 200.0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Device.ADBPath == "" {
		return fmt.Errorf("device.adb_path must not be empty")
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine configuration invalid: %w", err)
	}
	if err := c.Tracker.Validate(); err != nil {
		return fmt.Errorf("tracker configuration invalid: %w", err)
	}
	if err := c.Reactive.Validate(); err != nil {
		return fmt.Errorf("reactive configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the engine settings.
func (e *EngineConfig) Validate() error {
	if e.Intensity <= 0 || e.Intensity > 1 {
		return fmt.Errorf("intensity must be in (0,1], got %v", e.Intensity)
	}
	if e.ChangeInterval <= 0 {
		return fmt.Errorf("change_interval must be a positive duration")
	}
	if e.TimeUnitMs <= 0 {
		return fmt.Errorf("time_unit_ms must be a positive integer")
	}
	if e.MaxTapFailures <= 0 {
		return fmt.Errorf("max_tap_failures must be a positive integer")
	}
	z := e.SafeZone
	for _, b := range []struct {
		name  string
		value float64
	}{
		{"min_x", z.MinX}, {"max_x", z.MaxX}, {"min_y", z.MinY}, {"max_y", z.MaxY},
	} {
		if b.value < 0 || b.value > 1 {
			return fmt.Errorf("safe_zone.%s must be in [0,1], got %v", b.name, b.value)
		}
	}
	if z.MinX >= z.MaxX {
		return fmt.Errorf("safe_zone.min_x must be less than max_x")
	}
	if z.MinY >= z.MaxY {
		return fmt.Errorf("safe_zone.min_y must be less than max_y")
	}
	return nil
}

// Validate checks the tracker settings.
func (t *TrackerConfig) Validate() error {
	if t.Interval <= 0 {
		return fmt.Errorf("interval must be a positive duration")
	}
	if t.ConfidenceThreshold < 0 || t.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0.0 and 1.0")
	}
	return nil
}

// Validate checks the reactive settings.
func (r *ReactiveConfig) Validate() error {
	if r.LeadDistance <= 0 {
		return fmt.Errorf("lead_distance must be positive")
	}
	if r.TeaseDistance <= 0 {
		return fmt.Errorf("tease_distance must be positive")
	}
	return nil
}
