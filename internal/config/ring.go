package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/banshee-data/ringtrack/internal/units"
)

// DefaultConfigPath is the path to the canonical ring defaults file.
const DefaultConfigPath = "config/ringtrack.defaults.json"

// Scheduler names accepted by the "scheduler" field.
const (
	SchedulerShared      = "shared"       // one ticker, one integration per track
	SchedulerPerPosition = "per-position" // every position ticks and integrates on its own
)

// RingConfig is the root configuration for a ring simulation. Fields
// omitted from JSON fall back to the defaults returned by the Get*
// methods, so partial configs are safe.
type RingConfig struct {
	// Geometry
	CircleLength   *float64 `json:"circle_length,omitempty"`
	LineLength     *float64 `json:"line_length,omitempty"`
	Total          *int     `json:"total,omitempty"`
	UpdateInterval *string  `json:"update_interval,omitempty"` // duration string like "100ms"

	// Presentation
	IdleColor *string `json:"idle_color,omitempty"`

	// Units the track speeds are given in (mps, mph, kmph, kph)
	SpeedUnits *string `json:"speed_units,omitempty"`

	// shared or per-position
	Scheduler *string `json:"scheduler,omitempty"`

	Tracks []TrackConfig `json:"tracks,omitempty"`
}

// TrackConfig describes one track. Speeds maps a distance in metres,
// written as a JSON object key, to a speed in SpeedUnits.
type TrackConfig struct {
	Color  string             `json:"color"`
	Tag    string             `json:"tag,omitempty"`
	Speeds map[string]float64 `json:"speeds"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRingConfig returns a RingConfig with all fields unset.
func EmptyRingConfig() *RingConfig {
	return &RingConfig{}
}

// DefaultRingConfig returns the demo ring: three trains over a 400 m
// circle of 100 positions with a 75 m lit window.
func DefaultRingConfig() *RingConfig {
	return &RingConfig{
		CircleLength:   ptrFloat64(400),
		LineLength:     ptrFloat64(75),
		Total:          ptrInt(100),
		UpdateInterval: ptrString("100ms"),
		IdleColor:      ptrString(string(ring.DefaultIdleColor)),
		SpeedUnits:     ptrString(units.MPS),
		Scheduler:      ptrString(SchedulerShared),
		Tracks: []TrackConfig{
			{Color: "blue", Speeds: map[string]float64{"0": 5, "50": 6, "100": 7, "150": 7.5, "200": 6, "300": 5, "400": 4.5}},
			{Color: "red", Speeds: map[string]float64{"0": 3, "50": 5, "100": 7, "150": 7.5, "200": 6, "300": 5, "400": 6.5}},
			{Color: "green", Speeds: map[string]float64{"0": 4, "50": 5, "100": 7, "150": 7.5, "200": 8, "300": 9, "400": 5.5}},
		},
	}
}

// LoadRingConfig loads a RingConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadRingConfig(path string) (*RingConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRingConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded,
// intended for test setup.
func MustLoadDefaultConfig() *RingConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from cmd/ringtrack/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadRingConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that every set field is usable. Unset fields are not
// checked; their defaults are valid.
func (c *RingConfig) Validate() error {
	if _, err := c.Geometry(); err != nil {
		return err
	}

	if c.UpdateInterval != nil && *c.UpdateInterval != "" {
		if _, err := time.ParseDuration(*c.UpdateInterval); err != nil {
			return fmt.Errorf("invalid update_interval '%s': %w", *c.UpdateInterval, err)
		}
	}

	if c.SpeedUnits != nil && !units.IsValid(*c.SpeedUnits) {
		return fmt.Errorf("speed_units must be one of %s, got %q", units.GetValidUnitsString(), *c.SpeedUnits)
	}

	switch c.GetScheduler() {
	case SchedulerShared, SchedulerPerPosition:
	default:
		return fmt.Errorf("scheduler must be %q or %q, got %q", SchedulerShared, SchedulerPerPosition, c.GetScheduler())
	}

	if _, err := c.BuildTracks(); err != nil {
		return err
	}
	return nil
}

// GetCircleLength returns the circle_length value or the default.
func (c *RingConfig) GetCircleLength() float64 {
	if c.CircleLength == nil {
		return 400
	}
	return *c.CircleLength
}

// GetLineLength returns the line_length value or the default.
func (c *RingConfig) GetLineLength() float64 {
	if c.LineLength == nil {
		return 75
	}
	return *c.LineLength
}

// GetTotal returns the total value or the default.
func (c *RingConfig) GetTotal() int {
	if c.Total == nil {
		return 100
	}
	return *c.Total
}

// GetUpdateInterval parses and returns the UpdateInterval as a time.Duration.
func (c *RingConfig) GetUpdateInterval() time.Duration {
	if c.UpdateInterval == nil || *c.UpdateInterval == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.UpdateInterval)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetIdleColor returns the idle_color value or the default.
func (c *RingConfig) GetIdleColor() ring.Color {
	if c.IdleColor == nil || *c.IdleColor == "" {
		return ring.DefaultIdleColor
	}
	return ring.Color(*c.IdleColor)
}

// GetSpeedUnits returns the speed_units value or the default.
func (c *RingConfig) GetSpeedUnits() string {
	if c.SpeedUnits == nil || *c.SpeedUnits == "" {
		return units.MPS
	}
	return *c.SpeedUnits
}

// GetScheduler returns the scheduler value or the default.
func (c *RingConfig) GetScheduler() string {
	if c.Scheduler == nil || *c.Scheduler == "" {
		return SchedulerShared
	}
	return *c.Scheduler
}

// Geometry builds and validates the ring geometry.
func (c *RingConfig) Geometry() (ring.Geometry, error) {
	g := ring.Geometry{
		CircleLength:   c.GetCircleLength(),
		LineLength:     c.GetLineLength(),
		Total:          c.GetTotal(),
		UpdateInterval: c.GetUpdateInterval(),
	}
	if err := g.Validate(); err != nil {
		return ring.Geometry{}, err
	}
	return g, nil
}

// BuildTracks converts the configured tracks to ring tracks, converting
// speeds to m/s. At least one track is required.
func (c *RingConfig) BuildTracks() ([]*ring.Track, error) {
	if len(c.Tracks) == 0 {
		return nil, fmt.Errorf("at least one track is required")
	}
	unit := c.GetSpeedUnits()
	tracks := make([]*ring.Track, 0, len(c.Tracks))
	for i, tc := range c.Tracks {
		speeds := make(map[float64]float64, len(tc.Speeds))
		for key, v := range tc.Speeds {
			d, err := strconv.ParseFloat(key, 64)
			if err != nil || math.IsNaN(d) {
				return nil, fmt.Errorf("track %d: invalid distance key %q", i, key)
			}
			mps, err := units.ToMPS(v, unit)
			if err != nil {
				return nil, fmt.Errorf("track %d: %w", i, err)
			}
			speeds[d] = mps
		}
		profile, err := ring.NewSpeedProfile(speeds)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		track, err := ring.NewTrack(profile, ring.Color(tc.Color), tc.Tag)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}
