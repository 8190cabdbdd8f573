package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete set of knobs that affect engine output. Hosts
// caching results must key on Hash() so no stale output survives a settings
// change.
type Config struct {
	// InterpolationStepSeconds is the uniform output cadence.
	InterpolationStepSeconds float64 `json:"interpolation_step_seconds" yaml:"interpolation_step_seconds"`

	// Certainty tier boundaries, in elapsed seconds between fixes.
	HighCertaintyThresholdS   float64 `json:"high_certainty_threshold_s" yaml:"high_certainty_threshold_s"`
	MediumCertaintyThresholdS float64 `json:"medium_certainty_threshold_s" yaml:"medium_certainty_threshold_s"`

	// GapThresholdS is both the Low certainty boundary and the point at
	// which a segment becomes a gap that is never interpolated.
	GapThresholdS float64 `json:"gap_threshold_s" yaml:"gap_threshold_s"`

	// Stop detection: less than StopDistanceM travelled over at least
	// MinStopTimeS means the vehicle was stationary.
	StopDistanceM float64 `json:"stop_distance_m" yaml:"stop_distance_m"`
	MinStopTimeS  float64 `json:"min_stop_time_s" yaml:"min_stop_time_s"`

	// MaxPlausibleSpeedKMH is the anomaly ceiling. Segments above it stay
	// in the output, flagged.
	MaxPlausibleSpeedKMH float64 `json:"max_plausible_speed_kmh" yaml:"max_plausible_speed_kmh"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		InterpolationStepSeconds:  1.0,
		HighCertaintyThresholdS:   5.0,
		MediumCertaintyThresholdS: 10.0,
		GapThresholdS:             30.0,
		StopDistanceM:             5.0,
		MinStopTimeS:              5.0,
		MaxPlausibleSpeedKMH:      250.0,
	}
}

// LoadConfig reads a YAML config file over the defaults, so a file only
// needs to name the settings it changes.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	contents, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(contents, &config); err != nil {
		return config, fmt.Errorf("parse config: %w", err)
	}

	return config, config.Validate()
}

// Validate rejects configurations the pipeline cannot honour.
func (c Config) Validate() error {
	if c.InterpolationStepSeconds <= 0 {
		return fmt.Errorf("interpolation_step_seconds must be positive, got %v", c.InterpolationStepSeconds)
	}
	if c.HighCertaintyThresholdS <= 0 {
		return fmt.Errorf("high_certainty_threshold_s must be positive, got %v", c.HighCertaintyThresholdS)
	}
	if c.MediumCertaintyThresholdS < c.HighCertaintyThresholdS {
		return fmt.Errorf("medium_certainty_threshold_s %v below high threshold %v",
			c.MediumCertaintyThresholdS, c.HighCertaintyThresholdS)
	}
	if c.GapThresholdS < c.MediumCertaintyThresholdS {
		return fmt.Errorf("gap_threshold_s %v below medium threshold %v",
			c.GapThresholdS, c.MediumCertaintyThresholdS)
	}
	if c.StopDistanceM < 0 || c.MinStopTimeS < 0 {
		return fmt.Errorf("stop thresholds must not be negative")
	}
	if c.MaxPlausibleSpeedKMH <= 0 {
		return fmt.Errorf("max_plausible_speed_kmh must be positive, got %v", c.MaxPlausibleSpeedKMH)
	}
	return nil
}

// Hash returns a digest over every setting, for use in cache keys.
func (c Config) Hash() string {
	encoded, _ := json.Marshal(c)
	digest := sha256.Sum256(encoded)
	return hex.EncodeToString(digest[:8])
}
