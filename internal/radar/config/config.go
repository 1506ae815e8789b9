package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Named time-distance buckets for the decay multipliers.
const (
	BucketUnder1h = "under_1h"
	Bucket1To4h   = "1_to_4h"
	Bucket4To12h  = "4_to_12h"
	Bucket12To24h = "12_to_24h"
	Bucket24hPlus = "24h_plus"
)

// Thresholds defines the ascending score thresholds for risk statuses.
type Thresholds struct {
	Low      int `yaml:"low"`
	Elevated int `yaml:"elevated"`
	High     int `yaml:"high"`
	Danger   int `yaml:"danger"`
}

// Schedule defines the polling cadences for the ingestion loops.
type Schedule struct {
	CalendarPollSeconds     int `yaml:"calendar_poll_seconds"`
	NewsPollSeconds         int `yaml:"news_poll_seconds"`
	RiskRecalcSeconds       int `yaml:"risk_recalc_seconds"`
	ProximityThresholdHours int `yaml:"proximity_threshold_hours"`
}

// Config is the risk-model configuration. Every instance owns its own copies
// of the default tables; mutating one instance never affects another.
type Config struct {
	Thresholds    Thresholds                    `yaml:"thresholds"`
	Multipliers   map[string]float64            `yaml:"time_multipliers"`
	Correlations  map[string]map[string]float64 `yaml:"asset_correlations"`
	TrackedAssets []string                      `yaml:"tracked_assets"`
	Schedule      Schedule                      `yaml:"schedule"`
}

func defaultMultipliers() map[string]float64 {
	return map[string]float64{
		Bucket24hPlus: 1.0,
		Bucket12To24h: 1.2,
		Bucket4To12h:  1.5,
		Bucket1To4h:   1.8,
		BucketUnder1h: 2.0,
	}
}

func defaultCorrelations() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"SPY": {
			"economic":     1.0,
			"fed_speaker":  0.9,
			"earnings":     0.8,
			"geopolitical": 0.7,
			"crypto":       0.2,
			"regulatory":   0.5,
		},
		"QQQ": {
			"economic":     0.9,
			"fed_speaker":  0.85,
			"earnings":     1.0,
			"geopolitical": 0.6,
			"crypto":       0.3,
			"regulatory":   0.5,
		},
		"BTC": {
			"economic":     0.6,
			"fed_speaker":  0.5,
			"earnings":     0.2,
			"geopolitical": 0.8,
			"crypto":       1.0,
			"regulatory":   0.9,
		},
		"GOLD": {
			"economic":     0.9,
			"fed_speaker":  0.8,
			"earnings":     0.1,
			"geopolitical": 1.0,
			"crypto":       0.1,
			"regulatory":   0.3,
		},
	}
}

// Default returns a configuration with the stock risk model. The returned
// value owns fresh copies of every table.
func Default() Config {
	return Config{
		Thresholds:    Thresholds{Low: 3, Elevated: 5, High: 7, Danger: 9},
		Multipliers:   defaultMultipliers(),
		Correlations:  defaultCorrelations(),
		TrackedAssets: []string{"SPY", "QQQ", "BTC", "GOLD"},
		Schedule: Schedule{
			CalendarPollSeconds:     3600,
			NewsPollSeconds:         300,
			RiskRecalcSeconds:       60,
			ProximityThresholdHours: 2,
		},
	}
}

// Load builds a configuration from defaults, optionally overridden by the
// yaml file named in RADAR_CONFIG.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("RADAR_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if assets := os.Getenv("RADAR_TRACKED_ASSETS"); assets != "" {
		cfg.TrackedAssets = splitCSV(assets)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	t := c.Thresholds
	if !(t.Low < t.Elevated && t.Elevated < t.High && t.High < t.Danger) {
		return errors.New("config: thresholds must be strictly ascending")
	}
	for bucket, m := range c.Multipliers {
		if m < 0 || m > 2 {
			return fmt.Errorf("config: multiplier %s out of range [0,2]: %v", bucket, m)
		}
	}
	for asset, byCategory := range c.Correlations {
		for category, w := range byCategory {
			if w < 0 || w > 1 {
				return fmt.Errorf("config: correlation %s/%s out of range [0,1]: %v", asset, category, w)
			}
		}
	}
	if len(c.TrackedAssets) == 0 {
		return errors.New("config: tracked assets required")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := c
	out.Multipliers = make(map[string]float64, len(c.Multipliers))
	for k, v := range c.Multipliers {
		out.Multipliers[k] = v
	}
	out.Correlations = make(map[string]map[string]float64, len(c.Correlations))
	for asset, byCategory := range c.Correlations {
		inner := make(map[string]float64, len(byCategory))
		for category, w := range byCategory {
			inner[category] = w
		}
		out.Correlations[asset] = inner
	}
	out.TrackedAssets = append([]string(nil), c.TrackedAssets...)
	return out
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
