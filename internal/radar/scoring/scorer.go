package scoring

import (
	"math"
	"time"

	"risk-radar/internal/radar/config"
	radar "risk-radar/internal/radar/domain"
)

// Base impact by tier. Unknown tiers fall back to a neutral 5.0.
var tierBaseImpact = map[radar.Tier]float64{
	radar.Tier1: 8.0,
	radar.Tier2: 5.0,
	radar.Tier3: 6.0,
	radar.Tier4: 4.0,
}

const (
	defaultBaseImpact  = 5.0
	defaultCorrelation = 0.5
)

// Defaults for the decay multipliers when a bucket is missing from the
// configured table.
var defaultMultiplier = map[string]float64{
	config.BucketUnder1h: 2.0,
	config.Bucket1To4h:   1.8,
	config.Bucket4To12h:  1.5,
	config.Bucket12To24h: 1.2,
	config.Bucket24hPlus: 1.0,
}

// Scorer computes per-event, per-asset, per-instant impact scores.
// Score is a pure function of its inputs; Scorer holds only immutable
// configuration and is safe for concurrent use.
type Scorer struct {
	multipliers  map[string]float64
	correlations map[string]map[string]float64
}

// NewScorer constructs a scorer from a risk-model configuration.
func NewScorer(cfg config.Config) *Scorer {
	clone := cfg.Clone()
	return &Scorer{
		multipliers:  clone.Multipliers,
		correlations: clone.Correlations,
	}
}

// Score returns the impact score of event on asset at the given instant,
// an integer in [1,10].
func (s *Scorer) Score(event radar.Event, asset string, now time.Time) int {
	base := baseImpact(event.Tier)
	multiplier := s.timeMultiplier(event, now)
	correlation := s.correlationWeight(asset, event.Category)

	raw := base * multiplier * correlation
	return clampScore(raw)
}

func baseImpact(tier radar.Tier) float64 {
	if impact, ok := tierBaseImpact[tier]; ok {
		return impact
	}
	return defaultBaseImpact
}

// timeMultiplier is a step function of the hours until the event. A past
// event keeps the under-1h multiplier while inside its impact window and
// drops to zero beyond it.
func (s *Scorer) timeMultiplier(event radar.Event, now time.Time) float64 {
	hoursUntil := event.ScheduledTime.Sub(now).Hours()

	if hoursUntil < 0 {
		hoursSince := -hoursUntil
		if hoursSince <= event.ImpactWindow.Hours() {
			return s.multiplier(config.BucketUnder1h)
		}
		return 0.0
	}

	switch {
	case hoursUntil < 1:
		return s.multiplier(config.BucketUnder1h)
	case hoursUntil < 4:
		return s.multiplier(config.Bucket1To4h)
	case hoursUntil < 12:
		return s.multiplier(config.Bucket4To12h)
	case hoursUntil < 24:
		return s.multiplier(config.Bucket12To24h)
	default:
		return s.multiplier(config.Bucket24hPlus)
	}
}

func (s *Scorer) multiplier(bucket string) float64 {
	if m, ok := s.multipliers[bucket]; ok {
		return m
	}
	return defaultMultiplier[bucket]
}

func (s *Scorer) correlationWeight(asset string, category radar.Category) float64 {
	byCategory, ok := s.correlations[asset]
	if !ok {
		return defaultCorrelation
	}
	weight, ok := byCategory[string(category)]
	if !ok {
		return defaultCorrelation
	}
	return weight
}

// clampScore rounds half-to-even and clamps to [1,10].
func clampScore(raw float64) int {
	rounded := int(math.RoundToEven(raw))
	if rounded < 1 {
		return 1
	}
	if rounded > 10 {
		return 10
	}
	return rounded
}
