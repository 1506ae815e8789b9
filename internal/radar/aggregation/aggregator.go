package aggregation

import (
	"sort"
	"sync"
	"time"

	"risk-radar/internal/radar/config"
	radar "risk-radar/internal/radar/domain"
	"risk-radar/internal/radar/scoring"
)

// Default clustering parameters.
const (
	DefaultLookahead     = 24 * time.Hour
	DefaultClusterWindow = 2 * time.Hour
)

// Aggregator derives current risk, temporal clusters and danger zones from
// the current event snapshot. The snapshot is replaced wholesale via
// SetEvents; all read operations are pure functions of the snapshot, the
// configuration and the supplied instant.
type Aggregator struct {
	thresholds    config.Thresholds
	trackedAssets []string
	scorer        *scoring.Scorer

	mu     sync.RWMutex
	events []radar.Event
}

// NewAggregator constructs an aggregator.
func NewAggregator(cfg config.Config, scorer *scoring.Scorer) *Aggregator {
	if scorer == nil {
		scorer = scoring.NewScorer(cfg)
	}
	return &Aggregator{
		thresholds:    cfg.Thresholds,
		trackedAssets: append([]string(nil), cfg.TrackedAssets...),
		scorer:        scorer,
	}
}

// SetEvents atomically replaces the event snapshot.
func (a *Aggregator) SetEvents(events []radar.Event) {
	snapshot := append([]radar.Event(nil), events...)
	a.mu.Lock()
	a.events = snapshot
	a.mu.Unlock()
}

// Events returns the current snapshot.
func (a *Aggregator) Events() []radar.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.events
}

// TrackedAssets returns the tracked asset universe.
func (a *Aggregator) TrackedAssets() []string {
	return append([]string(nil), a.trackedAssets...)
}

// CurrentRisk computes the risk snapshot for every tracked asset.
func (a *Aggregator) CurrentRisk(now time.Time) map[string]radar.AssetRisk {
	events := a.Events()
	results := make(map[string]radar.AssetRisk, len(a.trackedAssets))
	for _, asset := range a.trackedAssets {
		results[asset] = a.assetRisk(events, asset, now)
	}
	return results
}

// AssetRisk computes the risk snapshot for a single asset. Assets outside
// the tracked universe return ErrAssetNotFound.
func (a *Aggregator) AssetRisk(asset string, now time.Time) (radar.AssetRisk, error) {
	for _, tracked := range a.trackedAssets {
		if tracked == asset {
			return a.assetRisk(a.Events(), asset, now), nil
		}
	}
	return radar.AssetRisk{}, radar.ErrAssetNotFound
}

func (a *Aggregator) assetRisk(events []radar.Event, asset string, now time.Time) radar.AssetRisk {
	maxScore := 0
	var nextEvent *radar.Event
	var nextTime time.Time

	for i := range events {
		event := events[i]
		if !event.Affects(asset) {
			continue
		}

		if score := a.scorer.Score(event, asset, now); score > maxScore {
			maxScore = score
		}

		if event.ScheduledTime.After(now) {
			if nextEvent == nil || event.ScheduledTime.Before(nextTime) {
				nextTime = event.ScheduledTime
				copied := event
				nextEvent = &copied
			}
		}
	}

	return radar.AssetRisk{
		Asset:     asset,
		Score:     maxScore,
		Status:    a.StatusForScore(maxScore),
		NextEvent: nextEvent,
	}
}

// DetectClustering finds temporal clusters among events scheduled within the
// lookahead horizon. The pass is greedy and order-dependent: events are
// processed in time order, each unconsumed event opens a window, and every
// event inside a formed cluster's window is consumed permanently. The result
// is non-overlapping rather than globally optimal.
func (a *Aggregator) DetectClustering(now time.Time, lookahead, window time.Duration) []radar.Cluster {
	end := now.Add(lookahead)

	var relevant []radar.Event
	for _, event := range a.Events() {
		if !event.ScheduledTime.Before(now) && !event.ScheduledTime.After(end) {
			relevant = append(relevant, event)
		}
	}
	if len(relevant) == 0 {
		return nil
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].ScheduledTime.Before(relevant[j].ScheduledTime)
	})

	var clusters []radar.Cluster
	consumed := make(map[string]struct{})

	for _, seed := range relevant {
		if _, ok := consumed[seed.ID]; ok {
			continue
		}

		windowStart := seed.ScheduledTime
		windowEnd := windowStart.Add(window)

		var members []radar.Event
		for _, event := range relevant {
			if !event.ScheduledTime.Before(windowStart) && !event.ScheduledTime.After(windowEnd) {
				members = append(members, event)
			}
		}
		if len(members) < 2 {
			continue
		}

		for _, member := range members {
			consumed[member.ID] = struct{}{}
		}
		clusters = append(clusters, radar.Cluster{
			WindowStart:    windowStart,
			WindowEnd:      windowEnd,
			Events:         members,
			CompoundRisk:   a.compoundRisk(members),
			AssetsAffected: assetUnion(members),
		})
	}
	return clusters
}

// DangerZones computes the intraday, daily and weekly elevated-risk views.
func (a *Aggregator) DangerZones(now time.Time) radar.DangerZones {
	return radar.DangerZones{
		Intraday:      a.intradayWindows(now),
		HighRiskDays:  a.highRiskDays(now),
		HighRiskWeeks: a.highRiskWeeks(now),
	}
}

func (a *Aggregator) intradayWindows(now time.Time) []radar.RiskWindow {
	var windows []radar.RiskWindow
	dayEnd := endOfDay(now)

	for _, event := range a.Events() {
		if event.ScheduledTime.Before(now) || event.ScheduledTime.After(dayEnd) {
			continue
		}
		level := a.EventRiskLevel(event)
		if level < a.thresholds.Elevated {
			continue
		}
		start := event.ScheduledTime.Add(-30 * time.Minute)
		if start.Before(now) {
			start = now
		}
		windows = append(windows, radar.RiskWindow{
			Start:  start,
			End:    event.ScheduledTime.Add(event.ImpactWindow),
			Level:  level,
			Events: []radar.Event{event},
			Assets: append([]string(nil), event.AffectedAssets...),
		})
	}
	return windows
}

func (a *Aggregator) highRiskDays(now time.Time) []radar.RiskWindow {
	horizon := now.Add(7 * 24 * time.Hour)

	daily := make(map[string][]radar.Event)
	for _, event := range a.Events() {
		if event.ScheduledTime.Before(now) || event.ScheduledTime.After(horizon) {
			continue
		}
		key := event.ScheduledTime.UTC().Format("2006-01-02")
		daily[key] = append(daily[key], event)
	}

	keys := make([]string, 0, len(daily))
	for key := range daily {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var windows []radar.RiskWindow
	for _, key := range keys {
		events := daily[key]
		level := a.compoundRisk(events)
		if level < a.thresholds.High {
			continue
		}
		dayStart, err := time.Parse("2006-01-02", key)
		if err != nil {
			continue
		}
		windows = append(windows, radar.RiskWindow{
			Start:  dayStart,
			End:    endOfDay(dayStart),
			Level:  level,
			Events: events,
			Assets: assetUnion(events),
		})
	}
	return windows
}

func (a *Aggregator) highRiskWeeks(now time.Time) []radar.RiskWindow {
	var windows []radar.RiskWindow
	horizon := now.Add(30 * 24 * time.Hour)
	events := a.Events()

	for weekStart := now; weekStart.Before(horizon); weekStart = weekStart.Add(7 * 24 * time.Hour) {
		weekEnd := weekStart.Add(7 * 24 * time.Hour)

		var weekEvents []radar.Event
		for _, event := range events {
			if !event.ScheduledTime.Before(weekStart) && event.ScheduledTime.Before(weekEnd) {
				weekEvents = append(weekEvents, event)
			}
		}
		if len(weekEvents) == 0 {
			continue
		}
		level := a.compoundRisk(weekEvents)
		if level < a.thresholds.Danger {
			continue
		}
		windows = append(windows, radar.RiskWindow{
			Start:  weekStart,
			End:    weekEnd,
			Level:  level,
			Events: weekEvents,
			Assets: assetUnion(weekEvents),
		})
	}
	return windows
}

// StatusForScore maps a score to its risk status via the configured
// ascending thresholds.
func (a *Aggregator) StatusForScore(score int) radar.RiskStatus {
	switch {
	case score >= a.thresholds.Danger:
		return radar.StatusDanger
	case score >= a.thresholds.High:
		return radar.StatusHigh
	case score >= a.thresholds.Elevated:
		return radar.StatusElevated
	case score >= a.thresholds.Low:
		return radar.StatusLow
	default:
		return radar.StatusNormal
	}
}

// Thresholds returns the configured thresholds.
func (a *Aggregator) Thresholds() config.Thresholds {
	return a.thresholds
}

// EventRiskLevel is the maximum per-asset score of a single event, evaluated
// at the event's own scheduled time rather than decayed to a query instant.
func (a *Aggregator) EventRiskLevel(event radar.Event) int {
	maxScore := 0
	for _, asset := range event.AffectedAssets {
		if score := a.scorer.Score(event, asset, event.ScheduledTime); score > maxScore {
			maxScore = score
		}
	}
	return maxScore
}

// compoundRisk is the group risk rule shared by clustering and the day/week
// danger zones: the maximum single-event risk plus a density bonus capped at
// +3, capped at 10 overall.
func (a *Aggregator) compoundRisk(events []radar.Event) int {
	if len(events) == 0 {
		return 0
	}
	maxBase := 0
	for _, event := range events {
		if level := a.EventRiskLevel(event); level > maxBase {
			maxBase = level
		}
	}
	bonus := len(events) - 1
	if bonus > 3 {
		bonus = 3
	}
	compound := maxBase + bonus
	if compound > 10 {
		compound = 10
	}
	return compound
}

func assetUnion(events []radar.Event) []string {
	seen := make(map[string]struct{})
	var assets []string
	for _, event := range events {
		for _, asset := range event.AffectedAssets {
			if _, ok := seen[asset]; ok {
				continue
			}
			seen[asset] = struct{}{}
			assets = append(assets, asset)
		}
	}
	sort.Strings(assets)
	return assets
}

func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
