package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"risk-radar/internal/observability/metrics"
	"risk-radar/internal/radar/aggregation"
	"risk-radar/internal/radar/config"
	radar "risk-radar/internal/radar/domain"
)

// AlertNotifier delivers emitted alerts.
type AlertNotifier interface {
	Notify(ctx context.Context, alert radar.Alert)
}

// Manager runs the alert checks against the aggregator and de-duplicates
// across calls through its retained State. CheckThresholds is serialized
// internally; a single manager owns its state.
type Manager struct {
	aggregator *aggregation.Aggregator
	thresholds config.Thresholds
	notifier   AlertNotifier
	store      StateStore
	log        AlertLog

	mu    sync.Mutex
	state *State
}

// Option customizes the manager.
type Option func(*Manager)

// WithNotifier assigns a notifier.
func WithNotifier(notifier AlertNotifier) Option {
	return func(m *Manager) {
		m.notifier = notifier
	}
}

// WithStateStore assigns a persistent state store.
func WithStateStore(store StateStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithAlertLog assigns an alert log.
func WithAlertLog(log AlertLog) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithState seeds the manager with an existing state.
func WithState(state *State) Option {
	return func(m *Manager) {
		if state != nil {
			m.state = state
		}
	}
}

// NewManager constructs an alert manager. When a state store is configured
// the persisted state is loaded, restoring de-duplication memory.
func NewManager(aggregator *aggregation.Aggregator, thresholds config.Thresholds, opts ...Option) (*Manager, error) {
	if aggregator == nil {
		return nil, errors.New("alerts: nil aggregator")
	}
	m := &Manager{
		aggregator: aggregator,
		thresholds: thresholds,
		state:      NewState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store != nil {
		loaded, err := m.store.LoadState(context.Background())
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			m.state = loaded
		}
	}
	return m, nil
}

// State returns a copy of the retained state.
func (m *Manager) State() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Reset clears the retained state.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.state.Reset()
	m.mu.Unlock()
}

// CheckThresholds runs the four alert checks at the given instant and
// returns the concatenated alerts. The previous-risk snapshot is replaced
// with the current one after the checks.
func (m *Manager) CheckThresholds(ctx context.Context, now time.Time) ([]radar.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var alerts []radar.Alert

	currentRisks := m.aggregator.CurrentRisk(now)
	alerts = append(alerts, m.thresholdCrossings(currentRisks, now)...)

	zones := m.aggregator.DangerZones(now)
	alerts = append(alerts, m.dangerZoneEntries(zones, now)...)

	alerts = append(alerts, m.newHighImpactEvents(now)...)

	clusters := m.aggregator.DetectClustering(now, aggregation.DefaultLookahead, aggregation.DefaultClusterWindow)
	alerts = append(alerts, m.clusterAlerts(clusters, now)...)

	m.state.PreviousRisks = currentRisks

	if m.store != nil {
		if err := m.store.SaveState(ctx, m.state); err != nil {
			return alerts, err
		}
	}
	for _, alert := range alerts {
		metrics.IncAlert(string(alert.Type))
		if m.log != nil {
			if err := m.log.Append(ctx, alert); err != nil {
				return alerts, err
			}
		}
		if m.notifier != nil {
			m.notifier.Notify(ctx, alert)
		}
	}
	return alerts, nil
}

// thresholdCrossings emits an alert per threshold an asset's score crossed
// upward since the previous snapshot. An asset with no previous snapshot
// never triggers.
func (m *Manager) thresholdCrossings(current map[string]radar.AssetRisk, now time.Time) []radar.Alert {
	assets := make([]string, 0, len(current))
	for asset := range current {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	crossings := []struct {
		threshold int
		label     string
		desc      string
	}{
		{m.thresholds.Elevated, "ELEVATED", "Elevated risk detected"},
		{m.thresholds.High, "HIGH", "High risk detected"},
		{m.thresholds.Danger, "DANGER", "Danger zone entered"},
	}

	var alerts []radar.Alert
	for _, asset := range assets {
		risk := current[asset]
		previous, ok := m.state.PreviousRisks[asset]
		if !ok {
			continue
		}
		for _, crossing := range crossings {
			if previous.Score < crossing.threshold && crossing.threshold <= risk.Score {
				alerts = append(alerts, radar.Alert{
					Type:      radar.AlertThresholdCrossing,
					Title:     fmt.Sprintf("%s Risk %s", asset, crossing.label),
					Message:   fmt.Sprintf("%s for %s. Score: %d -> %d", crossing.desc, asset, previous.Score, risk.Score),
					Severity:  risk.Score,
					Timestamp: now,
					Assets:    []string{asset},
					Event:     risk.NextEvent,
				})
			}
		}
	}
	return alerts
}

// dangerZoneEntries fires on every call while now stays inside an
// intraday danger window.
func (m *Manager) dangerZoneEntries(zones radar.DangerZones, now time.Time) []radar.Alert {
	var alerts []radar.Alert
	for _, window := range zones.Intraday {
		if now.Before(window.Start) || now.After(window.End) {
			continue
		}
		if window.Level < m.thresholds.Danger {
			continue
		}
		var event *radar.Event
		if len(window.Events) > 0 {
			copied := window.Events[0]
			event = &copied
		}
		alerts = append(alerts, radar.Alert{
			Type:      radar.AlertDangerZoneEntry,
			Title:     "DANGER ZONE ACTIVE",
			Message:   fmt.Sprintf("Currently in danger zone. Level: %d. Ends: %s", window.Level, window.End.Format("15:04")),
			Severity:  window.Level,
			Timestamp: now,
			Assets:    append([]string(nil), window.Assets...),
			Event:     event,
		})
	}
	return alerts
}

// newHighImpactEvents alerts once per unseen tier-1 event. Every event id
// in the snapshot is marked seen, tier 1 or not, so a later tier change on
// a known id never re-alerts.
func (m *Manager) newHighImpactEvents(now time.Time) []radar.Alert {
	var alerts []radar.Alert
	for _, event := range m.aggregator.Events() {
		if m.state.SeenEvents[event.ID] {
			continue
		}
		if event.Tier == radar.Tier1 {
			copied := event
			alerts = append(alerts, radar.Alert{
				Type:      radar.AlertNewHighImpactEvent,
				Title:     fmt.Sprintf("New Tier 1 Event: %s", event.Title),
				Message:   fmt.Sprintf("High-impact event scheduled at %s", event.ScheduledTime.Format("2006-01-02 15:04")),
				Severity:  8,
				Timestamp: now,
				Assets:    append([]string(nil), event.AffectedAssets...),
				Event:     &copied,
			})
		}
		m.state.SeenEvents[event.ID] = true
	}
	return alerts
}

func (m *Manager) clusterAlerts(clusters []radar.Cluster, now time.Time) []radar.Alert {
	var alerts []radar.Alert
	for _, cluster := range clusters {
		key := clusterIdentity(cluster)
		if m.state.AlertedClusters[key] {
			continue
		}

		titles := make([]string, 0, 3)
		for i, event := range cluster.Events {
			if i == 3 {
				break
			}
			titles = append(titles, event.Title)
		}
		summary := strings.Join(titles, ", ")
		if extra := len(cluster.Events) - 3; extra > 0 {
			summary += fmt.Sprintf(" (+%d more)", extra)
		}

		var event *radar.Event
		if len(cluster.Events) > 0 {
			copied := cluster.Events[0]
			event = &copied
		}
		alerts = append(alerts, radar.Alert{
			Type:  radar.AlertClusteringDetected,
			Title: fmt.Sprintf("Event Cluster Detected (%d events)", len(cluster.Events)),
			Message: fmt.Sprintf("Multiple events between %s - %s: %s. Compound risk: %d",
				cluster.WindowStart.Format("15:04"), cluster.WindowEnd.Format("15:04"), summary, cluster.CompoundRisk),
			Severity:  cluster.CompoundRisk,
			Timestamp: now,
			Assets:    append([]string(nil), cluster.AssetsAffected...),
			Event:     event,
		})
		m.state.AlertedClusters[key] = true
	}
	return alerts
}

// clusterIdentity is the window start plus the ordered member ids.
func clusterIdentity(cluster radar.Cluster) string {
	ids := make([]string, 0, len(cluster.Events))
	for _, event := range cluster.Events {
		ids = append(ids, event.ID)
	}
	return cluster.WindowStart.UTC().Format(time.RFC3339Nano) + "|" + strings.Join(ids, ",")
}
