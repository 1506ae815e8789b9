package application

import (
	"context"
	"testing"
	"time"

	"risk-radar/internal/radar/aggregation"
	"risk-radar/internal/radar/config"
	radar "risk-radar/internal/radar/domain"
)

var baseline = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	alerts []radar.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, alert radar.Alert) {
	r.alerts = append(r.alerts, alert)
}

type memoryStateStore struct {
	state *State
	saves int
}

func (s *memoryStateStore) LoadState(context.Context) (*State, error) {
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

func (s *memoryStateStore) SaveState(_ context.Context, state *State) error {
	s.state = state.Clone()
	s.saves++
	return nil
}

type recordingLog struct {
	alerts []radar.Alert
}

func (l *recordingLog) Append(_ context.Context, alert radar.Alert) error {
	l.alerts = append(l.alerts, alert)
	return nil
}

func (l *recordingLog) ListRecent(_ context.Context, limit int) ([]radar.Alert, error) {
	if limit > len(l.alerts) {
		limit = len(l.alerts)
	}
	return l.alerts[len(l.alerts)-limit:], nil
}

func spyOnlyConfig() config.Config {
	cfg := config.Default()
	cfg.TrackedAssets = []string{"SPY"}
	return cfg
}

func tier1Event(id string, scheduled time.Time) radar.Event {
	return radar.Event{
		ID:             id,
		Title:          "CPI Release",
		Category:       radar.CategoryEconomic,
		Tier:           radar.Tier1,
		ScheduledTime:  scheduled,
		ImpactWindow:   2 * time.Hour,
		AffectedAssets: []string{"SPY", "QQQ"},
	}
}

func tier2Event(id string, scheduled time.Time) radar.Event {
	return radar.Event{
		ID:             id,
		Title:          "Fed Speech " + id,
		Category:       radar.CategoryFedSpeaker,
		Tier:           radar.Tier2,
		ScheduledTime:  scheduled,
		ImpactWindow:   time.Hour,
		AffectedAssets: []string{"SPY"},
	}
}

func countByType(alerts []radar.Alert, want radar.AlertType) int {
	n := 0
	for _, alert := range alerts {
		if alert.Type == want {
			n++
		}
	}
	return n
}

func TestNewManagerRequiresAggregator(t *testing.T) {
	if _, err := NewManager(nil, config.Default().Thresholds); err == nil {
		t.Fatal("expected error for nil aggregator")
	}
}

func TestFirstCheckNeverFiresCrossings(t *testing.T) {
	cfg := spyOnlyConfig()
	agg := aggregation.NewAggregator(cfg, nil)
	agg.SetEvents([]radar.Event{tier2Event("a", baseline.Add(20*time.Hour))})

	manager, err := NewManager(agg, cfg.Thresholds)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	alerts, err := manager.CheckThresholds(context.Background(), baseline)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if n := countByType(alerts, radar.AlertThresholdCrossing); n != 0 {
		t.Fatalf("expected no crossings without a previous snapshot, got %d", n)
	}

	state := manager.State()
	if _, ok := state.PreviousRisks["SPY"]; !ok {
		t.Fatal("expected previous risk snapshot recorded")
	}
}

func TestCrossingsDangerZoneAndNewEvent(t *testing.T) {
	cfg := spyOnlyConfig()
	agg := aggregation.NewAggregator(cfg, nil)
	notifier := &recordingNotifier{}
	log := &recordingLog{}

	manager, err := NewManager(agg, cfg.Thresholds, WithNotifier(notifier), WithAlertLog(log))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	// Seed the previous snapshot with a calm market.
	if _, err := manager.CheckThresholds(context.Background(), baseline); err != nil {
		t.Fatalf("seed check: %v", err)
	}

	agg.SetEvents([]radar.Event{tier1Event("cpi", baseline.Add(30*time.Minute))})

	alerts, err := manager.CheckThresholds(context.Background(), baseline)
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if n := countByType(alerts, radar.AlertThresholdCrossing); n != 3 {
		t.Fatalf("expected crossings for elevated, high and danger, got %d", n)
	}
	if n := countByType(alerts, radar.AlertDangerZoneEntry); n != 1 {
		t.Fatalf("expected one danger-zone alert, got %d", n)
	}
	if n := countByType(alerts, radar.AlertNewHighImpactEvent); n != 1 {
		t.Fatalf("expected one new-event alert, got %d", n)
	}

	for _, alert := range alerts {
		if alert.Type == radar.AlertNewHighImpactEvent && alert.Severity != 8 {
			t.Fatalf("expected new-event severity 8, got %d", alert.Severity)
		}
		if alert.Type == radar.AlertThresholdCrossing && alert.Assets[0] != "SPY" {
			t.Fatalf("expected SPY crossing, got %v", alert.Assets)
		}
	}

	if len(notifier.alerts) != len(alerts) {
		t.Fatalf("notifier saw %d alerts, expected %d", len(notifier.alerts), len(alerts))
	}
	if len(log.alerts) != len(alerts) {
		t.Fatalf("log saw %d alerts, expected %d", len(log.alerts), len(alerts))
	}
}

func TestDangerZoneRefiresAndEventsStaySeen(t *testing.T) {
	cfg := spyOnlyConfig()
	agg := aggregation.NewAggregator(cfg, nil)
	manager, err := NewManager(agg, cfg.Thresholds)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	agg.SetEvents([]radar.Event{tier1Event("cpi", baseline.Add(30*time.Minute))})
	if _, err := manager.CheckThresholds(context.Background(), baseline); err != nil {
		t.Fatalf("first check: %v", err)
	}

	alerts, err := manager.CheckThresholds(context.Background(), baseline.Add(time.Minute))
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if n := countByType(alerts, radar.AlertThresholdCrossing); n != 0 {
		t.Fatalf("expected no repeat crossings, got %d", n)
	}
	if n := countByType(alerts, radar.AlertNewHighImpactEvent); n != 0 {
		t.Fatalf("expected event already seen, got %d new-event alerts", n)
	}
	if n := countByType(alerts, radar.AlertDangerZoneEntry); n != 1 {
		t.Fatalf("expected danger zone to re-fire while active, got %d", n)
	}
}

func TestClusterAlertFiresOnce(t *testing.T) {
	cfg := spyOnlyConfig()
	agg := aggregation.NewAggregator(cfg, nil)
	manager, err := NewManager(agg, cfg.Thresholds)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	agg.SetEvents([]radar.Event{
		tier2Event("a", baseline.Add(5*time.Hour)),
		tier2Event("b", baseline.Add(6*time.Hour)),
	})

	first, err := manager.CheckThresholds(context.Background(), baseline)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if n := countByType(first, radar.AlertClusteringDetected); n != 1 {
		t.Fatalf("expected one cluster alert, got %d", n)
	}

	second, err := manager.CheckThresholds(context.Background(), baseline.Add(time.Minute))
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if n := countByType(second, radar.AlertClusteringDetected); n != 0 {
		t.Fatalf("expected cluster de-duplicated, got %d", n)
	}
}

func TestStateStoreRestoresSeenEvents(t *testing.T) {
	cfg := spyOnlyConfig()
	store := &memoryStateStore{}

	agg := aggregation.NewAggregator(cfg, nil)
	agg.SetEvents([]radar.Event{tier1Event("cpi", baseline.Add(20*time.Hour))})

	first, err := NewManager(agg, cfg.Thresholds, WithStateStore(store))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	alerts, err := first.CheckThresholds(context.Background(), baseline)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if n := countByType(alerts, radar.AlertNewHighImpactEvent); n != 1 {
		t.Fatalf("expected one new-event alert, got %d", n)
	}
	if store.saves == 0 {
		t.Fatal("expected state persisted")
	}

	// A fresh manager with the same store must remember the event.
	second, err := NewManager(agg, cfg.Thresholds, WithStateStore(store))
	if err != nil {
		t.Fatalf("restored manager: %v", err)
	}
	alerts, err = second.CheckThresholds(context.Background(), baseline.Add(time.Minute))
	if err != nil {
		t.Fatalf("restored check: %v", err)
	}
	if n := countByType(alerts, radar.AlertNewHighImpactEvent); n != 0 {
		t.Fatalf("expected restored state to suppress the alert, got %d", n)
	}
}

func TestResetClearsMemory(t *testing.T) {
	cfg := spyOnlyConfig()
	agg := aggregation.NewAggregator(cfg, nil)
	agg.SetEvents([]radar.Event{tier1Event("cpi", baseline.Add(20*time.Hour))})

	manager, err := NewManager(agg, cfg.Thresholds)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := manager.CheckThresholds(context.Background(), baseline); err != nil {
		t.Fatalf("check: %v", err)
	}
	manager.Reset()

	alerts, err := manager.CheckThresholds(context.Background(), baseline.Add(time.Minute))
	if err != nil {
		t.Fatalf("post-reset check: %v", err)
	}
	if n := countByType(alerts, radar.AlertNewHighImpactEvent); n != 1 {
		t.Fatalf("expected event re-alerted after reset, got %d", n)
	}
}
