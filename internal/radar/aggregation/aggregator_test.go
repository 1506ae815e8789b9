package aggregation

import (
	"errors"
	"testing"
	"time"

	"risk-radar/internal/radar/config"
	radar "risk-radar/internal/radar/domain"
)

var baseline = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestAggregator() *Aggregator {
	return NewAggregator(config.Default(), nil)
}

func makeEvent(id string, tier radar.Tier, category radar.Category, scheduled time.Time, window time.Duration, assets ...string) radar.Event {
	if len(assets) == 0 {
		assets = []string{"SPY", "QQQ", "BTC", "GOLD"}
	}
	return radar.Event{
		ID:             id,
		Title:          "Event " + id,
		Category:       category,
		Tier:           tier,
		ScheduledTime:  scheduled,
		ImpactWindow:   window,
		AffectedAssets: assets,
	}
}

func TestCurrentRiskWithNoEvents(t *testing.T) {
	agg := newTestAggregator()

	risks := agg.CurrentRisk(baseline)
	if len(risks) != 4 {
		t.Fatalf("expected 4 tracked assets, got %d", len(risks))
	}
	for asset, risk := range risks {
		if risk.Score != 0 {
			t.Fatalf("asset %s: expected score 0, got %d", asset, risk.Score)
		}
		if risk.Status != radar.StatusNormal {
			t.Fatalf("asset %s: expected normal status, got %s", asset, risk.Status)
		}
		if risk.NextEvent != nil {
			t.Fatalf("asset %s: expected nil next event", asset)
		}
	}
}

func TestAssetRiskUnknownAsset(t *testing.T) {
	agg := newTestAggregator()

	_, err := agg.AssetRisk("DOGE", baseline)
	if !errors.Is(err, radar.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestAssetRiskPicksMaxScoreAndNearestEvent(t *testing.T) {
	agg := newTestAggregator()
	near := makeEvent("near", radar.Tier2, radar.CategoryFedSpeaker, baseline.Add(2*time.Hour), time.Hour)
	big := makeEvent("big", radar.Tier1, radar.CategoryEconomic, baseline.Add(30*time.Minute), 4*time.Hour)
	agg.SetEvents([]radar.Event{near, big})

	risk, err := agg.AssetRisk("SPY", baseline)
	if err != nil {
		t.Fatalf("asset risk: %v", err)
	}
	if risk.Score != 10 {
		t.Fatalf("expected max score 10, got %d", risk.Score)
	}
	if risk.Status != radar.StatusDanger {
		t.Fatalf("expected danger status, got %s", risk.Status)
	}
	if risk.NextEvent == nil || risk.NextEvent.ID != "big" {
		t.Fatalf("expected nearest future event big, got %+v", risk.NextEvent)
	}
}

func TestAssetRiskIgnoresPastEventsForNextEvent(t *testing.T) {
	agg := newTestAggregator()
	past := makeEvent("past", radar.Tier1, radar.CategoryEconomic, baseline.Add(-time.Hour), 4*time.Hour)
	agg.SetEvents([]radar.Event{past})

	risk, err := agg.AssetRisk("SPY", baseline)
	if err != nil {
		t.Fatalf("asset risk: %v", err)
	}
	if risk.NextEvent != nil {
		t.Fatalf("expected nil next event for past-only set")
	}
	// Still inside the impact window, so the score stays maximal.
	if risk.Score != 10 {
		t.Fatalf("expected 10 inside impact window, got %d", risk.Score)
	}
}

func TestDetectClusteringGroupsEventsInWindow(t *testing.T) {
	agg := newTestAggregator()
	a := makeEvent("a", radar.Tier2, radar.CategoryFedSpeaker, baseline.Add(5*time.Hour), time.Hour)
	b := makeEvent("b", radar.Tier2, radar.CategoryFedSpeaker, baseline.Add(6*time.Hour), time.Hour)
	lone := makeEvent("lone", radar.Tier2, radar.CategoryFedSpeaker, baseline.Add(12*time.Hour), time.Hour)
	agg.SetEvents([]radar.Event{lone, b, a})

	clusters := agg.DetectClustering(baseline, DefaultLookahead, DefaultClusterWindow)
	if len(clusters) != 1 {
		t.Fatalf("expected one cluster, got %d", len(clusters))
	}
	cluster := clusters[0]
	if len(cluster.Events) != 2 {
		t.Fatalf("expected 2 member events, got %d", len(cluster.Events))
	}
	if !cluster.WindowStart.Equal(a.ScheduledTime) {
		t.Fatalf("expected window anchored at earliest member")
	}

	maxLevel := agg.EventRiskLevel(a)
	if level := agg.EventRiskLevel(b); level > maxLevel {
		maxLevel = level
	}
	if cluster.CompoundRisk != maxLevel+1 {
		t.Fatalf("expected compound %d, got %d", maxLevel+1, cluster.CompoundRisk)
	}
}

func TestDetectClusteringSkipsDistantEvents(t *testing.T) {
	agg := newTestAggregator()
	a := makeEvent("a", radar.Tier2, radar.CategoryFedSpeaker, baseline.Add(2*time.Hour), time.Hour)
	b := makeEvent("b", radar.Tier2, radar.CategoryFedSpeaker, baseline.Add(8*time.Hour), time.Hour)
	agg.SetEvents([]radar.Event{a, b})

	if clusters := agg.DetectClustering(baseline, DefaultLookahead, DefaultClusterWindow); len(clusters) != 0 {
		t.Fatalf("expected no clusters for distant events, got %d", len(clusters))
	}
}

func TestDetectClusteringOutsideLookahead(t *testing.T) {
	agg := newTestAggregator()
	a := makeEvent("a", radar.Tier2, radar.CategoryFedSpeaker, baseline.Add(30*time.Hour), time.Hour)
	b := makeEvent("b", radar.Tier2, radar.CategoryFedSpeaker, baseline.Add(31*time.Hour), time.Hour)
	agg.SetEvents([]radar.Event{a, b})

	if clusters := agg.DetectClustering(baseline, DefaultLookahead, DefaultClusterWindow); len(clusters) != 0 {
		t.Fatalf("expected no clusters beyond lookahead, got %d", len(clusters))
	}
}

func TestCompoundRiskDensityBonusCaps(t *testing.T) {
	agg := newTestAggregator()
	when := baseline.Add(5 * time.Hour)

	var events []radar.Event
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		events = append(events, makeEvent(id, radar.Tier4, radar.CategoryCrypto, when, time.Hour, "BTC", "ETH"))
	}
	agg.SetEvents(events)

	clusters := agg.DetectClustering(baseline, DefaultLookahead, DefaultClusterWindow)
	if len(clusters) != 1 {
		t.Fatalf("expected one cluster, got %d", len(clusters))
	}
	base := agg.EventRiskLevel(events[0])
	want := base + 3
	if want > 10 {
		want = 10
	}
	if clusters[0].CompoundRisk != want {
		t.Fatalf("expected compound capped at %d, got %d", want, clusters[0].CompoundRisk)
	}
}

func TestDangerZonesIntraday(t *testing.T) {
	agg := newTestAggregator()
	event := makeEvent("fomc", radar.Tier1, radar.CategoryEconomic, baseline.Add(3*time.Hour), 2*time.Hour)
	agg.SetEvents([]radar.Event{event})

	zones := agg.DangerZones(baseline)
	if len(zones.Intraday) != 1 {
		t.Fatalf("expected one intraday window, got %d", len(zones.Intraday))
	}
	window := zones.Intraday[0]
	if !window.Start.Equal(event.ScheduledTime.Add(-30 * time.Minute)) {
		t.Fatalf("expected window start 30 minutes before event, got %s", window.Start)
	}
	if !window.End.Equal(event.ScheduledTime.Add(event.ImpactWindow)) {
		t.Fatalf("expected window end at impact window close, got %s", window.End)
	}
	if window.Level < agg.Thresholds().Elevated {
		t.Fatalf("expected level at or above elevated, got %d", window.Level)
	}
}

func TestDangerZonesIntradayClampsStartToNow(t *testing.T) {
	agg := newTestAggregator()
	event := makeEvent("cpi", radar.Tier1, radar.CategoryEconomic, baseline.Add(10*time.Minute), time.Hour)
	agg.SetEvents([]radar.Event{event})

	zones := agg.DangerZones(baseline)
	if len(zones.Intraday) != 1 {
		t.Fatalf("expected one intraday window, got %d", len(zones.Intraday))
	}
	if !zones.Intraday[0].Start.Equal(baseline) {
		t.Fatalf("expected window start clamped to now, got %s", zones.Intraday[0].Start)
	}
}

func TestDangerZonesHighRiskDays(t *testing.T) {
	agg := newTestAggregator()
	day := baseline.Add(48 * time.Hour)
	events := []radar.Event{
		makeEvent("a", radar.Tier1, radar.CategoryEconomic, day, time.Hour),
		makeEvent("b", radar.Tier1, radar.CategoryEarnings, day.Add(2*time.Hour), time.Hour),
	}
	agg.SetEvents(events)

	zones := agg.DangerZones(baseline)
	if len(zones.HighRiskDays) != 1 {
		t.Fatalf("expected one high-risk day, got %d", len(zones.HighRiskDays))
	}
	window := zones.HighRiskDays[0]
	if window.Level < agg.Thresholds().High {
		t.Fatalf("expected level at or above high, got %d", window.Level)
	}
	if len(window.Events) != 2 {
		t.Fatalf("expected both events in the day window, got %d", len(window.Events))
	}
}

func TestDangerZonesHighRiskWeeks(t *testing.T) {
	agg := newTestAggregator()
	events := []radar.Event{
		// Second 7-day bucket, compounds at danger.
		makeEvent("fomc", radar.Tier1, radar.CategoryEconomic, baseline.Add(9*24*time.Hour), 2*time.Hour),
		// Third bucket stays below the danger threshold.
		makeEvent("listing", radar.Tier4, radar.CategoryCrypto, baseline.Add(16*24*time.Hour), time.Hour),
		// Past every bucket in the 30-day horizon.
		makeEvent("late", radar.Tier1, radar.CategoryEconomic, baseline.Add(36*24*time.Hour), 2*time.Hour),
	}
	agg.SetEvents(events)

	zones := agg.DangerZones(baseline)
	if len(zones.HighRiskWeeks) != 1 {
		t.Fatalf("expected one high-risk week, got %d", len(zones.HighRiskWeeks))
	}
	window := zones.HighRiskWeeks[0]
	if !window.Start.Equal(baseline.Add(7 * 24 * time.Hour)) {
		t.Fatalf("expected week start 7 days out, got %s", window.Start)
	}
	if !window.End.Equal(baseline.Add(14 * 24 * time.Hour)) {
		t.Fatalf("expected week end 14 days out, got %s", window.End)
	}
	if window.Level < agg.Thresholds().Danger {
		t.Fatalf("expected level at or above danger, got %d", window.Level)
	}
	if len(window.Events) != 1 || window.Events[0].ID != "fomc" {
		t.Fatalf("expected only the danger-week event, got %v", window.Events)
	}
}

func TestStatusForScore(t *testing.T) {
	agg := newTestAggregator()
	cases := []struct {
		score int
		want  radar.RiskStatus
	}{
		{0, radar.StatusNormal},
		{2, radar.StatusNormal},
		{3, radar.StatusLow},
		{4, radar.StatusLow},
		{5, radar.StatusElevated},
		{7, radar.StatusHigh},
		{9, radar.StatusDanger},
		{10, radar.StatusDanger},
	}
	for _, tc := range cases {
		if got := agg.StatusForScore(tc.score); got != tc.want {
			t.Fatalf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestEventRiskLevelUsesScheduledTime(t *testing.T) {
	agg := newTestAggregator()
	// Level must not depend on how far away the event currently is.
	far := makeEvent("far", radar.Tier1, radar.CategoryEconomic, baseline.Add(20*24*time.Hour), time.Hour)

	if got := agg.EventRiskLevel(far); got != 10 {
		t.Fatalf("expected level 10 at the event's own time, got %d", got)
	}
}

func TestSetEventsCopiesSnapshot(t *testing.T) {
	agg := newTestAggregator()
	events := []radar.Event{makeEvent("a", radar.Tier1, radar.CategoryEconomic, baseline.Add(time.Hour), time.Hour)}
	agg.SetEvents(events)
	events[0].ID = "mutated"

	if agg.Events()[0].ID != "a" {
		t.Fatalf("aggregator shares caller slice")
	}
}
