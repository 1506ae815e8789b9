package sources

import (
	"context"
	"strings"
	"testing"
	"time"

	radar "risk-radar/internal/radar/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func TestEconomicCalendar(t *testing.T) {
	src := NewEconomicCalendar(fixedClock{now: testNow})
	if src.Name() != "economic-calendar" {
		t.Fatalf("unexpected name %s", src.Name())
	}

	events, err := src.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 8 {
		t.Fatalf("expected 8 economic events, got %d", len(events))
	}
	for _, event := range events {
		if err := event.Validate(); err != nil {
			t.Fatalf("event %s invalid: %v", event.ID, err)
		}
		if event.Tier != radar.Tier1 || event.Category != radar.CategoryEconomic {
			t.Fatalf("unexpected classification %+v", event)
		}
		if !strings.HasPrefix(event.ID, "econ-") {
			t.Fatalf("unexpected id %s", event.ID)
		}
		if !event.ScheduledTime.Equal(testNow.Add(24 * time.Hour)) {
			t.Fatalf("unexpected schedule %s", event.ScheduledTime)
		}
		if len(event.AffectedAssets) != 4 {
			t.Fatalf("expected full macro asset set, got %v", event.AffectedAssets)
		}
	}
}

func TestFedCalendar(t *testing.T) {
	src := NewFedCalendar(fixedClock{now: testNow})

	events, err := src.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 9 {
		t.Fatalf("expected 9 speaker events, got %d", len(events))
	}
	for _, event := range events {
		if event.Tier != radar.Tier2 || event.Category != radar.CategoryFedSpeaker {
			t.Fatalf("unexpected classification %+v", event)
		}
		if !strings.HasSuffix(event.Title, " Speech") {
			t.Fatalf("unexpected title %s", event.Title)
		}
	}
}

func TestEarningsCalendar(t *testing.T) {
	src := NewEarningsCalendar(fixedClock{now: testNow})

	events, err := src.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 7 {
		t.Fatalf("expected 7 earnings events, got %d", len(events))
	}
	for _, event := range events {
		if event.Tier != radar.Tier1 || event.Category != radar.CategoryEarnings {
			t.Fatalf("unexpected classification %+v", event)
		}
		if event.ImpactWindow != 14*time.Hour {
			t.Fatalf("unexpected impact window %s", event.ImpactWindow)
		}
		hasBTC := false
		for _, asset := range event.AffectedAssets {
			if asset == "BTC" {
				hasBTC = true
			}
		}
		crossCrypto := strings.HasPrefix(event.ID, "earn-nvda") || strings.HasPrefix(event.ID, "earn-tsla")
		if hasBTC != crossCrypto {
			t.Fatalf("event %s: BTC exposure mismatch, assets %v", event.ID, event.AffectedAssets)
		}
	}
}

func TestCryptoEvents(t *testing.T) {
	src := NewCryptoEvents(fixedClock{now: testNow})

	events, err := src.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 9 {
		t.Fatalf("expected 9 crypto and regulatory events, got %d", len(events))
	}

	var crypto, regulatory int
	for _, event := range events {
		if event.Tier != radar.Tier4 {
			t.Fatalf("unexpected tier %d", event.Tier)
		}
		switch event.Category {
		case radar.CategoryCrypto:
			crypto++
			if len(event.AffectedAssets) != 2 {
				t.Fatalf("expected BTC/ETH only, got %v", event.AffectedAssets)
			}
		case radar.CategoryRegulatory:
			regulatory++
			if len(event.AffectedAssets) != 4 {
				t.Fatalf("expected broad regulatory exposure, got %v", event.AffectedAssets)
			}
		default:
			t.Fatalf("unexpected category %s", event.Category)
		}
	}
	if crypto != 5 || regulatory != 4 {
		t.Fatalf("unexpected split crypto=%d regulatory=%d", crypto, regulatory)
	}
}

func TestEventIDsUnique(t *testing.T) {
	src := NewEconomicCalendar(fixedClock{now: testNow})
	events, _ := src.FetchEvents(context.Background())

	seen := map[string]bool{}
	for _, event := range events {
		if seen[event.ID] {
			t.Fatalf("duplicate id %s", event.ID)
		}
		seen[event.ID] = true
	}
}
