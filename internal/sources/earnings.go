package sources

import (
	"context"
	"strings"
	"time"

	radar "risk-radar/internal/radar/domain"
)

type earningsEntry struct {
	symbol string
	name   string
}

var megaCapTickers = []earningsEntry{
	{"AAPL", "Apple Inc."},
	{"MSFT", "Microsoft Corporation"},
	{"NVDA", "NVIDIA Corporation"},
	{"GOOGL", "Alphabet Inc."},
	{"AMZN", "Amazon.com Inc."},
	{"TSLA", "Tesla Inc."},
	{"META", "Meta Platforms Inc."},
}

// Window covers after-hours plus the next morning session.
const earningsImpactWindow = 14 * time.Hour

// EarningsCalendar emits mega-cap earnings events, all tier 1.
type EarningsCalendar struct {
	clock Clock
}

// NewEarningsCalendar builds the earnings calendar source.
func NewEarningsCalendar(clock Clock) *EarningsCalendar {
	if clock == nil {
		clock = systemClock{}
	}
	return &EarningsCalendar{clock: clock}
}

// Name returns the source name.
func (s *EarningsCalendar) Name() string { return "earnings-calendar" }

// FetchEvents returns the upcoming mega-cap earnings schedule.
func (s *EarningsCalendar) FetchEvents(_ context.Context) ([]radar.Event, error) {
	scheduled := s.clock.Now().Add(24 * time.Hour)
	events := make([]radar.Event, 0, len(megaCapTickers))
	for _, ticker := range megaCapTickers {
		assets := []string{"SPY", "QQQ"}
		if ticker.symbol == "NVDA" || ticker.symbol == "TSLA" {
			assets = append(assets, "BTC")
		}
		events = append(events, radar.Event{
			ID:             newEventID("earn-" + strings.ToLower(ticker.symbol)),
			Title:          ticker.symbol + " Earnings - " + ticker.name,
			Category:       radar.CategoryEarnings,
			Tier:           radar.Tier1,
			ScheduledTime:  scheduled,
			ImpactWindow:   earningsImpactWindow,
			AffectedAssets: assets,
		})
	}
	return events, nil
}
