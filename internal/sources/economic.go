package sources

import (
	"context"
	"time"

	radar "risk-radar/internal/radar/domain"
)

type economicEntry struct {
	name        string
	impactHours float64
}

var economicCatalog = []economicEntry{
	{"FOMC Rate Decision", 4},
	{"CPI Release", 3},
	{"Non-Farm Payrolls", 3},
	{"GDP Release", 2},
	{"FOMC Minutes", 2},
	{"PCE Inflation", 2},
	{"Retail Sales", 1},
	{"Jobless Claims", 1},
}

var macroAssets = []string{"SPY", "QQQ", "BTC", "GOLD"}

// EconomicCalendar emits major scheduled macro releases, all tier 1.
type EconomicCalendar struct {
	clock Clock
}

// NewEconomicCalendar builds the economic calendar source.
func NewEconomicCalendar(clock Clock) *EconomicCalendar {
	if clock == nil {
		clock = systemClock{}
	}
	return &EconomicCalendar{clock: clock}
}

// Name returns the source name.
func (s *EconomicCalendar) Name() string { return "economic-calendar" }

// FetchEvents returns the upcoming economic releases.
func (s *EconomicCalendar) FetchEvents(_ context.Context) ([]radar.Event, error) {
	scheduled := s.clock.Now().Add(24 * time.Hour)
	events := make([]radar.Event, 0, len(economicCatalog))
	for _, entry := range economicCatalog {
		events = append(events, radar.Event{
			ID:             newEventID("econ"),
			Title:          entry.name,
			Category:       radar.CategoryEconomic,
			Tier:           radar.Tier1,
			ScheduledTime:  scheduled,
			ImpactWindow:   time.Duration(entry.impactHours * float64(time.Hour)),
			AffectedAssets: append([]string(nil), macroAssets...),
		})
	}
	return events, nil
}
