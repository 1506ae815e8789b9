package sources

import (
	"context"
	"time"

	radar "risk-radar/internal/radar/domain"
)

var fedSpeakers = []economicEntry{
	{"Fed Chair Powell", 2},
	{"Fed Vice Chair", 1.5},
	{"NY Fed President", 1.5},
	{"Fed Governor Waller", 1},
	{"Fed Governor Bowman", 1},
	{"Fed Governor Cook", 1},
	{"Fed Governor Kugler", 1},
	{"Fed Governor Jefferson", 1},
	{"Regional Fed President", 1},
}

// FedCalendar emits Federal Reserve speaker appearances, all tier 2.
type FedCalendar struct {
	clock Clock
}

// NewFedCalendar builds the Fed speaker calendar source.
func NewFedCalendar(clock Clock) *FedCalendar {
	if clock == nil {
		clock = systemClock{}
	}
	return &FedCalendar{clock: clock}
}

// Name returns the source name.
func (s *FedCalendar) Name() string { return "fed-calendar" }

// FetchEvents returns the upcoming Fed speaker schedule.
func (s *FedCalendar) FetchEvents(_ context.Context) ([]radar.Event, error) {
	scheduled := s.clock.Now().Add(24 * time.Hour)
	events := make([]radar.Event, 0, len(fedSpeakers))
	for _, speaker := range fedSpeakers {
		events = append(events, radar.Event{
			ID:             newEventID("fed"),
			Title:          speaker.name + " Speech",
			Category:       radar.CategoryFedSpeaker,
			Tier:           radar.Tier2,
			ScheduledTime:  scheduled,
			ImpactWindow:   time.Duration(speaker.impactHours * float64(time.Hour)),
			AffectedAssets: append([]string(nil), macroAssets...),
		})
	}
	return events, nil
}
