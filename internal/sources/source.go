// Package sources provides event feeds for the risk radar. Scheduled
// calendars are catalog-backed, while the news monitor discovers emerging
// events from headline feeds.
package sources

import (
	"context"
	"time"

	"github.com/google/uuid"

	radar "risk-radar/internal/radar/domain"
)

// Source is a feed of market events.
type Source interface {
	FetchEvents(ctx context.Context) ([]radar.Event, error)
	Name() string
}

// Clock abstracts scheduling time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func newEventID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
