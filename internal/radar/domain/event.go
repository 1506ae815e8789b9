package radar

import (
	"errors"
	"time"
)

// Category classifies the kind of market event.
type Category string

const (
	CategoryEconomic     Category = "economic"
	CategoryFedSpeaker   Category = "fed_speaker"
	CategoryEarnings     Category = "earnings"
	CategoryGeopolitical Category = "geopolitical"
	CategoryCrypto       Category = "crypto"
	CategoryRegulatory   Category = "regulatory"
)

// Valid returns true when the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryEconomic, CategoryFedSpeaker, CategoryEarnings,
		CategoryGeopolitical, CategoryCrypto, CategoryRegulatory:
		return true
	default:
		return false
	}
}

// Categories lists every known category.
func Categories() []Category {
	return []Category{
		CategoryEconomic,
		CategoryFedSpeaker,
		CategoryEarnings,
		CategoryGeopolitical,
		CategoryCrypto,
		CategoryRegulatory,
	}
}

// Tier is the inherent-importance classification of an event, 1 = highest.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
	Tier4 Tier = 4
)

// Valid returns true when the tier is within 1..4.
func (t Tier) Valid() bool {
	return t >= Tier1 && t <= Tier4
}

// Event is a scheduled or emerging market event. Events are immutable once
// produced by a source; the snapshot is replaced wholesale on refresh.
type Event struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Category       Category      `json:"category"`
	Tier           Tier          `json:"tier"`
	ScheduledTime  time.Time     `json:"scheduled_time"`
	ImpactWindow   time.Duration `json:"impact_window"`
	AffectedAssets []string      `json:"affected_assets"`
}

// Validate checks event invariants.
func (e Event) Validate() error {
	if e.ID == "" {
		return errors.New("event: empty id")
	}
	if e.Title == "" {
		return errors.New("event: empty title")
	}
	if !e.Category.Valid() {
		return errors.New("event: invalid category")
	}
	if !e.Tier.Valid() {
		return errors.New("event: invalid tier")
	}
	if e.ScheduledTime.IsZero() {
		return errors.New("event: zero scheduled time")
	}
	if e.ImpactWindow < 0 {
		return errors.New("event: negative impact window")
	}
	return nil
}

// Affects returns true when the event lists the asset.
func (e Event) Affects(asset string) bool {
	for _, a := range e.AffectedAssets {
		if a == asset {
			return true
		}
	}
	return false
}
