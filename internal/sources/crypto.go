package sources

import (
	"context"
	"time"

	radar "risk-radar/internal/radar/domain"
)

type cryptoEntry struct {
	name        string
	impactHours float64
	category    radar.Category
}

var cryptoCatalog = []cryptoEntry{
	{"Bitcoin Halving", 48, radar.CategoryCrypto},
	{"Ethereum Protocol Upgrade", 24, radar.CategoryCrypto},
	{"Major Token Unlock", 12, radar.CategoryCrypto},
	{"Exchange Maintenance", 6, radar.CategoryCrypto},
	{"Stablecoin Audit Report", 8, radar.CategoryCrypto},
}

var regulatoryCatalog = []cryptoEntry{
	{"SEC ETF Decision Deadline", 24, radar.CategoryRegulatory},
	{"SEC Enforcement Action", 12, radar.CategoryRegulatory},
	{"CFTC Regulatory Announcement", 8, radar.CategoryRegulatory},
	{"Congressional Crypto Hearing", 4, radar.CategoryRegulatory},
}

var (
	cryptoAssets     = []string{"BTC", "ETH"}
	regulatoryAssets = []string{"BTC", "ETH", "SPY", "QQQ"}
)

// CryptoEvents emits crypto protocol and regulatory events, all tier 4.
type CryptoEvents struct {
	clock Clock
}

// NewCryptoEvents builds the crypto event source.
func NewCryptoEvents(clock Clock) *CryptoEvents {
	if clock == nil {
		clock = systemClock{}
	}
	return &CryptoEvents{clock: clock}
}

// Name returns the source name.
func (s *CryptoEvents) Name() string { return "crypto-events" }

// FetchEvents returns upcoming crypto and regulatory events.
func (s *CryptoEvents) FetchEvents(_ context.Context) ([]radar.Event, error) {
	scheduled := s.clock.Now().Add(24 * time.Hour)
	events := make([]radar.Event, 0, len(cryptoCatalog)+len(regulatoryCatalog))
	for _, entry := range cryptoCatalog {
		events = append(events, radar.Event{
			ID:             newEventID("crypto"),
			Title:          entry.name,
			Category:       entry.category,
			Tier:           radar.Tier4,
			ScheduledTime:  scheduled,
			ImpactWindow:   time.Duration(entry.impactHours * float64(time.Hour)),
			AffectedAssets: append([]string(nil), cryptoAssets...),
		})
	}
	for _, entry := range regulatoryCatalog {
		events = append(events, radar.Event{
			ID:             newEventID("reg"),
			Title:          entry.name,
			Category:       entry.category,
			Tier:           radar.Tier4,
			ScheduledTime:  scheduled,
			ImpactWindow:   time.Duration(entry.impactHours * float64(time.Hour)),
			AffectedAssets: append([]string(nil), regulatoryAssets...),
		})
	}
	return events, nil
}
