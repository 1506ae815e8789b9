package application

import (
	"context"

	radar "risk-radar/internal/radar/domain"
)

// State is the alert manager's cross-call memory: the previous per-asset
// risk snapshot, the event ids already observed, and the cluster identities
// already alerted on. It is explicit and resettable so callers and tests can
// inspect or replace it between scenarios.
type State struct {
	PreviousRisks   map[string]radar.AssetRisk `json:"previous_risks"`
	SeenEvents      map[string]bool            `json:"seen_events"`
	AlertedClusters map[string]bool            `json:"alerted_clusters"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		PreviousRisks:   make(map[string]radar.AssetRisk),
		SeenEvents:      make(map[string]bool),
		AlertedClusters: make(map[string]bool),
	}
}

// Reset clears all retained memory.
func (s *State) Reset() {
	s.PreviousRisks = make(map[string]radar.AssetRisk)
	s.SeenEvents = make(map[string]bool)
	s.AlertedClusters = make(map[string]bool)
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := NewState()
	for asset, risk := range s.PreviousRisks {
		out.PreviousRisks[asset] = risk
	}
	for id := range s.SeenEvents {
		out.SeenEvents[id] = true
	}
	for key := range s.AlertedClusters {
		out.AlertedClusters[key] = true
	}
	return out
}

// StateStore persists alert-manager state between process runs. A manager
// without a store simply loses its de-duplication memory on restart.
type StateStore interface {
	LoadState(ctx context.Context) (*State, error)
	SaveState(ctx context.Context, state *State) error
}

// AlertLog records emitted alerts for later inspection.
type AlertLog interface {
	Append(ctx context.Context, alert radar.Alert) error
	ListRecent(ctx context.Context, limit int) ([]radar.Alert, error)
}
