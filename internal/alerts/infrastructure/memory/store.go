package memory

import (
	"context"
	"sync"

	"risk-radar/internal/alerts/application"
	radar "risk-radar/internal/radar/domain"
)

// Store is an in-memory alert log and state store. Used when no database is
// configured; de-duplication memory does not survive a restart.
type Store struct {
	mu     sync.RWMutex
	alerts []radar.Alert
	state  *application.State
	limit  int
}

// NewStore constructs a store retaining at most limit alerts.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{limit: limit}
}

// Append records an alert, evicting the oldest past the retention limit.
func (s *Store) Append(ctx context.Context, alert radar.Alert) error {
	_ = ctx
	s.mu.Lock()
	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > s.limit {
		s.alerts = s.alerts[len(s.alerts)-s.limit:]
	}
	s.mu.Unlock()
	return nil
}

// ListRecent returns up to limit alerts, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]radar.Alert, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.alerts) {
		limit = len(s.alerts)
	}
	out := make([]radar.Alert, 0, limit)
	for i := len(s.alerts) - 1; i >= len(s.alerts)-limit; i-- {
		out = append(out, s.alerts[i])
	}
	return out, nil
}

// LoadState returns the stored state, or nil when none was saved.
func (s *Store) LoadState(ctx context.Context) (*application.State, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

// SaveState stores a copy of the state.
func (s *Store) SaveState(ctx context.Context, state *application.State) error {
	_ = ctx
	if state == nil {
		return nil
	}
	s.mu.Lock()
	s.state = state.Clone()
	s.mu.Unlock()
	return nil
}
