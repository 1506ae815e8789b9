package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"risk-radar/internal/alerts/application"
	radar "risk-radar/internal/radar/domain"
)

// Store is a Postgres-backed alert log and alert-manager state store. The
// persisted state restores de-duplication memory across restarts.
type Store struct {
	db *sql.DB
}

// NewStore constructs a store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the alert tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("alert store: nil db")
	}
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS alerts (
	id BIGSERIAL PRIMARY KEY,
	alert_type TEXT NOT NULL,
	severity INT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS alert_manager_state (
	id INT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`)
	return err
}

// Append inserts an alert record.
func (s *Store) Append(ctx context.Context, alert radar.Alert) error {
	if s == nil || s.db == nil {
		return errors.New("alert store: nil db")
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO alerts (alert_type, severity, payload, created_at)
VALUES ($1, $2, $3, $4)`,
		string(alert.Type), alert.Severity, payload, alert.Timestamp.UTC())
	return err
}

// ListRecent returns up to limit alerts, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]radar.Alert, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("alert store: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT payload FROM alerts ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []radar.Alert
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var alert radar.Alert
		if err := json.Unmarshal(payload, &alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// LoadState loads the persisted manager state, or nil when none exists.
func (s *Store) LoadState(ctx context.Context) (*application.State, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("alert store: nil db")
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
SELECT payload FROM alert_manager_state WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	state := application.NewState()
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SaveState upserts the manager state.
func (s *Store) SaveState(ctx context.Context, state *application.State) error {
	if s == nil || s.db == nil {
		return errors.New("alert store: nil db")
	}
	if state == nil {
		return errors.New("alert store: nil state")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO alert_manager_state (id, payload, updated_at)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		payload, time.Now().UTC())
	return err
}
