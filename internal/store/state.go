package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attune/internal/nudge"
)

// Well-known flag names persisted for the UI layer.
const (
	FlagShowPermissionExplanation = "showPermissionExplanation"
	FlagShowPermissionSettings    = "showPermissionSettings"
)

// Well-known analytics counter names.
const (
	CounterDelivered = "nudgeAnalytics_delivered"
	CounterViewed    = "nudgeAnalytics_viewed"
	CounterReplayed  = "nudgeAnalytics_replayed"
	CounterSaved     = "nudgeAnalytics_saved"
	CounterDismissed = "nudgeAnalytics_dismissed"

	counterLastNotificationID = "lastNotificationId"
)

// SaveServiceState persists the snapshot, stamping SavedAt with now so the
// snapshot always reflects the most recent mutation.
func (s *Store) SaveServiceState(ctx context.Context, state nudge.ServiceState) error {
	state.SavedAt = time.Now().UTC()
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal service state: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO service_state (id, state_json, saved_at) VALUES (1, ?, ?)
         ON CONFLICT (id) DO UPDATE SET state_json = excluded.state_json, saved_at = excluded.saved_at`,
		string(payload),
		formatTime(state.SavedAt),
	)
	if err != nil {
		return fmt.Errorf("save service state: %w", err)
	}
	return nil
}

// LoadServiceState reads the persisted snapshot. A missing row or malformed
// JSON reports ok=false: corrupt state is treated as absent state, never as a
// fatal error.
func (s *Store) LoadServiceState(ctx context.Context) (nudge.ServiceState, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT state_json, saved_at FROM service_state WHERE id = 1`)
	var payload, savedRaw string
	if err := row.Scan(&payload, &savedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nudge.ServiceState{}, false, nil
		}
		return nudge.ServiceState{}, false, fmt.Errorf("load service state: %w", err)
	}

	var state nudge.ServiceState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nudge.ServiceState{}, false, nil
	}
	if state.SavedAt.IsZero() {
		if saved, err := parseTimeString(savedRaw); err == nil {
			state.SavedAt = saved
		}
	}
	return state, true, nil
}

// SetFlag persists a boolean flag for the UI layer.
func (s *Store) SetFlag(ctx context.Context, name string, value bool) error {
	stored := 0
	if value {
		stored = 1
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO flags (name, value) VALUES (?, ?)
         ON CONFLICT (name) DO UPDATE SET value = excluded.value`,
		name,
		stored,
	)
	if err != nil {
		return fmt.Errorf("set flag %s: %w", name, err)
	}
	return nil
}

// Flag reads a boolean flag; a missing flag reads false.
func (s *Store) Flag(ctx context.Context, name string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM flags WHERE name = ?`, name)
	var value int
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read flag %s: %w", name, err)
	}
	return value != 0, nil
}

// IncrementCounter advances a named counter by one and returns the new value.
func (s *Store) IncrementCounter(ctx context.Context, name string) (int64, error) {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO counters (name, value) VALUES (?, 1)
         ON CONFLICT (name) DO UPDATE SET value = value + 1`,
		name,
	)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return s.Counter(ctx, name)
}

// SetCounter stores an absolute counter value.
func (s *Store) SetCounter(ctx context.Context, name string, value int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO counters (name, value) VALUES (?, ?)
         ON CONFLICT (name) DO UPDATE SET value = excluded.value`,
		name,
		value,
	)
	if err != nil {
		return fmt.Errorf("set counter %s: %w", name, err)
	}
	return nil
}

// Counter reads a named counter; a missing counter reads zero.
func (s *Store) Counter(ctx context.Context, name string) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, name)
	var value int64
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}
	return value, nil
}

// AnalyticsCounters returns all persisted analytics counters.
func (s *Store) AnalyticsCounters(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT name, value FROM counters WHERE name IN (?, ?, ?, ?, ?)`,
		CounterDelivered, CounterViewed, CounterReplayed, CounterSaved, CounterDismissed,
	)
	if err != nil {
		return nil, fmt.Errorf("read analytics counters: %w", err)
	}
	defer rows.Close()

	counters := make(map[string]int64)
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		counters[name] = value
	}
	return counters, rows.Err()
}
