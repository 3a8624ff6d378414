package store

import (
	"context"
	"fmt"

	"attune/internal/nudge"
)

// AddReservedRange persists an identifier band claimed by another producer.
// Re-registering an identical range is a no-op, making registration
// idempotent.
func (s *Store) AddReservedRange(ctx context.Context, r nudge.ReservedRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO reserved_ranges (start_id, end_id, owner) VALUES (?, ?, ?)`,
		r.Start,
		r.End,
		r.Owner,
	)
	if err != nil {
		return fmt.Errorf("add reserved range: %w", err)
	}
	return nil
}

// ReservedRanges returns all persisted reserved identifier bands.
func (s *Store) ReservedRanges(ctx context.Context) ([]nudge.ReservedRange, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT start_id, end_id, owner FROM reserved_ranges ORDER BY start_id`)
	if err != nil {
		return nil, fmt.Errorf("list reserved ranges: %w", err)
	}
	defer rows.Close()

	var ranges []nudge.ReservedRange
	for rows.Next() {
		var r nudge.ReservedRange
		if err := rows.Scan(&r.Start, &r.End, &r.Owner); err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, rows.Err()
}

// LastAllocatedID returns the high-water mark of the identifier allocator.
func (s *Store) LastAllocatedID(ctx context.Context) (int64, error) {
	return s.Counter(ctx, counterLastNotificationID)
}

// SetLastAllocatedID advances the identifier allocator high-water mark.
func (s *Store) SetLastAllocatedID(ctx context.Context, id int64) error {
	return s.SetCounter(ctx, counterLastNotificationID, id)
}
