package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attune/internal/nudge"
)

const scheduledColumns = "notification_id, template_id, trigger_kind, scheduled_at, payload, created_at"

// InsertScheduledNudge persists a new in-flight scheduled notification.
// Identifier uniqueness is enforced by the primary key.
func (s *Store) InsertScheduledNudge(ctx context.Context, item nudge.ScheduledNudge) error {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO scheduled_nudges (`+scheduledColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		item.NotificationID,
		item.TemplateID,
		item.Trigger,
		formatTime(item.ScheduledAt),
		item.Payload,
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("insert scheduled nudge: %w", err)
	}
	return nil
}

// RemoveScheduledNudge deletes an entry once delivered, cancelled, or
// superseded.
func (s *Store) RemoveScheduledNudge(ctx context.Context, notificationID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_nudges WHERE notification_id = ?`, notificationID)
	if err != nil {
		return false, fmt.Errorf("delete scheduled nudge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ScheduledNudges returns all live scheduled entries ordered by delivery time.
func (s *Store) ScheduledNudges(ctx context.Context) ([]nudge.ScheduledNudge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scheduledColumns+` FROM scheduled_nudges ORDER BY scheduled_at`)
	if err != nil {
		return nil, fmt.Errorf("list scheduled nudges: %w", err)
	}
	defer rows.Close()

	var items []nudge.ScheduledNudge
	for rows.Next() {
		item, err := scanScheduled(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ScheduledNudgeByID fetches a single scheduled entry, nil when absent.
func (s *Store) ScheduledNudgeByID(ctx context.Context, notificationID int64) (*nudge.ScheduledNudge, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+scheduledColumns+` FROM scheduled_nudges WHERE notification_id = ?`,
		notificationID,
	)
	item, err := scanScheduled(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scheduled nudge: %w", err)
	}
	return &item, nil
}

// ScheduledIDs returns the live notification identifiers.
func (s *Store) ScheduledIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT notification_id FROM scheduled_nudges ORDER BY notification_id`)
	if err != nil {
		return nil, fmt.Errorf("list scheduled ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClearScheduledNudges removes every scheduled entry and reports how many.
func (s *Store) ClearScheduledNudges(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_nudges`)
	if err != nil {
		return 0, fmt.Errorf("clear scheduled nudges: %w", err)
	}
	return res.RowsAffected()
}

func scanScheduled(scanner interface{ Scan(dest ...any) error }) (nudge.ScheduledNudge, error) {
	var (
		id           int64
		templateID   string
		trigger      string
		scheduledRaw string
		payload      string
		createdRaw   string
	)
	if err := scanner.Scan(&id, &templateID, &trigger, &scheduledRaw, &payload, &createdRaw); err != nil {
		return nudge.ScheduledNudge{}, err
	}

	item := nudge.ScheduledNudge{
		NotificationID: id,
		TemplateID:     templateID,
		Trigger:        trigger,
		Payload:        payload,
	}
	if scheduled, err := parseTimeString(scheduledRaw); err == nil {
		item.ScheduledAt = scheduled
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	return item, nil
}
