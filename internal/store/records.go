package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attune/internal/nudge"
)

// InsertDeliveryRecord persists a record at display time, awaiting its single
// response.
func (s *Store) InsertDeliveryRecord(ctx context.Context, record nudge.DeliveryRecord) error {
	response := record.Response
	if response == "" {
		response = nudge.ActionNone
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO delivery_records (notification_id, template_id, delivered_at, response, responded_at)
         VALUES (?, ?, ?, ?, ?)`,
		record.NotificationID,
		record.TemplateID,
		formatTime(record.DeliveredAt),
		string(response),
		nullableTime(record.RespondedAt),
	)
	if err != nil {
		return fmt.Errorf("insert delivery record: %w", err)
	}
	return nil
}

// RecordResponse applies a user response to a delivery record exactly once.
// The guard lives in the WHERE clause: only a record still awaiting its
// response is mutated, so a second response for the same id reports
// applied=false without touching the row.
func (s *Store) RecordResponse(ctx context.Context, notificationID int64, action nudge.Action, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE delivery_records SET response = ?, responded_at = ?
         WHERE notification_id = ? AND response = ?`,
		string(action),
		formatTime(at),
		notificationID,
		string(nudge.ActionNone),
	)
	if err != nil {
		return false, fmt.Errorf("record response: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeliveryRecord fetches a record by notification id, nil when absent.
func (s *Store) DeliveryRecord(ctx context.Context, notificationID int64) (*nudge.DeliveryRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT notification_id, template_id, delivered_at, response, responded_at
         FROM delivery_records WHERE notification_id = ?`,
		notificationID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery record: %w", err)
	}
	return &record, nil
}

// LastDeliveryAt returns the most recent delivery time, zero when none exist.
func (s *Store) LastDeliveryAt(ctx context.Context) (time.Time, error) {
	row := s.db.QueryRowContext(ctx, `SELECT delivered_at FROM delivery_records ORDER BY delivered_at DESC LIMIT 1`)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("last delivery: %w", err)
	}
	delivered, err := parseTimeString(raw)
	if err != nil {
		return time.Time{}, nil
	}
	return delivered, nil
}

// DeliveryRecords returns records delivered at or after the cutoff, newest
// first.
func (s *Store) DeliveryRecords(ctx context.Context, since time.Time) ([]nudge.DeliveryRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT notification_id, template_id, delivered_at, response, responded_at
         FROM delivery_records WHERE delivered_at >= ? ORDER BY delivered_at DESC`,
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("list delivery records: %w", err)
	}
	defer rows.Close()

	var records []nudge.DeliveryRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// PruneDeliveryRecords removes records older than the cutoff and reports how
// many were dropped. Run by the daily cleanup task.
func (s *Store) PruneDeliveryRecords(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM delivery_records WHERE delivered_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune delivery records: %w", err)
	}
	return res.RowsAffected()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (nudge.DeliveryRecord, error) {
	var (
		id           int64
		templateID   string
		deliveredRaw string
		response     string
		respondedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &templateID, &deliveredRaw, &response, &respondedRaw); err != nil {
		return nudge.DeliveryRecord{}, err
	}

	record := nudge.DeliveryRecord{
		NotificationID: id,
		TemplateID:     templateID,
		Response:       nudge.Action(response),
	}
	if delivered, err := parseTimeString(deliveredRaw); err == nil {
		record.DeliveredAt = delivered
	}
	if respondedRaw.Valid {
		if responded, err := parseTimeString(respondedRaw.String); err == nil {
			record.RespondedAt = &responded
		}
	}
	return record, nil
}
