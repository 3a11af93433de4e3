package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/attsync/internal/record"
)

const selectColumns = `
	id, uid, emp_id, status, ts, server_id, raw_json, created_at, updated_at, sent_at
`

// ListUnsent returns up to limit records not yet acknowledged by the remote
// service, oldest event first. The ordering defines delivery order and the
// limit bounds the amount of work per run.
//
// Returns an empty slice (not nil) when nothing is pending.
func (s *Store) ListUnsent(ctx context.Context, limit int) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM attendance_logs
		WHERE server_id IS NULL
		ORDER BY ts ASC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsent: %w", err)
	}
	defer rows.Close()

	var recs []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unsent: %w", err)
	}

	if recs == nil {
		recs = []record.Record{}
	}

	return recs, nil
}

// Get retrieves a single record by surrogate id.
// Returns sql.ErrNoRows if not found.
func (s *Store) Get(ctx context.Context, id int64) (record.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM attendance_logs
		WHERE id = ?
	`, id)

	return scanRecordRow(row)
}

// Count returns the total number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance_logs",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// CountUnsent returns the number of records still awaiting remote
// acknowledgement.
func (s *Store) CountUnsent(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance_logs WHERE server_id IS NULL",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unsent: %w", err)
	}
	return count, nil
}

// scanRecord scans a result row into a Record.
func scanRecord(rows *sql.Rows) (record.Record, error) {
	var (
		rec      record.Record
		status   sql.NullInt64
		serverID sql.NullString
		sentAt   sql.NullString
	)

	if err := rows.Scan(
		&rec.ID, &rec.UID, &rec.EmployeeID, &status, &rec.Timestamp,
		&serverID, &rec.RawPayload, &rec.CreatedAt, &rec.UpdatedAt, &sentAt,
	); err != nil {
		return record.Record{}, fmt.Errorf("scan record: %w", err)
	}

	applyNullable(&rec, status, serverID, sentAt)
	return rec, nil
}

// scanRecordRow scans a single row into a Record.
func scanRecordRow(row *sql.Row) (record.Record, error) {
	var (
		rec      record.Record
		status   sql.NullInt64
		serverID sql.NullString
		sentAt   sql.NullString
	)

	if err := row.Scan(
		&rec.ID, &rec.UID, &rec.EmployeeID, &status, &rec.Timestamp,
		&serverID, &rec.RawPayload, &rec.CreatedAt, &rec.UpdatedAt, &sentAt,
	); err != nil {
		return record.Record{}, err
	}

	applyNullable(&rec, status, serverID, sentAt)
	return rec, nil
}

func applyNullable(rec *record.Record, status sql.NullInt64, serverID, sentAt sql.NullString) {
	if status.Valid {
		v := status.Int64
		rec.Status = &v
	}
	if serverID.Valid {
		v := serverID.String
		rec.ServerID = &v
	}
	if sentAt.Valid {
		v := sentAt.String
		rec.SentAt = &v
	}
}
