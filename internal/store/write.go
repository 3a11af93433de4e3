package store

import (
	"context"
	"fmt"

	"github.com/roach88/attsync/internal/record"
)

const insertSQL = `
	INSERT INTO attendance_logs (uid, emp_id, status, ts, server_id, raw_json)
	VALUES (?, ?, ?, ?, NULL, ?)
	ON CONFLICT(uid, ts) DO NOTHING
`

// InsertIfAbsent attempts to add a new unsent record.
// Returns false (no error) when the uniqueness constraint on (uid, ts)
// rejects it - duplicates are a normal, expected outcome, not a failure.
// Other constraint violations (e.g., empty uid) still return errors.
func (s *Store) InsertIfAbsent(ctx context.Context, rec record.Record) (bool, error) {
	result, err := s.db.ExecContext(ctx, insertSQL,
		rec.UID, rec.EmployeeID, rec.Status, rec.Timestamp, rec.RawPayload,
	)
	if err != nil {
		return false, fmt.Errorf("insert record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert record: rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// InsertBatch inserts a batch of records inside one transaction and returns
// the number actually stored; duplicates rejected by the (uid, ts)
// constraint are excluded from the count but do not abort the batch.
//
// CRASH SAFETY: the whole batch commits or none of it does. A storage
// fault mid-batch rolls everything back, so a rerun after a crash repeats
// the same per-row dedup decisions against an unchanged store.
func (s *Store) InsertBatch(ctx context.Context, recs []record.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	inserted := 0
	for _, rec := range recs {
		result, err := tx.ExecContext(ctx, insertSQL,
			rec.UID, rec.EmployeeID, rec.Status, rec.Timestamp, rec.RawPayload,
		)
		if err != nil {
			return 0, fmt.Errorf("insert batch: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert batch: rows affected: %w", err)
		}
		if rowsAffected > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert batch: commit: %w", err)
	}

	return inserted, nil
}

// MarkDelivered records the remote acknowledgement for a record: sets
// server_id and sent_at, bumps updated_at. The caller must already have
// confirmed the remote operation succeeded; no validation of serverID is
// performed here.
//
// The update is guarded by server_id IS NULL so the unsent-to-sent
// transition happens exactly once - repeating the call for an already
// acknowledged record is a no-op, which makes crash-replayed delivery
// passes safe.
func (s *Store) MarkDelivered(ctx context.Context, id int64, serverID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE attendance_logs
		SET server_id = ?, sent_at = datetime('now'), updated_at = datetime('now')
		WHERE id = ? AND server_id IS NULL
	`, serverID, id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}
