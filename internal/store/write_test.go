package store

import (
	"context"
	"testing"

	"github.com/roach88/attsync/internal/record"
)

func TestInsertIfAbsent_NewRecord(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inserted, err := s.InsertIfAbsent(ctx, createTestRecord("U1", "2024-01-01 08:00:00"))
	if err != nil {
		t.Fatalf("InsertIfAbsent() failed: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true for new record")
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestInsertIfAbsent_Duplicate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := createTestRecord("U1", "2024-01-01 08:00:00")

	if _, err := s.InsertIfAbsent(ctx, rec); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	inserted, err := s.InsertIfAbsent(ctx, rec)
	if err != nil {
		t.Fatalf("duplicate insert should not error: %v", err)
	}
	if inserted {
		t.Error("expected inserted=false for duplicate dedup key")
	}

	count, _ := s.Count(ctx)
	if count != 1 {
		t.Errorf("Count() = %d after duplicate insert, want 1", count)
	}
}

func TestInsertIfAbsent_SameUserDifferentTime(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.InsertIfAbsent(ctx, createTestRecord("U1", "2024-01-01 08:00:00"))
	inserted, err := s.InsertIfAbsent(ctx, createTestRecord("U1", "2024-01-01 17:00:00"))
	if err != nil {
		t.Fatalf("InsertIfAbsent() failed: %v", err)
	}
	if !inserted {
		t.Error("distinct timestamp must not collide on the dedup key")
	}
}

func TestInsertBatch_CountsOnlyNewRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	batch := []record.Record{
		createTestRecord("U1", "2024-01-01 08:00:00"),
		createTestRecord("U1", "2024-01-01 08:00:00"), // duplicate within batch
		createTestRecord("U2", "2024-01-01 08:05:00"),
	}

	inserted, err := s.InsertBatch(ctx, batch)
	if err != nil {
		t.Fatalf("InsertBatch() failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}

	// Re-ingesting the same batch changes nothing.
	inserted, err = s.InsertBatch(ctx, batch)
	if err != nil {
		t.Fatalf("second InsertBatch() failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("second run inserted = %d, want 0", inserted)
	}

	count, _ := s.Count(ctx)
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestInsertBatch_AtomicRollbackOnFault(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// The empty uid violates the table's CHECK constraint mid-batch; the
	// rows inserted before it must be rolled back with it.
	batch := []record.Record{
		createTestRecord("U1", "2024-01-01 08:00:00"),
		createTestRecord("U2", "2024-01-01 08:05:00"),
		{UID: "", Timestamp: "2024-01-01 08:10:00"},
		createTestRecord("U3", "2024-01-01 08:15:00"),
	}

	_, err := s.InsertBatch(ctx, batch)
	if err == nil {
		t.Fatal("expected a storage fault for the malformed row")
	}

	count, cerr := s.Count(ctx)
	if cerr != nil {
		t.Fatalf("Count() failed: %v", cerr)
	}
	if count != 0 {
		t.Errorf("Count() = %d after failed batch, want 0 (all-or-nothing)", count)
	}
}

func TestInsertBatch_Empty(t *testing.T) {
	s := createTestStore(t)

	inserted, err := s.InsertBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("InsertBatch(nil) failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
}

func TestMarkDelivered_SetsServerID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.InsertIfAbsent(ctx, createTestRecord("U1", "2024-01-01 08:00:00"))

	if err := s.MarkDelivered(ctx, 1, "S100"); err != nil {
		t.Fatalf("MarkDelivered() failed: %v", err)
	}

	rec, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if rec.ServerID == nil || *rec.ServerID != "S100" {
		t.Errorf("ServerID = %v, want S100", rec.ServerID)
	}
	if rec.SentAt == nil {
		t.Error("SentAt should be set after delivery")
	}
}

func TestMarkDelivered_TransitionsExactlyOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.InsertIfAbsent(ctx, createTestRecord("U1", "2024-01-01 08:00:00"))

	if err := s.MarkDelivered(ctx, 1, "S100"); err != nil {
		t.Fatalf("MarkDelivered() failed: %v", err)
	}
	// A replayed delivery pass must not overwrite the first acknowledgement.
	if err := s.MarkDelivered(ctx, 1, "S999"); err != nil {
		t.Fatalf("repeated MarkDelivered() should not error: %v", err)
	}

	rec, _ := s.Get(ctx, 1)
	if rec.ServerID == nil || *rec.ServerID != "S100" {
		t.Errorf("ServerID = %v, want original S100", rec.ServerID)
	}
}
