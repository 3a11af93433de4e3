package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='attendance_logs'",
	).Scan(&name)
	if err != nil {
		t.Errorf("attendance_logs not found after idempotent opens: %v", err)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestOpen_MigratesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// Simulate a store created by the earliest schema version.
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	stmts := []string{
		"DROP TABLE attendance_logs",
		"CREATE TABLE attendance_logs (id INTEGER PRIMARY KEY AUTOINCREMENT, uid TEXT NOT NULL, ts TEXT NOT NULL, UNIQUE(uid, ts))",
		"INSERT INTO attendance_logs (uid, ts) VALUES ('U1', '2024-01-01 08:00:00')",
	}
	for _, stmt := range stmts {
		if _, err := s1.db.Exec(stmt); err != nil {
			t.Fatalf("legacy setup %q failed: %v", stmt, err)
		}
	}
	s1.Close()

	// Reopening must widen the table without touching existing rows.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen of legacy store failed: %v", err)
	}
	defer s2.Close()

	cols, err := tableColumns(s2.db, "attendance_logs")
	if err != nil {
		t.Fatalf("tableColumns failed: %v", err)
	}
	for _, want := range []string{"emp_id", "status", "server_id", "raw_json", "created_at", "updated_at", "sent_at"} {
		if !cols[want] {
			t.Errorf("column %q missing after migration", want)
		}
	}

	rec, err := s2.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() after migration failed: %v", err)
	}
	if rec.UID != "U1" {
		t.Errorf("legacy row lost: got uid %q", rec.UID)
	}
	if rec.Sent() {
		t.Error("legacy row should be unsent after migration")
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}
