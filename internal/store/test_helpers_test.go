package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/attsync/internal/record"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates an unsent record with the given dedup key.
func createTestRecord(uid, ts string) record.Record {
	status := int64(0)
	return record.Record{
		UID:        uid,
		EmployeeID: "E-" + uid,
		Status:     &status,
		Timestamp:  ts,
		RawPayload: `["` + uid + `","E-` + uid + `",0,"` + ts + `"]`,
	}
}
