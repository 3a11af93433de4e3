package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for attendance records.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// Open is idempotent and safe against stores created by a prior, narrower
// schema version: missing columns are added, nothing is dropped or altered
// in place. Overlapping invocations may open the same store concurrently;
// the uniqueness constraint on (uid, ts) is the dedup safety mechanism and
// the busy timeout absorbs writer contention.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// ensureSchema creates the table and indexes if absent, then adds any
// columns missing from stores created by earlier schema versions.
// Additive only; idempotent.
func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := addMissingColumns(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

// legacyColumns maps each column that later schema versions introduced to
// the ALTER statement that adds it. The earliest deployed schema carried
// only (id, uid, ts).
var legacyColumns = []struct {
	name string
	ddl  string
}{
	{"emp_id", "ALTER TABLE attendance_logs ADD COLUMN emp_id TEXT NOT NULL DEFAULT ''"},
	{"status", "ALTER TABLE attendance_logs ADD COLUMN status INTEGER"},
	{"server_id", "ALTER TABLE attendance_logs ADD COLUMN server_id TEXT"},
	{"raw_json", "ALTER TABLE attendance_logs ADD COLUMN raw_json TEXT NOT NULL DEFAULT ''"},
	{"created_at", "ALTER TABLE attendance_logs ADD COLUMN created_at TEXT NOT NULL DEFAULT ''"},
	{"updated_at", "ALTER TABLE attendance_logs ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''"},
	{"sent_at", "ALTER TABLE attendance_logs ADD COLUMN sent_at TEXT"},
}

// addMissingColumns upgrades a narrower legacy table in place.
func addMissingColumns(db *sql.DB) error {
	existing, err := tableColumns(db, "attendance_logs")
	if err != nil {
		return err
	}

	for _, col := range legacyColumns {
		if existing[col.name] {
			continue
		}
		if _, err := db.Exec(col.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}

	return nil
}

// tableColumns returns the lowercase column names of a table.
func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table_info: %w", err)
	}

	return cols, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
