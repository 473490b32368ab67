// Package audit persists one row per scheduling-cycle decision (commit or
// reject) to a local SQLite database, so a run can be replayed or
// inspected after the fact without re-deriving it from logs.
package audit

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Outcome names the two terminal request dispositions recorded per row.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Entry is one audit row: a single request's disposition in one cycle.
type Entry struct {
	RequestID string
	VehicleID string
	Outcome   Outcome
	CostDelta float64
	CycleTime float64
	IssuedAt  float64
}

// Log records Entries. NoopLog satisfies it when auditing is disabled.
type Log interface {
	Record(e Entry) error
	Close() error
}

// SQLiteLog writes Entries to a single "decisions" table.
type SQLiteLog struct {
	db        *sql.DB
	insertStm *sql.Stmt
}

// Open creates (or reuses) the SQLite database at path and prepares the
// insert statement used by every Record call.
func Open(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS decisions (
    request_id TEXT NOT NULL,
    vehicle_id TEXT,
    outcome    TEXT NOT NULL,
    cost_delta REAL NOT NULL,
    cycle_time REAL NOT NULL,
    issued_at  REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS decisions_request_id ON decisions (request_id);
`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating decisions table: %w", err)
	}

	stm, err := db.Prepare(`
INSERT INTO decisions (request_id, vehicle_id, outcome, cost_delta, cycle_time, issued_at)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing decision insert: %w", err)
	}

	return &SQLiteLog{db: db, insertStm: stm}, nil
}

// Record inserts one audit row.
func (l *SQLiteLog) Record(e Entry) error {
	_, err := l.insertStm.Exec(e.RequestID, e.VehicleID, string(e.Outcome), e.CostDelta, e.CycleTime, e.IssuedAt)
	if err != nil {
		return fmt.Errorf("recording decision for request %s: %w", e.RequestID, err)
	}
	return nil
}

// Close releases the prepared statement and the underlying connection.
func (l *SQLiteLog) Close() error {
	l.insertStm.Close()
	return l.db.Close()
}

// NoopLog discards every Entry; used when config.AuditConfig.SQLitePath
// is empty.
type NoopLog struct{}

func (NoopLog) Record(Entry) error { return nil }
func (NoopLog) Close() error       { return nil }
