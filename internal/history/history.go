// Package history records `vbind check` runs in a local SQLite database
// under .vbind/, so watch mode and repeated runs can be reviewed with
// `vbind history`. The runtime core keeps no persisted state; only the
// CLI writes here.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is an open history database.
type Store struct {
	db *sql.DB
}

// Run is one recorded check run.
type Run struct {
	ID       string
	Started  time.Time
	Dir      string
	Checked  int
	Failed   int
	Findings []Finding
}

// Finding is one recorded diagnostic of a run.
type Finding struct {
	Shape  string
	Impl   string
	Code   string
	Detail string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	dir        TEXT NOT NULL,
	checked    INTEGER NOT NULL,
	failed     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS findings (
	run_id TEXT NOT NULL REFERENCES runs(id),
	shape  TEXT NOT NULL,
	impl   TEXT NOT NULL,
	code   TEXT NOT NULL,
	detail TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS findings_run ON findings(run_id);
`

// Open opens (creating if needed) the history database under dir/.vbind.
func Open(dir string) (*Store, error) {
	cacheDir := filepath.Join(dir, ".vbind")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", cacheDir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(cacheDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record persists one run and returns its generated id.
func (s *Store) Record(run Run) (string, error) {
	id := uuid.NewString()
	started := run.Started
	if started.IsZero() {
		started = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, dir, checked, failed) VALUES (?, ?, ?, ?, ?)`,
		id, started.Unix(), run.Dir, run.Checked, run.Failed,
	)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	for _, f := range run.Findings {
		_, err = tx.Exec(
			`INSERT INTO findings (run_id, shape, impl, code, detail) VALUES (?, ?, ?, ?, ?)`,
			id, f.Shape, f.Impl, f.Code, f.Detail,
		)
		if err != nil {
			return "", fmt.Errorf("recording finding: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// Recent returns up to n runs, newest first, with their findings attached.
func (s *Store) Recent(n int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, dir, checked, failed FROM runs ORDER BY started_at DESC, id LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &started, &r.Dir, &r.Checked, &r.Failed); err != nil {
			return nil, err
		}
		r.Started = time.Unix(started, 0)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		findings, err := s.findingsFor(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Findings = findings
	}
	return runs, nil
}

func (s *Store) findingsFor(runID string) ([]Finding, error) {
	rows, err := s.db.Query(
		`SELECT shape, impl, code, detail FROM findings WHERE run_id = ?`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.Shape, &f.Impl, &f.Code, &f.Detail); err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
