// Package history persists a compact record of past prerender runs in a
// local SQLite database so operators can inspect trends without keeping
// every report file around.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/litho/internal/prerender"
)

// Entry is one recorded run.
type Entry struct {
	ID           int64
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      string
	Pages        int
	Contexts     int
	Rendered     int
	Excluded     int
	FilesWritten int
	Warnings     int
	Errors       int
	Partial      bool
	Fingerprint  string
	LithoVersion string
}

// Duration returns the wall-clock time of the recorded run.
func (e Entry) Duration() time.Duration { return e.FinishedAt.Sub(e.StartedAt) }

// Store records run reports in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and if necessary creates) a history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		contexts INTEGER NOT NULL,
		rendered INTEGER NOT NULL,
		excluded INTEGER NOT NULL,
		files_written INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		partial INTEGER NOT NULL,
		fingerprint TEXT,
		litho_version TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one finished run into the history.
func (s *Store) Record(ctx context.Context, report *prerender.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partial := 0
	if report.Partial {
		partial = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs
		(run_id, started_at, finished_at, outcome, pages, contexts, rendered, excluded, files_written, warnings, errors, partial, fingerprint, litho_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Start.Unix(), report.End.Unix(), string(report.Outcome),
		report.Pages, report.Contexts, report.Rendered, report.Excluded, report.FilesWritten,
		len(report.Warnings), len(report.Errors), partial,
		report.SourceFingerprint, report.LithoVersion,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, started_at, finished_at, outcome, pages, contexts, rendered, excluded, files_written, warnings, errors, partial, fingerprint, litho_version
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

// ByRunID returns the recorded entries for one run id, oldest first.
func (s *Store) ByRunID(ctx context.Context, runID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, started_at, finished_at, outcome, pages, contexts, rendered, excluded, files_written, warnings, errors, partial, fingerprint, litho_version
		FROM runs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

func (s *Store) scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedUnix, finishedUnix int64
		var partial int
		var fingerprint, lithoVersion sql.NullString

		err := rows.Scan(&e.ID, &e.RunID, &startedUnix, &finishedUnix, &e.Outcome,
			&e.Pages, &e.Contexts, &e.Rendered, &e.Excluded, &e.FilesWritten,
			&e.Warnings, &e.Errors, &partial, &fingerprint, &lithoVersion)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		e.StartedAt = time.Unix(startedUnix, 0)
		e.FinishedAt = time.Unix(finishedUnix, 0)
		e.Partial = partial != 0
		e.Fingerprint = fingerprint.String
		e.LithoVersion = lithoVersion.String

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
