// Package journal persists a record of every batch run in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spherical/ocr-batch/internal/domain"
)

// Result status values stored in the results table.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input_dir   TEXT NOT NULL,
	output_dir  TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	total       INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	language    TEXT NOT NULL,
	force_ocr   BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	input_path  TEXT NOT NULL,
	output_path TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Entry is one stored result row.
type Entry struct {
	Seq        int
	InputPath  string
	OutputPath string
	Status     string
	Kind       domain.ErrorType
	Message    string
}

// Store is a SQLite-backed run journal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path. Use ":memory:" for a
// throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, domain.IOError("create journal directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores run and its results in one transaction.
func (s *Store) RecordRun(ctx context.Context, run *domain.Run, results []domain.Result) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, input_dir, output_dir, started_at, finished_at, total, succeeded, failed, language, force_ocr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.InputDir, run.OutputDir, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Total, run.Succeeded, run.Failed, run.Language, run.ForceOCR,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, seq, input_path, output_path, status, kind, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		e := toEntry(i, r)
		if _, err := stmt.ExecContext(ctx, run.ID.String(), e.Seq, e.InputPath, e.OutputPath, e.Status, string(e.Kind), e.Message); err != nil {
			return fmt.Errorf("insert result %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `
		SELECT id, input_dir, output_dir, started_at, finished_at, total, succeeded, failed, language, force_ocr
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		var id string
		if err := rows.Scan(&id, &run.InputDir, &run.OutputDir, &run.StartedAt, &run.FinishedAt,
			&run.Total, &run.Succeeded, &run.Failed, &run.Language, &run.ForceOCR); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the stored results of one run in submission order.
func (s *Store) Results(ctx context.Context, runID uuid.UUID) ([]Entry, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, input_path, output_path, status, kind, message
		FROM results WHERE run_id = ? ORDER BY seq`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Seq, &e.InputPath, &e.OutputPath, &e.Status, &kind, &e.Message); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		e.Kind = domain.ErrorType(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func toEntry(seq int, r domain.Result) Entry {
	switch v := r.(type) {
	case domain.Success:
		return Entry{Seq: seq, InputPath: v.InputPath, OutputPath: v.OutputPath, Status: StatusSuccess}
	case domain.Failure:
		return Entry{Seq: seq, InputPath: v.InputPath, Status: StatusFailure, Kind: v.Kind, Message: v.Message}
	default:
		return Entry{Seq: seq, InputPath: r.Input(), Status: StatusFailure, Kind: domain.ErrorTypeUnexpected}
	}
}
