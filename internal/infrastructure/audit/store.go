// Package audit keeps a local SQLite trace of maintenance runs and the
// records they removed, so a bulk archive is never a blind operation.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id           TEXT PRIMARY KEY,
    operation        TEXT NOT NULL,
    state            TEXT NOT NULL,
    processed        INTEGER NOT NULL,
    duplicates_found INTEGER NOT NULL,
    removed          INTEGER NOT NULL,
    errors           INTEGER NOT NULL,
    started_at       TIMESTAMP NOT NULL,
    finished_at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS removals (
    run_id     TEXT NOT NULL,
    record_id  TEXT NOT NULL,
    dedup_key  TEXT NOT NULL,
    reason     TEXT NOT NULL,
    removed_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS removals_run_idx ON removals (run_id);
`

// Store persists audit rows into a local SQLite database.
type Store struct {
	db *sql.DB
}

var _ ports.AuditLog = (*Store)(nil)

// Open creates (or opens) the audit database and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordRun upserts the summary row for one run.
func (s *Store) RecordRun(ctx context.Context, run domain.RunRecord) error {
	query, args, err := sq.Insert("runs").
		Options("OR REPLACE").
		Columns("run_id", "operation", "state", "processed", "duplicates_found",
			"removed", "errors", "started_at", "finished_at").
		Values(run.RunID, run.Operation, string(run.State), run.Processed,
			run.DuplicatesFound, run.Removed, run.Errors, run.StartedAt, run.FinishedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordRemovals stores one row per removed record for the given run.
func (s *Store) RecordRemovals(ctx context.Context, runID string, removals []domain.Removal) error {
	if len(removals) == 0 {
		return nil
	}

	builder := sq.Insert("removals").
		Columns("run_id", "record_id", "dedup_key", "reason", "removed_at")
	now := time.Now().UTC()
	for _, rem := range removals {
		builder = builder.Values(runID, rem.RecordID, rem.Key, rem.Reason, now)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build removals insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert removals: %w", err)
	}
	return nil
}

// RecentRuns lists the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := sq.Select("run_id", "operation", "state", "processed",
		"duplicates_found", "removed", "errors", "started_at", "finished_at").
		From("runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var run domain.RunRecord
		var state string
		if err := rows.Scan(&run.RunID, &run.Operation, &state, &run.Processed,
			&run.DuplicatesFound, &run.Removed, &run.Errors,
			&run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.State = domain.RunState(state)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return runs, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
