package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/parasync/internal/apperr"
	"github.com/starford/parasync/internal/models"
)

// RunRow represents a row in the runs table.
type RunRow struct {
	ID          string    `json:"id"`
	Root        string    `json:"root"`
	DryRun      bool      `json:"dry_run"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Scanned     int       `json:"scanned"`
	Changed     int       `json:"changed"`
	Moved       int       `json:"moved"`
	DirsRemoved int       `json:"dirs_removed"`
	Skipped     int       `json:"skipped"`
	Errors      int       `json:"errors"`
}

// RecordRun stores a finished run and its outcomes within a transaction.
// For live runs the notes table is brought in line with the outcomes: every
// processed note is upserted at its final path and paths that moved away are
// deleted. Dry runs leave the notes table alone.
func (db *DB) RecordRun(r *models.Report) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO runs (id, root, dry_run, started_at, finished_at, scanned, changed, moved, dirs_removed, skipped, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Root, r.DryRun, r.StartedAt.UTC(), r.FinishedAt.UTC(),
		r.Scanned, r.Changed, r.Moved, r.DirsRemoved, r.Skipped, r.Errors)
	if err != nil {
		return fmt.Errorf("index: insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO outcomes (run_id, seq, path, new_path, changed, moved, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare outcome insert: %w", err)
	}
	defer stmt.Close()
	for i, o := range r.Outcomes {
		if _, err := stmt.Exec(r.RunID, i, o.Path, o.NewPath, o.Changed, o.Moved, o.Err); err != nil {
			return fmt.Errorf("index: insert outcome: %w", err)
		}
	}

	if !r.DryRun {
		now := r.FinishedAt.UTC()
		for _, o := range r.Outcomes {
			if o.Moved {
				if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, o.Path); err != nil {
					return fmt.Errorf("index: delete moved note: %w", err)
				}
			}
			if o.Err != "" || o.Meta == nil {
				continue
			}
			if err := upsertNote(tx, noteRowFrom(o, now)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, root, dry_run, started_at, finished_at, scanned, changed, moved, dirs_removed, skipped, errors
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: recent runs: %w", err)
	}
	defer rows.Close()

	out := []RunRow{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRun returns one run by id.
func (db *DB) GetRun(id string) (*RunRow, error) {
	row := db.conn.QueryRow(`
		SELECT id, root, dry_run, started_at, finished_at, scanned, changed, moved, dirs_removed, skipped, errors
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: run %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get run: %w", err)
	}
	return r, nil
}

// RunOutcomes returns the per-note outcomes of a run in processing order.
func (db *DB) RunOutcomes(id string) ([]models.Outcome, error) {
	rows, err := db.conn.Query(`
		SELECT path, new_path, changed, moved, error
		FROM outcomes WHERE run_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("index: run outcomes: %w", err)
	}
	defer rows.Close()

	out := []models.Outcome{}
	for rows.Next() {
		var o models.Outcome
		if err := rows.Scan(&o.Path, &o.NewPath, &o.Changed, &o.Moved, &o.Err); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRow, error) {
	var r RunRow
	err := s.Scan(&r.ID, &r.Root, &r.DryRun, &r.StartedAt, &r.FinishedAt,
		&r.Scanned, &r.Changed, &r.Moved, &r.DirsRemoved, &r.Skipped, &r.Errors)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
