package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/parasync/internal/apperr"
	"github.com/starford/parasync/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path        string    `json:"path"`
	Para        string    `json:"para"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags"`
	Archived    bool      `json:"archived"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoteFilter narrows ListNotes. Empty fields match everything.
type NoteFilter struct {
	Para     string
	Category string
	Tag      string
	Limit    int
	Offset   int
}

func noteRowFrom(o models.Outcome, now time.Time) NoteRow {
	return NoteRow{
		Path:        o.FinalPath(),
		Para:        o.Meta.Para,
		Category:    o.Meta.Category,
		Subcategory: o.Meta.Subcategory,
		Priority:    o.Meta.Priority,
		Tags:        o.Meta.Tags,
		Archived:    o.Meta.Archived,
		Checksum:    o.Checksum,
		UpdatedAt:   now,
	}
}

func upsertNote(tx *sql.Tx, n NoteRow) error {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	_, err := tx.Exec(`
		INSERT INTO notes (path, para, category, subcategory, priority, tags, archived, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			para        = excluded.para,
			category    = excluded.category,
			subcategory = excluded.subcategory,
			priority    = excluded.priority,
			tags        = excluded.tags,
			archived    = excluded.archived,
			checksum    = excluded.checksum,
			updated_at  = excluded.updated_at
	`, n.Path, n.Para, n.Category, n.Subcategory, n.Priority, string(tagsJSON), n.Archived, n.Checksum, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}
	return nil
}

const noteColumns = `path, para, category, subcategory, priority, tags, archived, checksum, updated_at`

// ListNotes returns indexed notes ordered by path.
func (db *DB) ListNotes(f NoteFilter) ([]NoteRow, error) {
	var (
		where []string
		args  []any
	)
	if f.Para != "" {
		where = append(where, "para = ?")
		args = append(args, f.Para)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, strings.ToLower(f.Category))
	}
	if f.Tag != "" {
		where = append(where, "tags LIKE ?")
		args = append(args, `%"`+strings.ToLower(f.Tag)+`"%`)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	q := `SELECT ` + noteColumns + ` FROM notes`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY path LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	out := []NoteRow{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// GetNote returns one indexed note.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	n, err := scanNote(db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return n, nil
}

func scanNote(s scanner) (*NoteRow, error) {
	var (
		n        NoteRow
		tagsJSON string
	)
	err := s.Scan(&n.Path, &n.Para, &n.Category, &n.Subcategory, &n.Priority,
		&tagsJSON, &n.Archived, &n.Checksum, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil || n.Tags == nil {
		n.Tags = []string{}
	}
	return &n, nil
}
