// Package models defines the domain types for parasync.
package models

import "time"

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteMeta is the reconciled frontmatter of a note.
type NoteMeta struct {
	Para        string   `json:"para"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	Archived    bool     `json:"archived"`
}

// Outcome records what a run did, or would do, to one note.
type Outcome struct {
	Path     string    `json:"path"`
	NewPath  string    `json:"new_path,omitempty"`
	Changed  bool      `json:"changed"`
	Moved    bool      `json:"moved"`
	Err      string    `json:"error,omitempty"`
	Checksum string    `json:"checksum,omitempty"`
	Meta     *NoteMeta `json:"meta,omitempty"`
}

// FinalPath is where the note lives after the run.
func (o Outcome) FinalPath() string {
	if o.Moved && o.NewPath != "" {
		return o.NewPath
	}
	return o.Path
}

// Report aggregates the outcomes of one run over a vault.
type Report struct {
	RunID       string    `json:"run_id"`
	Root        string    `json:"root"`
	DryRun      bool      `json:"dry_run"`
	Scanned     int       `json:"scanned"`
	Changed     int       `json:"changed"`
	Moved       int       `json:"moved"`
	DirsRemoved int       `json:"dirs_removed"`
	Skipped     int       `json:"skipped"`
	Errors      int       `json:"errors"`
	Outcomes    []Outcome `json:"outcomes"`
	RemovedDirs []string  `json:"removed_dirs,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Add folds one outcome into the counters. A note that failed counts only
// as an error.
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch {
	case o.Err != "":
		r.Errors++
	case !o.Changed && !o.Moved:
		r.Skipped++
	default:
		if o.Changed {
			r.Changed++
		}
		if o.Moved {
			r.Moved++
		}
	}
}
