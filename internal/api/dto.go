package api

import (
	"github.com/starford/parasync/internal/index"
	"github.com/starford/parasync/internal/models"
	"github.com/starford/parasync/internal/noteservice"
)

// PreviewRequest is the request body for previewing a note.
type PreviewRequest struct {
	Path    string `json:"path" example:"02 - Areas/Family/note.md" validate:"required"`
	Content string `json:"content,omitempty" example:"Kids #cat-school #p1"`
}

// Preview is the reconciled note (aliased from the domain layer).
type Preview = noteservice.Preview

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []index.NoteRow `json:"notes" validate:"required"`
}

// RunListResponse wraps run listings.
type RunListResponse struct {
	Runs []index.RunRow `json:"runs" validate:"required"`
}

// RunDetail is a recorded run with outcomes (aliased from the domain layer).
type RunDetail = noteservice.RunDetail

// SyncResponse is the report of a triggered run.
type SyncResponse = models.Report
