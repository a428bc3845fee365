// Package noteservice is the use-case layer shared by the HTTP API, the MCP
// server and the watcher.
package noteservice

import (
	"context"
	"errors"
	"os"

	"github.com/starford/parasync/internal/apperr"
	"github.com/starford/parasync/internal/index"
	"github.com/starford/parasync/internal/models"
	"github.com/starford/parasync/internal/reconcile"
	"github.com/starford/parasync/internal/storage"
	"github.com/starford/parasync/internal/taxonomy"
	"github.com/starford/parasync/internal/vaultsync"
)

// Preview is what a sync would do to one note, without doing it.
type Preview struct {
	Path    string           `json:"path"`
	NewPath string           `json:"new_path,omitempty"`
	Changed bool             `json:"changed"`
	Moved   bool             `json:"moved"`
	Content string           `json:"content"`
	Meta    *models.NoteMeta `json:"meta"`
}

// RunDetail is a recorded run with its per-note outcomes.
type RunDetail struct {
	index.RunRow
	Outcomes []models.Outcome `json:"outcomes"`
}

// Service coordinates storage, the sync engine and the ledger.
type Service struct {
	store    storage.Provider
	engine   *reconcile.Engine
	syncer   *vaultsync.Syncer
	ledger   index.Ledger
	defaults vaultsync.Options
}

// NewService creates a new service. ledger may be nil when the ledger is
// disabled; defaults carries the configured exclusions.
func NewService(store storage.Provider, engine *reconcile.Engine, syncer *vaultsync.Syncer, ledger index.Ledger, defaults vaultsync.Options) *Service {
	return &Service{store: store, engine: engine, syncer: syncer, ledger: ledger, defaults: defaults}
}

// Root returns the vault directory.
func (s *Service) Root() string {
	return s.store.Root()
}

// Sync runs one pass over the vault with the configured exclusions.
func (s *Service) Sync(ctx context.Context, dryRun bool) (*models.Report, error) {
	opts := s.defaults
	opts.DryRun = dryRun
	return s.syncer.Run(ctx, opts)
}

// Preview reconciles a note in memory. When content is empty the note is
// read from the vault at path.
func (s *Service) Preview(_ context.Context, path, content string) (*Preview, error) {
	if content == "" {
		data, err := s.store.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, apperr.ErrNotFound
			}
			return nil, err
		}
		content = string(data)
	}

	res, err := s.engine.Reconcile(content, path)
	if err != nil {
		return nil, err
	}
	p := &Preview{
		Path:    path,
		Changed: res.Changed,
		Content: res.Content,
		Meta:    vaultsync.NoteMeta(res.Frontmatter),
	}
	if target, ok := taxonomy.PlanRelocation(taxonomy.Segments(path)); ok {
		p.Moved = true
		p.NewPath = taxonomy.ResolveCollision(taxonomy.Join(target), s.store.Exists)
	}
	return p, nil
}

// ListNotes returns indexed notes matching f.
func (s *Service) ListNotes(_ context.Context, f index.NoteFilter) ([]index.NoteRow, error) {
	if s.ledger == nil {
		return nil, apperr.ErrLedgerDisabled
	}
	return s.ledger.ListNotes(f)
}

// Runs returns the most recent runs.
func (s *Service) Runs(_ context.Context, limit int) ([]index.RunRow, error) {
	if s.ledger == nil {
		return nil, apperr.ErrLedgerDisabled
	}
	return s.ledger.RecentRuns(limit)
}

// Run returns one run with its outcomes.
func (s *Service) Run(_ context.Context, id string) (*RunDetail, error) {
	if s.ledger == nil {
		return nil, apperr.ErrLedgerDisabled
	}
	run, err := s.ledger.GetRun(id)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.ledger.RunOutcomes(id)
	if err != nil {
		return nil, err
	}
	return &RunDetail{RunRow: *run, Outcomes: outcomes}, nil
}
