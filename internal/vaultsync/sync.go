// Package vaultsync walks a vault and brings every note to canonical form:
// frontmatter reconciled, file relocated, emptied folders pruned.
package vaultsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/parasync/internal/checksum"
	"github.com/starford/parasync/internal/models"
	"github.com/starford/parasync/internal/parser"
	"github.com/starford/parasync/internal/reconcile"
	"github.com/starford/parasync/internal/storage"
	"github.com/starford/parasync/internal/taxonomy"
)

// Options control a single run.
type Options struct {
	ExcludeFolders []string
	ExcludeFiles   []string
	DryRun         bool
}

// Ledger records finished runs.
type Ledger interface {
	RecordRun(r *models.Report) error
}

// OutcomeFunc is called after each note is processed.
type OutcomeFunc func(o models.Outcome)

// ReportFunc is called once a run has finished.
type ReportFunc func(r *models.Report)

// Syncer runs the reconciliation pass over a vault. Runs are serialized.
type Syncer struct {
	store     storage.Provider
	engine    *reconcile.Engine
	logger    *slog.Logger
	ledger    Ledger
	onOutcome OutcomeFunc
	onReport  ReportFunc
	mu        sync.Mutex
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithLedger records every finished run in l.
func WithLedger(l Ledger) SyncerOption {
	return func(s *Syncer) {
		s.ledger = l
	}
}

// WithOutcomeFunc registers fn to observe per-note outcomes.
func WithOutcomeFunc(fn OutcomeFunc) SyncerOption {
	return func(s *Syncer) {
		s.onOutcome = fn
	}
}

// WithReportFunc registers fn to observe finished runs.
func WithReportFunc(fn ReportFunc) SyncerOption {
	return func(s *Syncer) {
		s.onReport = fn
	}
}

// New creates a Syncer over store.
func New(store storage.Provider, engine *reconcile.Engine, logger *slog.Logger, opts ...SyncerOption) *Syncer {
	s := &Syncer{store: store, engine: engine, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every note once, one at a time. A failing note is logged,
// recorded and skipped. Cancellation is honoured between notes only, so a
// note is never left half processed. Dry runs take every decision a live
// run would take and report the same outcomes without touching the disk.
func (s *Syncer) Run(ctx context.Context, opts Options) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &models.Report{
		RunID:     uuid.New().String(),
		Root:      s.store.Root(),
		DryRun:    opts.DryRun,
		StartedAt: time.Now(),
		Outcomes:  []models.Outcome{},
	}

	metas, err := s.store.List(storage.Exclusions{Folders: opts.ExcludeFolders, Files: opts.ExcludeFiles})
	if err != nil {
		return nil, fmt.Errorf("vaultsync: %w", err)
	}
	s.logger.Info("sync: started",
		slog.String("run_id", report.RunID),
		slog.String("root", report.Root),
		slog.Int("files", len(metas)),
		slog.Bool("dry_run", opts.DryRun))

	ov := newOverlay(s.store)
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			s.finish(report)
			return report, err
		}
		o := s.processNote(m.Path, opts.DryRun, ov)
		report.Scanned++
		report.Add(o)
		s.logOutcome(o, opts.DryRun)
		if s.onOutcome != nil {
			s.onOutcome(o)
		}
	}

	if report.Moved > 0 {
		dirs, err := s.store.PruneEmptyDirs(ov.storage(), !opts.DryRun)
		if err != nil {
			s.logger.Warn("sync: prune failed", slog.String("error", err.Error()))
		}
		for _, d := range dirs {
			s.logger.Info("sync: empty directory removed", slog.String("path", d), slog.Bool("dry_run", opts.DryRun))
		}
		report.RemovedDirs = dirs
		report.DirsRemoved = len(dirs)
	}

	s.finish(report)
	return report, nil
}

func (s *Syncer) finish(report *models.Report) {
	report.FinishedAt = time.Now()
	s.logger.Info("sync: finished",
		slog.String("run_id", report.RunID),
		slog.Int("scanned", report.Scanned),
		slog.Int("changed", report.Changed),
		slog.Int("moved", report.Moved),
		slog.Int("dirs_removed", report.DirsRemoved),
		slog.Int("skipped", report.Skipped),
		slog.Int("errors", report.Errors))
	if s.ledger != nil {
		if err := s.ledger.RecordRun(report); err != nil {
			s.logger.Warn("sync: ledger record failed", slog.String("error", err.Error()))
		}
	}
	if s.onReport != nil {
		s.onReport(report)
	}
}

// processNote reconciles, writes and relocates one note.
func (s *Syncer) processNote(path string, dryRun bool, ov *overlay) models.Outcome {
	o := models.Outcome{Path: path}

	data, err := s.store.Read(path)
	if err != nil {
		o.Err = err.Error()
		return o
	}
	res, err := s.engine.Reconcile(string(data), path)
	if err != nil {
		o.Err = fmt.Sprintf("reconcile %s: %v", path, err)
		return o
	}

	if res.Changed && !dryRun {
		if err := s.store.Write(path, []byte(res.Content)); err != nil {
			o.Err = err.Error()
			return o
		}
	}
	o.Changed = res.Changed
	o.Checksum = checksum.SumString(res.Content)
	o.Meta = NoteMeta(res.Frontmatter)

	target, ok := taxonomy.PlanRelocation(taxonomy.Segments(path))
	if !ok {
		return o
	}
	dest := taxonomy.ResolveCollision(taxonomy.Join(target), ov.exists)
	if !dryRun {
		if err := s.store.Move(path, dest); err != nil {
			o.Err = err.Error()
			return o
		}
	}
	ov.move(path, dest)
	o.Moved = true
	o.NewPath = dest
	return o
}

func (s *Syncer) logOutcome(o models.Outcome, dryRun bool) {
	switch {
	case o.Err != "":
		s.logger.Warn("sync: note failed", slog.String("path", o.Path), slog.String("error", o.Err))
	case !o.Changed && !o.Moved:
		s.logger.Debug("sync: note skipped", slog.String("path", o.Path))
	default:
		if o.Changed {
			s.logger.Info("sync: note updated", slog.String("path", o.Path), slog.Bool("dry_run", dryRun))
		}
		if o.Moved {
			s.logger.Info("sync: note moved",
				slog.String("path", o.Path),
				slog.String("new_path", o.NewPath),
				slog.Bool("dry_run", dryRun))
		}
	}
}

// NoteMeta summarizes a reconciled block.
func NoteMeta(fm *parser.Frontmatter) *models.NoteMeta {
	if fm == nil {
		return nil
	}
	tags := fm.Tags()
	if tags == nil {
		tags = []string{}
	}
	return &models.NoteMeta{
		Para:        fm.Get(parser.KeyPara),
		Category:    fm.Get(parser.KeyCategory),
		Subcategory: fm.Get(parser.KeySubcategory),
		Priority:    fm.Get(parser.KeyPriority),
		Tags:        tags,
		Archived:    fm.Get(parser.KeyArchived) == "true",
	}
}
