package index

import "github.com/starford/parasync/internal/models"

// Ledger defines the run ledger and note index operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Ledger interface {
	RecordRun(r *models.Report) error
	RecentRuns(limit int) ([]RunRow, error)
	GetRun(id string) (*RunRow, error)
	RunOutcomes(id string) ([]models.Outcome, error)
	ListNotes(f NoteFilter) ([]NoteRow, error)
	GetNote(path string) (*NoteRow, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)
