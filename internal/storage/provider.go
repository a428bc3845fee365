// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/parasync/internal/models"

// Provider is the interface for vault file operations. All paths are
// slash-separated and relative to the vault root.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// List returns metadata for every .md file that survives the exclusions.
	List(ex Exclusions) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Move renames oldPath to newPath, creating directories as needed.
	Move(oldPath, newPath string) error
	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool
	// PruneEmptyDirs removes directories left without entries, bottom-up.
	PruneEmptyDirs(ov Overlay, apply bool) ([]string, error)
}

// Exclusions filter List results.
type Exclusions struct {
	// Folders are folder names excluded at any depth.
	Folders []string
	// Files are exact file names excluded anywhere.
	Files []string
}

// Overlay describes file changes a dry run has decided on but not applied.
type Overlay struct {
	Removed map[string]struct{}
	Added   map[string]struct{}
}
