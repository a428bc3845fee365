// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInvalidRoot          = errors.New("invalid vault root")
	ErrMalformedFrontmatter = errors.New("malformed frontmatter: missing closing delimiter")
	ErrLedgerDisabled       = errors.New("ledger disabled")
)
