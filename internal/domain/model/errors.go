package model

import (
	"github.com/cockroachdb/errors"
)

// Sentinel error kinds shared by the scoring core. Callers match them with errors.Is.
var (
	// ErrDataIntegrity marks a structurally broken snapshot. Scoring for the
	// whole snapshot is aborted.
	ErrDataIntegrity = errors.New("data integrity")
	// ErrValidation marks invalid configuration or query arguments.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a lookup for a player absent from the pool.
	ErrNotFound = errors.New("not found")
)

// IntegrityErrorf returns an error of kind ErrDataIntegrity.
func IntegrityErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrDataIntegrity, format, args...)
}

// ValidationErrorf returns an error of kind ErrValidation.
func ValidationErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// NotFoundErrorf returns an error of kind ErrNotFound.
func NotFoundErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}
