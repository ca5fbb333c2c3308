package service

import (
	"github.com/cockroachdb/errors"

	"github.com/okian/xpts/internal/domain/model"
)

// ErrNoSnapshot is returned by queries before any snapshot has been accepted.
var ErrNoSnapshot = errors.New("no snapshot loaded")

// Error kinds used as metric labels.
const (
	KindValidation    = "validation"
	KindNotFound      = "not_found"
	KindDataIntegrity = "data_integrity"
	KindNoSnapshot    = "no_snapshot"
	KindInternal      = "internal"
)

// ErrorKind classifies err for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNoSnapshot):
		return KindNoSnapshot
	case errors.Is(err, model.ErrValidation):
		return KindValidation
	case errors.Is(err, model.ErrNotFound):
		return KindNotFound
	case errors.Is(err, model.ErrDataIntegrity):
		return KindDataIntegrity
	default:
		return KindInternal
	}
}
