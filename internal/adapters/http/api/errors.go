package api

import (
	"net/http"

	"github.com/cockroachdb/errors"

	service "github.com/okian/xpts/internal/app"
	"github.com/okian/xpts/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.Mark(errors.New("bad request"), model.ErrValidation)
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// NewKind returns an error of the given kind annotated with the operation.
func NewKind(op string, kind error) error {
	return errors.Wrap(kind, op)
}

// Wrap annotates err with the operation, keeping its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, op)
}

// statusFor maps an error kind to an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNoSnapshot):
		return http.StatusServiceUnavailable, "no_snapshot"
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrDataIntegrity):
		return http.StatusUnprocessableEntity, "data_integrity"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
