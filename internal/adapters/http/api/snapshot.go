package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// DefaultMaxBodyBytes bounds snapshot uploads when no limit is configured.
const DefaultMaxBodyBytes int64 = 32 << 20

// SnapshotHandler accepts replacement snapshots.
type SnapshotHandler struct {
	deps         SnapshotDependencies
	maxBodyBytes int64
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps SnapshotDependencies, maxBodyBytes int64) *SnapshotHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &SnapshotHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePutSnapshot handles PUT /snapshot. The body is a snapshot document;
// on success the new pool is active and its stats are returned.
func (h *SnapshotHandler) HandlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	const op = "api.snapshot"

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer body.Close()

	stats, err := h.deps.LoadSnapshot(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Code:    "too_large",
				Message: err.Error(),
			})
			return
		}
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
