package api

import (
	"net/http"

	"github.com/okian/xpts/internal/adapters/view"
	"github.com/okian/xpts/internal/domain/model"
)

// ExplainHandler serves per-player score breakdowns.
type ExplainHandler struct {
	deps QueryDependencies
}

// NewExplainHandler creates a new explain handler.
func NewExplainHandler(deps QueryDependencies) *ExplainHandler {
	return &ExplainHandler{deps: deps}
}

// HandleExplain handles GET /explain/{position}/{id}.
func (h *ExplainHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	const op = "api.explain"

	pos, err := model.ParsePosition(r.PathValue("position"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, NewKind(op+": missing id", ErrBadRequest))
		return
	}

	e, err := h.deps.Explain(r.Context(), id, pos)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view.FromExplanation(e))
}
