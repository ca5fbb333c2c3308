package api

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/okian/xpts/internal/adapters/view"
	"github.com/okian/xpts/internal/domain/model"
)

// CompareHandler serves side-by-side breakdowns.
type CompareHandler struct {
	deps QueryDependencies
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(deps QueryDependencies) *CompareHandler {
	return &CompareHandler{deps: deps}
}

// HandleCompare handles GET /compare/{position}?ids=a,b,c. Unknown ids yield
// 404 with the missing ids listed.
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	const op = "api.compare"

	pos, err := model.ParsePosition(r.PathValue("position"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	ids := splitIDs(r.URL.Query()["ids"])

	found, err := h.deps.Compare(r.Context(), ids, pos)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeErrorBody(w, Wrap(op, err), view.Missing(ids, found))
			return
		}
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view.FromExplanations(found))
}

// splitIDs accepts both repeated and comma separated ids.
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
