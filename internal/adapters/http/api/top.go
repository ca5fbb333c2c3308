package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/xpts/internal/adapters/view"
	"github.com/okian/xpts/internal/domain/analysis"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/ranking"
)

// Orderings accepted by HandleTop.
const (
	orderExpectedPoints  = "xpts"
	orderGoalInvolvement = "xgi"
)

// TopHandler serves ranked lists.
type TopHandler struct {
	deps QueryDependencies
}

// NewTopHandler creates a new top handler.
func NewTopHandler(deps QueryDependencies) *TopHandler {
	return &TopHandler{deps: deps}
}

// HandleTop handles GET /top/{position}?limit=&max_price=&max_selected=&min_minutes=&order=.
// order=xgi ranks defenders by expected goal involvement per 90 instead of xPts.
func (h *TopHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	const op = "api.top"

	pos, err := model.ParsePosition(r.PathValue("position"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	q := r.URL.Query()
	limit, err := parseLimit(q, h.deps.DefaultLimit())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}

	var scored []ranking.Scored
	switch order := strings.ToLower(strings.TrimSpace(q.Get("order"))); {
	case order == "" || order == orderExpectedPoints:
		scored, err = h.deps.Top(r.Context(), pos, limit, f)
	case order == orderGoalInvolvement && pos == model.PositionDefender:
		scored, err = h.deps.AttackingDefenders(r.Context(), limit, f)
	case order == orderGoalInvolvement:
		err = model.ValidationErrorf("order %q is only available for %s", order, model.PositionDefender)
	default:
		err = model.ValidationErrorf("order must be %q or %q, got %q", orderExpectedPoints, orderGoalInvolvement, order)
	}
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view.FromScoredList(pos, scored))
}

// HandleTopAll handles GET /top?limit= and returns one list per scorable position.
func (h *TopHandler) HandleTopAll(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	const op = "api.top_all"

	limit, err := parseLimit(r.URL.Query(), h.deps.DefaultLimit())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	all, err := h.deps.TopAll(r.Context(), limit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view.FromAll(all))
}

// parseLimit reads the limit parameter. Range checks are left to the service.
func parseLimit(q url.Values, def int) (int, error) {
	raw := strings.TrimSpace(q.Get("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.ValidationErrorf("limit must be an integer, got %q", raw)
	}
	return n, nil
}

func parseFilter(q url.Values) (analysis.Filter, error) {
	var f analysis.Filter
	if raw := strings.TrimSpace(q.Get("max_price")); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, model.ValidationErrorf("max_price must be a decimal, got %q", raw)
		}
		f.MaxPrice = analysis.PriceCeiling(d)
	}
	if raw := strings.TrimSpace(q.Get("max_selected")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, model.ValidationErrorf("max_selected must be a number, got %q", raw)
		}
		f.MaxSelectedPercent = analysis.OwnershipCeiling(v)
	}
	if raw := strings.TrimSpace(q.Get("min_minutes")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, model.ValidationErrorf("min_minutes must be an integer, got %q", raw)
		}
		f.MinSeasonMinutes = v
	}
	return f, f.Validate()
}
