// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	service "github.com/okian/xpts/internal/app"
	"github.com/okian/xpts/internal/domain/analysis"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/ranking"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	QueryDependencies
	SnapshotDependencies
	StatsProvider
}

// QueryDependencies are the read operations on the active pool.
type QueryDependencies interface {
	Top(ctx context.Context, pos model.Position, count int, f analysis.Filter) ([]ranking.Scored, error)
	AttackingDefenders(ctx context.Context, count int, f analysis.Filter) ([]ranking.Scored, error)
	TopAll(ctx context.Context, count int) (map[model.Position][]ranking.Scored, error)
	Explain(ctx context.Context, id string, pos model.Position) (analysis.Explanation, error)
	Compare(ctx context.Context, ids []string, pos model.Position) ([]analysis.Explanation, error)
	DefaultLimit() int
	MaxLimit() int
}

// SnapshotDependencies replace the active snapshot.
type SnapshotDependencies interface {
	LoadSnapshot(ctx context.Context, r io.Reader) (service.Stats, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() service.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	topHandler      *TopHandler
	explainHandler  *ExplainHandler
	compareHandler  *CompareHandler
	snapshotHandler *SnapshotHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxBodyBytes int64) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		topHandler:      NewTopHandler(deps),
		explainHandler:  NewExplainHandler(deps),
		compareHandler:  NewCompareHandler(deps),
		snapshotHandler: NewSnapshotHandler(deps, maxBodyBytes),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/top", MetricsMiddleware(s.topHandler.HandleTopAll, "top_all"))
	mux.HandleFunc("/top/{position}", MetricsMiddleware(s.topHandler.HandleTop, "top"))
	mux.HandleFunc("/explain/{position}/{id}", MetricsMiddleware(s.explainHandler.HandleExplain, "explain"))
	mux.HandleFunc("/compare/{position}", MetricsMiddleware(s.compareHandler.HandleCompare, "compare"))
	mux.HandleFunc("/snapshot", MetricsMiddleware(s.snapshotHandler.HandlePutSnapshot, "snapshot"))
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes the error body.
func writeError(w http.ResponseWriter, err error) {
	writeErrorBody(w, err, nil)
}

func writeErrorBody(w http.ResponseWriter, err error, missing []string) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Missing: missing})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, NewKind(r.Method+" "+r.URL.Path, ErrMethodNotAllowed))
	return false
}
