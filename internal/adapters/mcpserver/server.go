// Package mcpserver exposes the ranking queries as MCP tools.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"github.com/okian/xpts/internal/adapters/view"
	service "github.com/okian/xpts/internal/app"
	"github.com/okian/xpts/internal/domain/analysis"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/ranking"
	"github.com/okian/xpts/pkg/logger"
)

// Implementation identity reported to MCP clients.
const (
	ServerName    = "xpts"
	ServerVersion = "1.0.0"
)

// Service is the query surface the tools call.
type Service interface {
	Top(ctx context.Context, pos model.Position, count int, f analysis.Filter) ([]ranking.Scored, error)
	AttackingDefenders(ctx context.Context, count int, f analysis.Filter) ([]ranking.Scored, error)
	TopAll(ctx context.Context, count int) (map[model.Position][]ranking.Scored, error)
	Explain(ctx context.Context, id string, pos model.Position) (analysis.Explanation, error)
	Compare(ctx context.Context, ids []string, pos model.Position) ([]analysis.Explanation, error)
	DefaultLimit() int
	GetStats() service.Stats
}

// TopPlayersArgs is the input schema for top_players.
type TopPlayersArgs struct {
	Position    string   `json:"position" jsonschema:"Position: FWD, MID or DEF (required)"`
	Limit       *int     `json:"limit,omitempty" jsonschema:"Number of players (default: configured top-N)"`
	MaxPrice    string   `json:"max_price,omitempty" jsonschema:"Only players at or below this price, e.g. 7.5"`
	MaxSelected *float64 `json:"max_selected,omitempty" jsonschema:"Only players selected by at most this percent of managers"`
	MinMinutes  int      `json:"min_minutes,omitempty" jsonschema:"Only players with at least this many season minutes"`
}

// AttackingDefendersArgs is the input schema for attacking_defenders.
type AttackingDefendersArgs struct {
	Limit       *int     `json:"limit,omitempty" jsonschema:"Number of defenders (default: configured top-N)"`
	MaxPrice    string   `json:"max_price,omitempty" jsonschema:"Only defenders at or below this price, e.g. 5.0"`
	MaxSelected *float64 `json:"max_selected,omitempty" jsonschema:"Only defenders selected by at most this percent of managers"`
	MinMinutes  int      `json:"min_minutes,omitempty" jsonschema:"Only defenders with at least this many season minutes"`
}

// TopAllArgs is the input schema for top_all.
type TopAllArgs struct {
	Limit *int `json:"limit,omitempty" jsonschema:"Number of players per position (default: configured top-N)"`
}

// ExplainArgs is the input schema for explain_player.
type ExplainArgs struct {
	Position string `json:"position" jsonschema:"Position: FWD, MID or DEF (required)"`
	ID       string `json:"id" jsonschema:"Player id (required)"`
}

// CompareArgs is the input schema for compare_players.
type CompareArgs struct {
	Position string   `json:"position" jsonschema:"Position: FWD, MID or DEF (required)"`
	IDs      []string `json:"ids" jsonschema:"Player ids to compare (required)"`
}

// StatsArgs is the input schema for snapshot_stats (no parameters).
type StatsArgs struct{}

// Tools binds the tool handlers to a Service.
type Tools struct {
	svc Service
	log logger.Logger
}

// NewTools creates the tool handlers.
func NewTools(svc Service, log logger.Logger) *Tools {
	if log == nil {
		log = logger.NewNop()
	}
	return &Tools{svc: svc, log: log}
}

// NewServer builds an MCP server with every tool registered.
func NewServer(svc Service, log logger.Logger) *mcp.Server {
	t := NewTools(svc, log)
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "top_players",
		Description: "Players at one position ranked by expected points for the next gameweek",
	}, t.TopPlayers)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "attacking_defenders",
		Description: "Defenders ranked by expected goal involvement (xG + xA) per 90 minutes",
	}, t.AttackingDefenders)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "top_all",
		Description: "Top players for FWD, MID and DEF ranked by expected points",
	}, t.TopAll)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "explain_player",
		Description: "Breakdown of one player's expected points into its contributing terms",
	}, t.ExplainPlayer)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_players",
		Description: "Side-by-side breakdowns for several players of one position, in rank order",
	}, t.ComparePlayers)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "snapshot_stats",
		Description: "Gameweek and pool sizes of the active snapshot",
	}, t.SnapshotStats)

	return server
}

// Handler serves server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

// TopPlayers handles top_players.
func (t *Tools) TopPlayers(ctx context.Context, _ *mcp.CallToolRequest, args TopPlayersArgs) (*mcp.CallToolResult, any, error) {
	pos, err := model.ParsePosition(args.Position)
	if err != nil {
		return t.toolError(ctx, "top_players", err), nil, nil
	}
	f, err := filter(args.MaxPrice, args.MaxSelected, args.MinMinutes)
	if err != nil {
		return t.toolError(ctx, "top_players", err), nil, nil
	}
	scored, err := t.svc.Top(ctx, pos, t.limit(args.Limit), f)
	if err != nil {
		return t.toolError(ctx, "top_players", err), nil, nil
	}
	return toolJSON(view.FromScoredList(pos, scored))
}

// AttackingDefenders handles attacking_defenders.
func (t *Tools) AttackingDefenders(ctx context.Context, _ *mcp.CallToolRequest, args AttackingDefendersArgs) (*mcp.CallToolResult, any, error) {
	f, err := filter(args.MaxPrice, args.MaxSelected, args.MinMinutes)
	if err != nil {
		return t.toolError(ctx, "attacking_defenders", err), nil, nil
	}
	scored, err := t.svc.AttackingDefenders(ctx, t.limit(args.Limit), f)
	if err != nil {
		return t.toolError(ctx, "attacking_defenders", err), nil, nil
	}
	return toolJSON(view.FromScoredList(model.PositionDefender, scored))
}

// TopAll handles top_all.
func (t *Tools) TopAll(ctx context.Context, _ *mcp.CallToolRequest, args TopAllArgs) (*mcp.CallToolResult, any, error) {
	all, err := t.svc.TopAll(ctx, t.limit(args.Limit))
	if err != nil {
		return t.toolError(ctx, "top_all", err), nil, nil
	}
	return toolJSON(view.FromAll(all))
}

// ExplainPlayer handles explain_player.
func (t *Tools) ExplainPlayer(ctx context.Context, _ *mcp.CallToolRequest, args ExplainArgs) (*mcp.CallToolResult, any, error) {
	pos, err := model.ParsePosition(args.Position)
	if err != nil {
		return t.toolError(ctx, "explain_player", err), nil, nil
	}
	if args.ID == "" {
		return t.toolError(ctx, "explain_player", model.ValidationErrorf("id is required")), nil, nil
	}
	e, err := t.svc.Explain(ctx, args.ID, pos)
	if err != nil {
		return t.toolError(ctx, "explain_player", err), nil, nil
	}
	return toolJSON(view.FromExplanation(e))
}

// ComparePlayers handles compare_players. Unknown ids make the call an error
// that names them.
func (t *Tools) ComparePlayers(ctx context.Context, _ *mcp.CallToolRequest, args CompareArgs) (*mcp.CallToolResult, any, error) {
	pos, err := model.ParsePosition(args.Position)
	if err != nil {
		return t.toolError(ctx, "compare_players", err), nil, nil
	}
	found, err := t.svc.Compare(ctx, args.IDs, pos)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			err = errors.Wrapf(err, "missing %v", view.Missing(args.IDs, found))
		}
		return t.toolError(ctx, "compare_players", err), nil, nil
	}
	return toolJSON(view.FromExplanations(found))
}

// SnapshotStats handles snapshot_stats.
func (t *Tools) SnapshotStats(_ context.Context, _ *mcp.CallToolRequest, _ StatsArgs) (*mcp.CallToolResult, any, error) {
	return toolJSON(t.svc.GetStats())
}

func (t *Tools) limit(n *int) int {
	if n == nil {
		return t.svc.DefaultLimit()
	}
	return *n
}

func filter(maxPrice string, maxSelected *float64, minMinutes int) (analysis.Filter, error) {
	f := analysis.Filter{MaxSelectedPercent: maxSelected, MinSeasonMinutes: minMinutes}
	if maxPrice != "" {
		d, err := decimal.NewFromString(maxPrice)
		if err != nil {
			return f, model.ValidationErrorf("max_price must be a decimal, got %q", maxPrice)
		}
		f.MaxPrice = analysis.PriceCeiling(d)
	}
	return f, nil
}

func (t *Tools) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	t.log.Debug(ctx, "tool call failed",
		logger.String("tool", tool),
		logger.String("kind", service.ErrorKind(err)),
		logger.Error(err))
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: service.ErrorKind(err) + ": " + err.Error()},
		},
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, errors.Wrap(err, "encode tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}
