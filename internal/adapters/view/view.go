// Package view holds the JSON shapes shared by the HTTP and MCP adapters.
package view

import (
	"github.com/shopspring/decimal"

	"github.com/okian/xpts/internal/domain/analysis"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/ranking"
)

// Row is one ranked player.
type Row struct {
	Rank              int             `json:"rank"`
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Team              string          `json:"team"`
	Position          string          `json:"position"`
	Price             decimal.Decimal `json:"price"`
	ExpectedPoints    float64         `json:"xpts"`
	Form              float64         `json:"form"`
	SelectedPercent   float64         `json:"selected_percent"`
	Availability      float64         `json:"availability"`
	FixtureDifficulty float64         `json:"fixture_difficulty"`
}

// Ranking is a ranked list for one position.
type Ranking struct {
	Position string `json:"position"`
	Players  []Row  `json:"players"`
}

// Term is one additive contribution to the raw score.
type Term struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Explanation is the breakdown of one player's score. The clean sheet and
// minutes fields are set for defenders only, zero values included.
type Explanation struct {
	Player                Row      `json:"player"`
	PoolSize              int      `json:"pool_size"`
	Terms                 []Term   `json:"terms"`
	CleanSheetProbability *float64 `json:"clean_sheet_probability,omitempty"`
	MinutesPoints         *float64 `json:"minutes_points,omitempty"`
	FixtureDifficulty     float64  `json:"fixture_difficulty"`
	FixtureMultiplier     float64  `json:"fixture_multiplier"`
	Availability          float64  `json:"availability"`
	TeamAttack            float64  `json:"team_attack"`
	Raw                   float64  `json:"raw"`
	ExpectedPoints        float64  `json:"xpts"`
}

// FromScored converts a ranked entry.
func FromScored(s ranking.Scored) Row {
	return row(s.Record, s.Rank, s.Breakdown.ExpectedPoints, s.Breakdown.Adjustments.Availability,
		s.Breakdown.Adjustments.FixtureDifficulty)
}

// FromScoredList converts a ranked list for pos.
func FromScoredList(pos model.Position, in []ranking.Scored) Ranking {
	out := Ranking{Position: pos.String(), Players: make([]Row, 0, len(in))}
	for _, s := range in {
		out.Players = append(out.Players, FromScored(s))
	}
	return out
}

// FromAll converts every position's list in report order.
func FromAll(in map[model.Position][]ranking.Scored) []Ranking {
	out := make([]Ranking, 0, len(in))
	for _, pos := range model.ScorablePositions {
		if list, ok := in[pos]; ok {
			out = append(out, FromScoredList(pos, list))
		}
	}
	return out
}

// FromExplanation converts an explanation.
func FromExplanation(e analysis.Explanation) Explanation {
	b := e.Breakdown
	adj := b.Adjustments
	out := Explanation{
		Player:            row(e.Player, e.Rank, b.ExpectedPoints, adj.Availability, adj.FixtureDifficulty),
		PoolSize:          e.PoolSize,
		Terms:             make([]Term, 0, len(b.Terms)),
		FixtureDifficulty: adj.FixtureDifficulty,
		FixtureMultiplier: adj.FixtureMultiplier,
		Availability:      adj.Availability,
		TeamAttack:        adj.TeamAttack,
		Raw:               b.Raw,
		ExpectedPoints:    b.ExpectedPoints,
	}
	if b.Position == model.PositionDefender {
		cs, mins := b.CleanSheetProbability, b.MinutesPoints
		out.CleanSheetProbability = &cs
		out.MinutesPoints = &mins
	}
	for _, t := range b.Terms {
		out.Terms = append(out.Terms, Term{Name: t.Name, Value: t.Value})
	}
	return out
}

// FromExplanations converts a list of explanations.
func FromExplanations(in []analysis.Explanation) []Explanation {
	out := make([]Explanation, 0, len(in))
	for _, e := range in {
		out = append(out, FromExplanation(e))
	}
	return out
}

// Missing returns the requested ids absent from found, in request order.
func Missing(requested []string, found []analysis.Explanation) []string {
	have := make(map[string]struct{}, len(found))
	for _, e := range found {
		have[e.Player.ID] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := have[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func row(r model.StatRecord, rank int, xpts, availability, difficulty float64) Row {
	return Row{
		Rank:              rank,
		ID:                r.ID,
		Name:              r.Name,
		Team:              r.Team,
		Position:          r.Position.String(),
		Price:             r.Price,
		ExpectedPoints:    xpts,
		Form:              r.Form,
		SelectedPercent:   r.SelectedPercent,
		Availability:      availability,
		FixtureDifficulty: difficulty,
	}
}
