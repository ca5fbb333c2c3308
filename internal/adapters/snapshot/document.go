// Package snapshot decodes, validates and encodes snapshot documents.
package snapshot

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/xpts/internal/domain/model"
)

// Document is the wire form of a snapshot.
type Document struct {
	Gameweek int      `json:"gameweek" validate:"gte=0"`
	Teams    []Team   `json:"teams,omitempty" validate:"omitempty,dive"`
	Players  []Player `json:"players" validate:"required,dive"`
}

// Team is the wire form of team aggregates.
type Team struct {
	Name                 string  `json:"name" validate:"required"`
	ExpectedGoalsAgainst float64 `json:"expected_goals_against" validate:"gte=0"`
	AttackStrength       float64 `json:"attack_strength" validate:"gte=0"`
}

// Player is the wire form of a StatRecord. Identity fields are checked by
// model.NewSnapshot so a record without one is a data integrity failure.
type Player struct {
	ID                       string          `json:"id"`
	Name                     string          `json:"name"`
	Team                     string          `json:"team"`
	Position                 string          `json:"position" validate:"required,position"`
	Price                    decimal.Decimal `json:"price"`
	MinutesHistory           []int           `json:"minutes_history,omitempty"`
	ExpectedGoalsPer90       float64         `json:"expected_goals_per90"`
	ExpectedAssistsPer90     float64         `json:"expected_assists_per90"`
	Creativity               float64         `json:"creativity"`
	ExpectedGoalsAgainstTeam float64         `json:"expected_goals_against_team"`
	BonusPerMatch            float64         `json:"bonus_per_match"`
	Form                     float64         `json:"form"`
	FixtureOpponentStrengths []float64       `json:"fixture_opponent_strengths,omitempty"`
	SelectedPercent          float64         `json:"selected_percent" validate:"gte=0,lte=100"`
	SeasonMinutes            int             `json:"season_minutes" validate:"gte=0"`
}

// Snapshot converts the document to a validated model snapshot.
func (d Document) Snapshot(limits model.Limits) (*model.Snapshot, error) {
	players := make([]model.StatRecord, 0, len(d.Players))
	for _, p := range d.Players {
		players = append(players, p.record())
	}
	teams := make([]model.Team, 0, len(d.Teams))
	for _, t := range d.Teams {
		teams = append(teams, model.Team{
			Name:                 t.Name,
			ExpectedGoalsAgainst: t.ExpectedGoalsAgainst,
			AttackStrength:       t.AttackStrength,
		})
	}
	return model.NewSnapshot(d.Gameweek, players, teams, limits)
}

func (p Player) record() model.StatRecord {
	return model.StatRecord{
		ID:                       strings.TrimSpace(p.ID),
		Name:                     strings.TrimSpace(p.Name),
		Team:                     strings.TrimSpace(p.Team),
		Position:                 model.Position(strings.ToUpper(strings.TrimSpace(p.Position))),
		Price:                    p.Price,
		MinutesHistory:           p.MinutesHistory,
		ExpectedGoalsPer90:       p.ExpectedGoalsPer90,
		ExpectedAssistsPer90:     p.ExpectedAssistsPer90,
		Creativity:               p.Creativity,
		ExpectedGoalsAgainstTeam: p.ExpectedGoalsAgainstTeam,
		BonusPerMatch:            p.BonusPerMatch,
		Form:                     p.Form,
		FixtureOpponentStrengths: p.FixtureOpponentStrengths,
		SelectedPercent:          p.SelectedPercent,
		SeasonMinutes:            p.SeasonMinutes,
	}
}

// FromSnapshot returns the wire form of s.
func FromSnapshot(s *model.Snapshot) Document {
	d := Document{Gameweek: s.Gameweek()}
	for _, t := range s.Teams() {
		d.Teams = append(d.Teams, Team{
			Name:                 t.Name,
			ExpectedGoalsAgainst: t.ExpectedGoalsAgainst,
			AttackStrength:       t.AttackStrength,
		})
	}
	for _, r := range s.Players() {
		d.Players = append(d.Players, Player{
			ID:                       r.ID,
			Name:                     r.Name,
			Team:                     r.Team,
			Position:                 r.Position.String(),
			Price:                    r.Price,
			MinutesHistory:           r.MinutesHistory,
			ExpectedGoalsPer90:       r.ExpectedGoalsPer90,
			ExpectedAssistsPer90:     r.ExpectedAssistsPer90,
			Creativity:               r.Creativity,
			ExpectedGoalsAgainstTeam: r.ExpectedGoalsAgainstTeam,
			BonusPerMatch:            r.BonusPerMatch,
			Form:                     r.Form,
			FixtureOpponentStrengths: r.FixtureOpponentStrengths,
			SelectedPercent:          r.SelectedPercent,
			SeasonMinutes:            r.SeasonMinutes,
		})
	}
	return d
}
