package model

import (
	"github.com/shopspring/decimal"
)

// StatRecord holds one player's normalized statistics for a single snapshot.
// Sequences are ordered oldest first.
type StatRecord struct {
	ID       string
	Name     string
	Team     string
	Position Position
	Price    decimal.Decimal

	MinutesHistory           []int
	ExpectedGoalsPer90       float64
	ExpectedAssistsPer90     float64
	Creativity               float64
	ExpectedGoalsAgainstTeam float64
	BonusPerMatch            float64
	Form                     float64
	FixtureOpponentStrengths []float64

	// SelectedPercent is informational and never affects the score.
	SelectedPercent float64
	// SeasonMinutes is only consulted by query filters.
	SeasonMinutes int
}

// ExpectedGoalInvolvementPer90 returns xG/90 + xA/90.
func (r StatRecord) ExpectedGoalInvolvementPer90() float64 {
	return r.ExpectedGoalsPer90 + r.ExpectedAssistsPer90
}

// Clone returns a copy that shares no slices with r.
func (r StatRecord) Clone() StatRecord {
	out := r
	if r.MinutesHistory != nil {
		out.MinutesHistory = append([]int(nil), r.MinutesHistory...)
	}
	if r.FixtureOpponentStrengths != nil {
		out.FixtureOpponentStrengths = append([]float64(nil), r.FixtureOpponentStrengths...)
	}
	return out
}

// Team carries team-level aggregates that are read-only during scoring.
type Team struct {
	Name                 string
	ExpectedGoalsAgainst float64
	// AttackStrength is an externally supplied attacking coefficient.
	AttackStrength float64
}
