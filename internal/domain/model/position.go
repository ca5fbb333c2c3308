// Package model contains the immutable snapshot types shared by the scoring core.
package model

import "strings"

// Position is a football position category used by the fantasy rules.
type Position string

// Known positions.
const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

// ScorablePositions lists the positions that have an xPts formula, in report order.
var ScorablePositions = []Position{PositionForward, PositionMidfielder, PositionDefender}

// ParsePosition parses a position case-insensitively.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ValidationErrorf("unknown position %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the known positions.
func (p Position) Valid() bool {
	switch p {
	case PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward:
		return true
	default:
		return false
	}
}

// Scorable reports whether p has a scoring formula.
func (p Position) Scorable() bool {
	switch p {
	case PositionDefender, PositionMidfielder, PositionForward:
		return true
	default:
		return false
	}
}

func (p Position) String() string { return string(p) }
