package model

import (
	"math"
	"sort"
	"strings"
)

// Default lookback windows.
const (
	DefaultFixtureLookback = 5
	DefaultMinutesLookback = 4

	aggregateTolerance = 1e-9
)

// Limits bounds the per-record sequences accepted into a snapshot.
type Limits struct {
	FixtureLookback int
	MinutesLookback int
}

// DefaultLimits returns the default lookback windows.
func DefaultLimits() Limits {
	return Limits{
		FixtureLookback: DefaultFixtureLookback,
		MinutesLookback: DefaultMinutesLookback,
	}
}

// Validate rejects non-positive windows.
func (l Limits) Validate() error {
	if l.FixtureLookback <= 0 {
		return ValidationErrorf("fixture lookback must be positive, got %d", l.FixtureLookback)
	}
	if l.MinutesLookback <= 0 {
		return ValidationErrorf("minutes lookback must be positive, got %d", l.MinutesLookback)
	}
	return nil
}

// Snapshot is an immutable, validated pool of player records and team aggregates
// for one gameweek. Accessors return copies.
type Snapshot struct {
	gameweek int
	players  []StatRecord
	byID     map[string]int
	teams    map[string]Team
}

// NewSnapshot validates the input and builds a Snapshot. Team aggregates that are
// not supplied are derived from the records. Any structural problem is returned
// as ErrDataIntegrity; invalid limits as ErrValidation.
func NewSnapshot(gameweek int, players []StatRecord, teams []Team, limits Limits) (*Snapshot, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if gameweek < 0 {
		return nil, IntegrityErrorf("gameweek must not be negative, got %d", gameweek)
	}

	s := &Snapshot{
		gameweek: gameweek,
		players:  make([]StatRecord, 0, len(players)),
		byID:     make(map[string]int, len(players)),
		teams:    make(map[string]Team, len(teams)),
	}

	for _, t := range teams {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, IntegrityErrorf("team aggregate without a name")
		}
		if _, dup := s.teams[name]; dup {
			return nil, IntegrityErrorf("duplicate team aggregate %q", name)
		}
		t.Name = name
		s.teams[name] = t
	}

	// xGA observed per team, used to detect conflicting team-level values.
	observed := make(map[string]float64)
	for i := range players {
		rec := players[i].Clone()
		if err := validateRecord(rec, limits); err != nil {
			return nil, err
		}
		if _, dup := s.byID[rec.ID]; dup {
			return nil, IntegrityErrorf("duplicate player id %q", rec.ID)
		}

		if prev, ok := observed[rec.Team]; ok {
			if !sameAggregate(prev, rec.ExpectedGoalsAgainstTeam) {
				return nil, IntegrityErrorf("team %q has conflicting expected goals against (%v vs %v, player %q)",
					rec.Team, prev, rec.ExpectedGoalsAgainstTeam, rec.ID)
			}
		} else {
			observed[rec.Team] = rec.ExpectedGoalsAgainstTeam
		}
		if t, ok := s.teams[rec.Team]; ok && !sameAggregate(t.ExpectedGoalsAgainst, rec.ExpectedGoalsAgainstTeam) {
			return nil, IntegrityErrorf("player %q disagrees with team %q aggregate (%v vs %v)",
				rec.ID, rec.Team, rec.ExpectedGoalsAgainstTeam, t.ExpectedGoalsAgainst)
		}

		s.byID[rec.ID] = len(s.players)
		s.players = append(s.players, rec)
	}

	for name, xga := range observed {
		if _, ok := s.teams[name]; !ok {
			s.teams[name] = Team{Name: name, ExpectedGoalsAgainst: xga}
		}
	}

	return s, nil
}

func validateRecord(rec StatRecord, limits Limits) error {
	switch {
	case strings.TrimSpace(rec.ID) == "":
		return IntegrityErrorf("player record without an id (name %q)", rec.Name)
	case strings.TrimSpace(rec.Name) == "":
		return IntegrityErrorf("player %q has no name", rec.ID)
	case strings.TrimSpace(rec.Team) == "":
		return IntegrityErrorf("player %q has no team", rec.ID)
	case !rec.Position.Valid():
		return IntegrityErrorf("player %q has unknown position %q", rec.ID, rec.Position)
	case !rec.Price.IsPositive():
		return IntegrityErrorf("player %q has non-positive price %s", rec.ID, rec.Price)
	case len(rec.MinutesHistory) > limits.MinutesLookback:
		return IntegrityErrorf("player %q has %d minutes entries, window is %d",
			rec.ID, len(rec.MinutesHistory), limits.MinutesLookback)
	case len(rec.FixtureOpponentStrengths) > limits.FixtureLookback:
		return IntegrityErrorf("player %q has %d upcoming fixtures, window is %d",
			rec.ID, len(rec.FixtureOpponentStrengths), limits.FixtureLookback)
	}
	return nil
}

func sameAggregate(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= aggregateTolerance
}

// Gameweek returns the gameweek the snapshot describes.
func (s *Snapshot) Gameweek() int { return s.gameweek }

// Len returns the number of player records.
func (s *Snapshot) Len() int { return len(s.players) }

// Players returns copies of all records in input order.
func (s *Snapshot) Players() []StatRecord {
	out := make([]StatRecord, len(s.players))
	for i := range s.players {
		out[i] = s.players[i].Clone()
	}
	return out
}

// ByPosition returns copies of the records with position p, in input order.
func (s *Snapshot) ByPosition(p Position) []StatRecord {
	var out []StatRecord
	for i := range s.players {
		if s.players[i].Position == p {
			out = append(out, s.players[i].Clone())
		}
	}
	return out
}

// Player looks a record up by id.
func (s *Snapshot) Player(id string) (StatRecord, bool) {
	i, ok := s.byID[id]
	if !ok {
		return StatRecord{}, false
	}
	return s.players[i].Clone(), true
}

// Team returns the aggregates for a team.
func (s *Snapshot) Team(name string) (Team, bool) {
	t, ok := s.teams[name]
	return t, ok
}

// Teams returns all team aggregates sorted by name.
func (s *Snapshot) Teams() []Team {
	out := make([]Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
