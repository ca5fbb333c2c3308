// Package scoring computes position-specific expected points from a player's statistics.
package scoring

import (
	"math"

	"github.com/okian/xpts/internal/domain/model"
)

// Scoring constants.
const (
	DefaultScale = 2.0

	// forwardGoalFactor and midfielderInvolvementFactor lift per-90 rates onto the
	// same range as form before weighting.
	forwardGoalFactor           = 4.0
	midfielderInvolvementFactor = 5.0
	creativityDivisor           = 100.0

	cleanSheetPoints    = 4.0
	defenderGoalPoints  = 6.0
	defenderAssistPts   = 3.0
	starterMinutesPts   = 2.0
	rotationMinutesPts  = 1.0
	maxGoalsAgainstTeam = 10.0
)

// Term names used in breakdowns.
const (
	TermExpectedGoals           = "expected_goals"
	TermExpectedAssists         = "expected_assists"
	TermExpectedGoalInvolvement = "expected_goal_involvement"
	TermCreativity              = "creativity"
	TermForm                    = "form"
	TermFixture                 = "fixture"
	TermTeamAttack              = "team_attack"
	TermCleanSheet              = "clean_sheet"
	TermMinutes                 = "minutes"
	TermBonus                   = "bonus"
)

// Adjustments are the per-player context values computed before scoring.
type Adjustments struct {
	FixtureDifficulty float64
	FixtureMultiplier float64
	Availability      float64
	TeamAttack        float64
}

// Term is one additive contribution to the raw score.
type Term struct {
	Name  string
	Value float64
}

// Breakdown records every intermediate of a score.
type Breakdown struct {
	Position    model.Position
	Adjustments Adjustments
	Terms       []Term
	// CleanSheetProbability and MinutesPoints are only set for defenders.
	CleanSheetProbability float64
	MinutesPoints         float64
	Raw                   float64
	ExpectedPoints        float64
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithForwardWeights sets the FWD weights. They are normalized by New.
func WithForwardWeights(w ForwardWeights) Option {
	return func(s *Scorer) { s.forward = w }
}

// WithMidfielderWeights sets the MID weights. They are normalized by New.
func WithMidfielderWeights(w MidfielderWeights) Option {
	return func(s *Scorer) { s.midfielder = w }
}

// WithScales sets the FWD and MID output scales.
func WithScales(forward, midfielder float64) Option {
	return func(s *Scorer) {
		s.forwardScale = forward
		s.midfielderScale = midfielder
	}
}

// WithThresholds sets the starter and rotation bands used for minutes points.
func WithThresholds(t Thresholds) Option {
	return func(s *Scorer) { s.thresholds = t }
}

// Scorer dispatches a record to the formula for its position. It is immutable
// after New and safe for concurrent use.
type Scorer struct {
	forward         ForwardWeights
	midfielder      MidfielderWeights
	forwardScale    float64
	midfielderScale float64
	thresholds      Thresholds
}

// New creates a Scorer. Invalid weights, scales or thresholds are ErrValidation.
func New(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		forward:         DefaultForwardWeights(),
		midfielder:      DefaultMidfielderWeights(),
		forwardScale:    DefaultScale,
		midfielderScale: DefaultScale,
		thresholds:      DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.forward, err = s.forward.normalize(); err != nil {
		return nil, err
	}
	if s.midfielder, err = s.midfielder.normalize(); err != nil {
		return nil, err
	}
	for _, scale := range []float64{s.forwardScale, s.midfielderScale} {
		if !finite(scale) || scale <= 0 {
			return nil, model.ValidationErrorf("scale must be positive, got %v", scale)
		}
	}
	if err := s.thresholds.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ForwardWeights returns the normalized FWD weights.
func (s *Scorer) ForwardWeights() ForwardWeights { return s.forward }

// MidfielderWeights returns the normalized MID weights.
func (s *Scorer) MidfielderWeights() MidfielderWeights { return s.midfielder }

// Thresholds returns the availability bands.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// Score computes the breakdown for rec. Only GK and unknown positions fail.
func (s *Scorer) Score(rec model.StatRecord, adj Adjustments) (Breakdown, error) {
	adj = Adjustments{
		FixtureDifficulty: clean(adj.FixtureDifficulty),
		FixtureMultiplier: clean(adj.FixtureMultiplier),
		Availability:      math.Min(clean(adj.Availability), 1),
		TeamAttack:        clean(adj.TeamAttack),
	}

	var b Breakdown
	switch rec.Position {
	case model.PositionForward:
		b = s.scoreForward(rec, adj)
	case model.PositionMidfielder:
		b = s.scoreMidfielder(rec, adj)
	case model.PositionDefender:
		b = s.scoreDefender(rec, adj)
	default:
		return Breakdown{}, model.ValidationErrorf("no scoring formula for position %q", rec.Position)
	}

	b.Position = rec.Position
	b.Adjustments = adj
	return b, nil
}

func (s *Scorer) scoreForward(rec model.StatRecord, adj Adjustments) Breakdown {
	w := s.forward
	k := s.forwardScale
	terms := []Term{
		{TermExpectedGoals, k * w.ExpectedGoals * forwardGoalFactor * clean(rec.ExpectedGoalsPer90)},
		{TermForm, k * w.Form * clean(rec.Form)},
		{TermFixture, k * w.Fixture * adj.FixtureMultiplier},
		{TermTeamAttack, k * w.TeamAttack * adj.TeamAttack},
	}
	raw := sum(terms)
	return Breakdown{Terms: terms, Raw: raw, ExpectedPoints: bound(raw * adj.Availability)}
}

func (s *Scorer) scoreMidfielder(rec model.StatRecord, adj Adjustments) Breakdown {
	w := s.midfielder
	k := s.midfielderScale
	xgi := clean(rec.ExpectedGoalsPer90) + clean(rec.ExpectedAssistsPer90)
	terms := []Term{
		{TermExpectedGoalInvolvement, k * w.ExpectedGoalInvolvement * midfielderInvolvementFactor * xgi},
		{TermCreativity, k * w.Creativity * clean(rec.Creativity) / creativityDivisor},
		{TermForm, k * w.Form * clean(rec.Form)},
		{TermFixture, k * w.Fixture * adj.FixtureMultiplier},
	}
	raw := sum(terms)
	return Breakdown{Terms: terms, Raw: raw, ExpectedPoints: bound(raw * adj.Availability)}
}

// scoreDefender applies 4*CS + 6*xG + 3*xA + MinPts + Bonus, then the fixture and
// availability multipliers in that order.
func (s *Scorer) scoreDefender(rec model.StatRecord, adj Adjustments) Breakdown {
	xga := math.Min(clean(rec.ExpectedGoalsAgainstTeam), maxGoalsAgainstTeam)
	cs := math.Exp(-xga)
	minPts := s.minutesPoints(adj.Availability)
	terms := []Term{
		{TermCleanSheet, cleanSheetPoints * cs},
		{TermExpectedGoals, defenderGoalPoints * clean(rec.ExpectedGoalsPer90)},
		{TermExpectedAssists, defenderAssistPts * clean(rec.ExpectedAssistsPer90)},
		{TermMinutes, minPts},
		{TermBonus, clean(rec.BonusPerMatch)},
	}
	raw := sum(terms)
	return Breakdown{
		Terms:                 terms,
		CleanSheetProbability: cs,
		MinutesPoints:         minPts,
		Raw:                   raw,
		ExpectedPoints:        bound(raw * adj.FixtureMultiplier * adj.Availability),
	}
}

func (s *Scorer) minutesPoints(p float64) float64 {
	switch {
	case p >= s.thresholds.Starter:
		return starterMinutesPts
	case p >= s.thresholds.Rotation:
		return rotationMinutesPts
	default:
		return 0
	}
}

func sum(terms []Term) float64 {
	var total float64
	for _, t := range terms {
		total += t.Value
	}
	return bound(total)
}

// clean maps NaN, infinities and negatives to zero.
func clean(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

// bound keeps a result finite and non-negative when huge inputs overflow.
func bound(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > math.MaxFloat64:
		return math.MaxFloat64
	default:
		return v
	}
}
