package scoring_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/scoring"
)

func defender() model.StatRecord {
	return model.StatRecord{
		ID:                       "d1",
		Name:                     "Saliba",
		Team:                     "ARS",
		Position:                 model.PositionDefender,
		Price:                    decimal.RequireFromString("6.0"),
		ExpectedGoalsAgainstTeam: 0.8,
		ExpectedGoalsPer90:       0.05,
		ExpectedAssistsPer90:     0.1,
		BonusPerMatch:            0.3,
	}
}

func TestScorer_Defender(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		scorer, err := scoring.New()
		So(err, ShouldBeNil)

		Convey("When scoring the reference defender", func() {
			b, err := scorer.Score(defender(), scoring.Adjustments{
				FixtureDifficulty: 3,
				FixtureMultiplier: 1.0,
				Availability:      0.9,
			})

			Convey("Then every intermediate matches the expected points model", func() {
				So(err, ShouldBeNil)
				So(b.Position, ShouldEqual, model.PositionDefender)
				So(b.CleanSheetProbability, ShouldAlmostEqual, math.Exp(-0.8), 1e-12)
				So(b.CleanSheetProbability, ShouldAlmostEqual, 0.4493, 1e-4)
				So(b.MinutesPoints, ShouldEqual, 2)
				So(b.Raw, ShouldAlmostEqual, 4*math.Exp(-0.8)+0.3+0.3+2+0.3, 1e-12)
				So(b.Raw, ShouldAlmostEqual, 4.6973, 1e-4)
				So(b.ExpectedPoints, ShouldAlmostEqual, b.Raw*0.9, 1e-12)
				So(b.ExpectedPoints, ShouldAlmostEqual, 4.2276, 1e-4)
				So(b.Terms, ShouldHaveLength, 5)
			})
		})

		Convey("When availability drops into the rotation band", func() {
			b, err := scorer.Score(defender(), scoring.Adjustments{FixtureMultiplier: 1, Availability: 0.5})
			So(err, ShouldBeNil)
			So(b.MinutesPoints, ShouldEqual, 1)
		})

		Convey("When availability is fringe", func() {
			b, err := scorer.Score(defender(), scoring.Adjustments{FixtureMultiplier: 1, Availability: 0.1})
			So(err, ShouldBeNil)
			So(b.MinutesPoints, ShouldEqual, 0)
		})

		Convey("When the fixture multiplier is applied", func() {
			easy, _ := scorer.Score(defender(), scoring.Adjustments{FixtureMultiplier: 1.1, Availability: 0.9})
			hard, _ := scorer.Score(defender(), scoring.Adjustments{FixtureMultiplier: 0.9, Availability: 0.9})
			So(easy.ExpectedPoints, ShouldBeGreaterThan, hard.ExpectedPoints)
			So(easy.Raw, ShouldEqual, hard.Raw)
		})

		Convey("When the team concedes an absurd number of goals", func() {
			rec := defender()
			rec.ExpectedGoalsAgainstTeam = 1e9
			b, err := scorer.Score(rec, scoring.Adjustments{FixtureMultiplier: 1, Availability: 1})
			So(err, ShouldBeNil)
			So(b.CleanSheetProbability, ShouldAlmostEqual, math.Exp(-10), 1e-12)
		})
	})
}

func TestScorer_AttackingPositions(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		scorer, err := scoring.New()
		So(err, ShouldBeNil)

		Convey("A forward's score follows the weighted composite", func() {
			rec := model.StatRecord{ID: "f1", Position: model.PositionForward, ExpectedGoalsPer90: 0.5, Form: 6}
			b, err := scorer.Score(rec, scoring.Adjustments{FixtureMultiplier: 1, Availability: 1, TeamAttack: 2})
			So(err, ShouldBeNil)
			want := 2 * (0.40*4*0.5 + 0.25*6 + 0.20*1 + 0.15*2)
			So(b.Raw, ShouldAlmostEqual, want, 1e-9)
			So(b.ExpectedPoints, ShouldAlmostEqual, want, 1e-9)
		})

		Convey("A midfielder's score uses goal involvement and creativity", func() {
			rec := model.StatRecord{ID: "m1", Position: model.PositionMidfielder,
				ExpectedGoalsPer90: 0.3, ExpectedAssistsPer90: 0.2, Creativity: 50, Form: 4}
			b, err := scorer.Score(rec, scoring.Adjustments{FixtureMultiplier: 1, Availability: 0.5})
			So(err, ShouldBeNil)
			want := 2 * (0.40*5*0.5 + 0.20*0.5 + 0.25*4 + 0.15*1)
			So(b.Raw, ShouldAlmostEqual, want, 1e-9)
			So(b.ExpectedPoints, ShouldAlmostEqual, want*0.5, 1e-9)
		})

		Convey("More expected goals never lowers a forward's score", func() {
			low, _ := scorer.Score(model.StatRecord{Position: model.PositionForward, ExpectedGoalsPer90: 0.2}, scoring.Adjustments{Availability: 1})
			high, _ := scorer.Score(model.StatRecord{Position: model.PositionForward, ExpectedGoalsPer90: 0.6}, scoring.Adjustments{Availability: 1})
			So(high.ExpectedPoints, ShouldBeGreaterThan, low.ExpectedPoints)
		})

		Convey("Goalkeepers have no formula", func() {
			_, err := scorer.Score(model.StatRecord{Position: model.PositionGoalkeeper}, scoring.Adjustments{})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestScorer_Options(t *testing.T) {
	Convey("Given custom weights", t, func() {
		Convey("They are normalized to sum to one", func() {
			scorer, err := scoring.New(scoring.WithForwardWeights(scoring.ForwardWeights{ExpectedGoals: 2, Form: 2}))
			So(err, ShouldBeNil)
			w := scorer.ForwardWeights()
			So(w.ExpectedGoals, ShouldEqual, 0.5)
			So(w.Form, ShouldEqual, 0.5)
			So(w.Fixture, ShouldEqual, 0)
		})

		Convey("Negative weights are rejected", func() {
			_, err := scoring.New(scoring.WithMidfielderWeights(scoring.MidfielderWeights{ExpectedGoalInvolvement: 1, Form: -0.1}))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("All-zero weights are rejected", func() {
			_, err := scoring.New(scoring.WithForwardWeights(scoring.ForwardWeights{}))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("Non-finite weights are rejected", func() {
			_, err := scoring.New(scoring.WithForwardWeights(scoring.ForwardWeights{ExpectedGoals: math.Inf(1)}))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("Non-positive scales are rejected", func() {
			_, err := scoring.New(scoring.WithScales(0, 2))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("Inverted thresholds are rejected", func() {
			_, err := scoring.New(scoring.WithThresholds(scoring.Thresholds{Starter: 0.2, Rotation: 0.6}))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func randomValue(rng *rand.Rand) float64 {
	switch rng.Intn(8) {
	case 0:
		return math.NaN()
	case 1:
		return math.Inf(1)
	case 2:
		return math.Inf(-1)
	case 3:
		return -rng.Float64() * 10
	case 4:
		return 0
	case 5:
		return math.MaxFloat64 / 2
	default:
		return rng.Float64() * 10
	}
}

func TestScorer_TotalOverDegenerateInput(t *testing.T) {
	scorer, err := scoring.New()
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		pos := model.ScorablePositions[rng.Intn(len(model.ScorablePositions))]
		rec := model.StatRecord{
			ID:                       "r",
			Position:                 pos,
			ExpectedGoalsPer90:       randomValue(rng),
			ExpectedAssistsPer90:     randomValue(rng),
			Creativity:               randomValue(rng),
			ExpectedGoalsAgainstTeam: randomValue(rng),
			BonusPerMatch:            randomValue(rng),
			Form:                     randomValue(rng),
		}
		adj := scoring.Adjustments{
			FixtureDifficulty: randomValue(rng),
			FixtureMultiplier: randomValue(rng),
			Availability:      randomValue(rng),
			TeamAttack:        randomValue(rng),
		}

		b, err := scorer.Score(rec, adj)
		require.NoError(t, err)
		require.False(t, math.IsNaN(b.ExpectedPoints), "NaN for %+v %+v", rec, adj)
		require.False(t, math.IsInf(b.ExpectedPoints, 0), "Inf for %+v %+v", rec, adj)
		require.GreaterOrEqual(t, b.ExpectedPoints, 0.0)

		again, _ := scorer.Score(rec, adj)
		require.Equal(t, math.Float64bits(b.ExpectedPoints), math.Float64bits(again.ExpectedPoints))
	}

	zero, err := scorer.Score(model.StatRecord{Position: model.PositionDefender}, scoring.Adjustments{})
	require.NoError(t, err)
	require.Zero(t, zero.ExpectedPoints)
}
