package scoring

import (
	"math"

	"github.com/okian/xpts/internal/domain/model"
)

// ForwardWeights weight the FWD composite.
type ForwardWeights struct {
	ExpectedGoals float64
	Form          float64
	Fixture       float64
	TeamAttack    float64
}

// DefaultForwardWeights returns the default FWD weights.
func DefaultForwardWeights() ForwardWeights {
	return ForwardWeights{ExpectedGoals: 0.40, Form: 0.25, Fixture: 0.20, TeamAttack: 0.15}
}

func (w ForwardWeights) normalize() (ForwardWeights, error) {
	n, err := normalize("forward", w.ExpectedGoals, w.Form, w.Fixture, w.TeamAttack)
	if err != nil {
		return ForwardWeights{}, err
	}
	return ForwardWeights{ExpectedGoals: n[0], Form: n[1], Fixture: n[2], TeamAttack: n[3]}, nil
}

// MidfielderWeights weight the MID composite.
type MidfielderWeights struct {
	ExpectedGoalInvolvement float64
	Creativity              float64
	Form                    float64
	Fixture                 float64
}

// DefaultMidfielderWeights returns the default MID weights.
func DefaultMidfielderWeights() MidfielderWeights {
	return MidfielderWeights{ExpectedGoalInvolvement: 0.40, Creativity: 0.20, Form: 0.25, Fixture: 0.15}
}

func (w MidfielderWeights) normalize() (MidfielderWeights, error) {
	n, err := normalize("midfielder", w.ExpectedGoalInvolvement, w.Creativity, w.Form, w.Fixture)
	if err != nil {
		return MidfielderWeights{}, err
	}
	return MidfielderWeights{ExpectedGoalInvolvement: n[0], Creativity: n[1], Form: n[2], Fixture: n[3]}, nil
}

// Thresholds split playing probability into starter, rotation and fringe bands.
type Thresholds struct {
	Starter  float64
	Rotation float64
}

// DefaultThresholds returns the default availability bands.
func DefaultThresholds() Thresholds {
	return Thresholds{Starter: 0.75, Rotation: 0.25}
}

// Validate requires 0 <= Rotation <= Starter <= 1.
func (t Thresholds) Validate() error {
	if !finite(t.Starter) || !finite(t.Rotation) || t.Rotation < 0 || t.Starter > 1 || t.Rotation > t.Starter {
		return model.ValidationErrorf("thresholds need 0 <= rotation <= starter <= 1, got rotation=%v starter=%v",
			t.Rotation, t.Starter)
	}
	return nil
}

func normalize(name string, ws ...float64) ([]float64, error) {
	var sum float64
	for _, w := range ws {
		if !finite(w) || w < 0 {
			return nil, model.ValidationErrorf("%s weights must be finite and non-negative, got %v", name, ws)
		}
		sum += w
	}
	if sum == 0 {
		return nil, model.ValidationErrorf("%s weights must not all be zero", name)
	}
	out := make([]float64, len(ws))
	for i, w := range ws {
		out[i] = w / sum
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
