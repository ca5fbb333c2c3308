// Package fixture turns upcoming opponent strengths into a difficulty and a score multiplier.
package fixture

import "math"

// Default adjuster parameters.
const (
	DefaultNeutral       = 3.0
	DefaultLookback      = 5
	DefaultSlope         = 0.1
	DefaultMinMultiplier = 0.5
	DefaultMaxMultiplier = 1.5
)

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithNeutral sets the difficulty used when no fixtures are known.
func WithNeutral(v float64) Option {
	return func(a *Adjuster) {
		if v > 0 && !math.IsInf(v, 0) {
			a.neutral = v
		}
	}
}

// WithLookback sets how many upcoming fixtures are averaged.
func WithLookback(n int) Option {
	return func(a *Adjuster) {
		if n > 0 {
			a.lookback = n
		}
	}
}

// WithMultiplier sets the slope and bounds of the difficulty multiplier.
func WithMultiplier(slope, minMult, maxMult float64) Option {
	return func(a *Adjuster) {
		if slope >= 0 && minMult > 0 && maxMult >= minMult {
			a.slope = slope
			a.minMult = minMult
			a.maxMult = maxMult
		}
	}
}

// Adjuster computes fixture difficulty. It holds no mutable state.
type Adjuster struct {
	neutral  float64
	lookback int
	slope    float64
	minMult  float64
	maxMult  float64
}

// New creates an Adjuster with the given options.
func New(opts ...Option) *Adjuster {
	a := &Adjuster{
		neutral:  DefaultNeutral,
		lookback: DefaultLookback,
		slope:    DefaultSlope,
		minMult:  DefaultMinMultiplier,
		maxMult:  DefaultMaxMultiplier,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Neutral returns the difficulty of an unknown fixture list.
func (a *Adjuster) Neutral() float64 { return a.neutral }

// Adjust returns the mean opponent strength over the first lookback entries.
// Non-finite entries count as neutral. An empty list yields the neutral value.
func (a *Adjuster) Adjust(strengths []float64) float64 {
	if len(strengths) > a.lookback {
		strengths = strengths[:a.lookback]
	}
	if len(strengths) == 0 {
		return a.neutral
	}
	var sum float64
	for _, s := range strengths {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = a.neutral
		}
		sum += s
	}
	return sum / float64(len(strengths))
}

// Multiplier maps a difficulty to a score multiplier: easier than neutral gives more
// than 1, harder gives less, clamped to the configured bounds.
func (a *Adjuster) Multiplier(difficulty float64) float64 {
	if math.IsNaN(difficulty) {
		difficulty = a.neutral
	}
	m := 1 + a.slope*(a.neutral-difficulty)
	return math.Max(a.minMult, math.Min(a.maxMult, m))
}
