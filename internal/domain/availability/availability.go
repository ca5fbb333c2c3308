// Package availability estimates the probability that a player features in the next match.
package availability

import "math"

// Default estimator parameters.
const (
	DefaultLookback    = 4
	DefaultStartWeight = 0.8
	DefaultProbability = 0.5
	StartMinutes       = 60
	FullMatchMinutes   = 90
)

// Option configures an Estimator.
type Option func(*Estimator)

// WithLookback sets how many recent matches are considered.
func WithLookback(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.lookback = n
		}
	}
}

// WithStartWeight sets the share of a match's value that comes from starting it.
// The remainder comes from minutes played.
func WithStartWeight(w float64) Option {
	return func(e *Estimator) {
		if w >= 0 && w <= 1 {
			e.startWeight = w
		}
	}
}

// WithDefault sets the probability returned for an empty history.
func WithDefault(p float64) Option {
	return func(e *Estimator) {
		if p >= 0 && p <= 1 {
			e.fallback = p
		}
	}
}

// Estimator derives a playing probability from recent minutes.
type Estimator struct {
	lookback    int
	startWeight float64
	fallback    float64
}

// New creates an Estimator with the given options.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		lookback:    DefaultLookback,
		startWeight: DefaultStartWeight,
		fallback:    DefaultProbability,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Probability returns a value in [0,1]. minutes is ordered oldest first; only the
// last lookback entries count, the newest weighted highest (weights 1..n).
func (e *Estimator) Probability(minutes []int) float64 {
	if len(minutes) > e.lookback {
		minutes = minutes[len(minutes)-e.lookback:]
	}
	if len(minutes) == 0 {
		return e.fallback
	}

	var num, den float64
	for i, m := range minutes {
		w := float64(i + 1)
		num += w * e.matchValue(m)
		den += w
	}
	return math.Max(0, math.Min(1, num/den))
}

func (e *Estimator) matchValue(m int) float64 {
	if m < 0 {
		m = 0
	}
	var started float64
	if m >= StartMinutes {
		started = 1
	}
	share := math.Min(float64(m)/FullMatchMinutes, 1)
	return e.startWeight*started + (1-e.startWeight)*share
}
