package analysis

import (
	"github.com/okian/xpts/internal/domain/availability"
	"github.com/okian/xpts/internal/domain/fixture"
	"github.com/okian/xpts/internal/domain/scoring"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScorer sets the position scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithFixtureAdjuster sets the fixture difficulty adjuster.
func WithFixtureAdjuster(a *fixture.Adjuster) Option {
	return func(e *Engine) {
		if a != nil {
			e.fixtures = a
		}
	}
}

// WithAvailabilityEstimator sets the playing probability estimator.
func WithAvailabilityEstimator(a *availability.Estimator) Option {
	return func(e *Engine) {
		if a != nil {
			e.availability = a
		}
	}
}

// WithParallelism scores players on a pool of n goroutines. Values below 2 score
// sequentially. Results do not depend on n.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}
