// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"math"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/okian/xpts/internal/domain/analysis"
	"github.com/okian/xpts/internal/domain/availability"
	"github.com/okian/xpts/internal/domain/fixture"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SnapshotPath is an optional JSON snapshot loaded at start-up.
	SnapshotPath string `koanf:"snapshot_path"`

	// TopN is the number of players returned when a query omits a limit.
	TopN int `koanf:"top_n"`

	// MaxLimit caps the limit accepted by ranking queries.
	MaxLimit int `koanf:"max_limit"`

	// Parallelism sets the number of goroutines used to score a snapshot.
	Parallelism int `koanf:"parallelism"`

	// MaxBodyBytes bounds snapshot uploads.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// MCPPath is where the MCP streamable HTTP endpoint is mounted. Empty disables it.
	MCPPath string `koanf:"mcp_path"`

	Fixture      FixtureConfig      `koanf:"fixture"`
	Availability AvailabilityConfig `koanf:"availability"`
	Scoring      ScoringConfig      `koanf:"scoring"`
}

// FixtureConfig tunes fixture difficulty.
type FixtureConfig struct {
	Lookback      int     `koanf:"lookback"`
	Neutral       float64 `koanf:"neutral"`
	Slope         float64 `koanf:"slope"`
	MinMultiplier float64 `koanf:"min_multiplier"`
	MaxMultiplier float64 `koanf:"max_multiplier"`
}

// AvailabilityConfig tunes the playing probability estimate.
type AvailabilityConfig struct {
	Lookback    int     `koanf:"lookback"`
	StartWeight float64 `koanf:"start_weight"`
	Default     float64 `koanf:"default"`
}

// ScoringConfig holds per-position weights and the minutes bands.
type ScoringConfig struct {
	Forward           ForwardConfig    `koanf:"forward"`
	Midfielder        MidfielderConfig `koanf:"midfielder"`
	StarterThreshold  float64          `koanf:"starter_threshold"`
	RotationThreshold float64          `koanf:"rotation_threshold"`
}

// ForwardConfig weights the FWD composite.
type ForwardConfig struct {
	ExpectedGoals float64 `koanf:"expected_goals"`
	Form          float64 `koanf:"form"`
	Fixture       float64 `koanf:"fixture"`
	TeamAttack    float64 `koanf:"team_attack"`
	Scale         float64 `koanf:"scale"`
}

// MidfielderConfig weights the MID composite.
type MidfielderConfig struct {
	ExpectedGoalInvolvement float64 `koanf:"expected_goal_involvement"`
	Creativity              float64 `koanf:"creativity"`
	Form                    float64 `koanf:"form"`
	Fixture                 float64 `koanf:"fixture"`
	Scale                   float64 `koanf:"scale"`
}

// New creates a Config with defaults. Context is accepted first to satisfy the
// project-wide convention.
func New(_ context.Context) *Config {
	fwd := scoring.DefaultForwardWeights()
	mid := scoring.DefaultMidfielderWeights()
	th := scoring.DefaultThresholds()
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		TopN:         25,
		MaxLimit:     200,
		Parallelism:  runtime.NumCPU(),
		MaxBodyBytes: 32 << 20,
		MCPPath:      "/mcp",
		Fixture: FixtureConfig{
			Lookback:      fixture.DefaultLookback,
			Neutral:       fixture.DefaultNeutral,
			Slope:         fixture.DefaultSlope,
			MinMultiplier: fixture.DefaultMinMultiplier,
			MaxMultiplier: fixture.DefaultMaxMultiplier,
		},
		Availability: AvailabilityConfig{
			Lookback:    availability.DefaultLookback,
			StartWeight: availability.DefaultStartWeight,
			Default:     availability.DefaultProbability,
		},
		Scoring: ScoringConfig{
			Forward: ForwardConfig{
				ExpectedGoals: fwd.ExpectedGoals,
				Form:          fwd.Form,
				Fixture:       fwd.Fixture,
				TeamAttack:    fwd.TeamAttack,
				Scale:         scoring.DefaultScale,
			},
			Midfielder: MidfielderConfig{
				ExpectedGoalInvolvement: mid.ExpectedGoalInvolvement,
				Creativity:              mid.Creativity,
				Form:                    mid.Form,
				Fixture:                 mid.Fixture,
				Scale:                   scoring.DefaultScale,
			},
			StarterThreshold:  th.Starter,
			RotationThreshold: th.Rotation,
		},
	}
}

func invalid(format string, args ...any) error {
	return errors.Mark(errors.Wrapf(ErrInvalidConfig, format, args...), model.ErrValidation)
}

// Validate checks every field. Errors match both ErrInvalidConfig and
// model.ErrValidation.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unknown log level %q", c.LogLevel)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	if c.MaxLimit <= 0 {
		return invalid("max_limit must be positive, got %d", c.MaxLimit)
	}
	if c.TopN <= 0 || c.TopN > c.MaxLimit {
		return invalid("top_n must be within [1,%d], got %d", c.MaxLimit, c.TopN)
	}
	if c.Parallelism <= 0 {
		return invalid("parallelism must be positive, got %d", c.Parallelism)
	}
	if c.MaxBodyBytes <= 0 {
		return invalid("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.MCPPath != "" && !strings.HasPrefix(c.MCPPath, "/") {
		return invalid("mcp_path must start with /, got %q", c.MCPPath)
	}

	f := c.Fixture
	if f.Lookback <= 0 {
		return invalid("fixture.lookback must be positive, got %d", f.Lookback)
	}
	if !finite(f.Neutral) || f.Neutral <= 0 {
		return invalid("fixture.neutral must be positive and finite, got %v", f.Neutral)
	}
	if !finite(f.Slope) || !finite(f.MinMultiplier) || !finite(f.MaxMultiplier) ||
		f.Slope < 0 || f.MinMultiplier <= 0 || f.MaxMultiplier < f.MinMultiplier {
		return invalid("fixture multiplier needs slope >= 0 and 0 < min <= max, got slope=%v min=%v max=%v",
			f.Slope, f.MinMultiplier, f.MaxMultiplier)
	}

	a := c.Availability
	if a.Lookback <= 0 {
		return invalid("availability.lookback must be positive, got %d", a.Lookback)
	}
	if !(a.StartWeight >= 0 && a.StartWeight <= 1) {
		return invalid("availability.start_weight must be within [0,1], got %v", a.StartWeight)
	}
	if !(a.Default >= 0 && a.Default <= 1) {
		return invalid("availability.default must be within [0,1], got %v", a.Default)
	}

	if _, err := c.scorer(); err != nil {
		return errors.Mark(errors.Wrap(err, "scoring"), ErrInvalidConfig)
	}
	return nil
}

func (c *Config) scorer() (*scoring.Scorer, error) {
	s := c.Scoring
	return scoring.New(
		scoring.WithForwardWeights(scoring.ForwardWeights{
			ExpectedGoals: s.Forward.ExpectedGoals,
			Form:          s.Forward.Form,
			Fixture:       s.Forward.Fixture,
			TeamAttack:    s.Forward.TeamAttack,
		}),
		scoring.WithMidfielderWeights(scoring.MidfielderWeights{
			ExpectedGoalInvolvement: s.Midfielder.ExpectedGoalInvolvement,
			Creativity:              s.Midfielder.Creativity,
			Form:                    s.Midfielder.Form,
			Fixture:                 s.Midfielder.Fixture,
		}),
		scoring.WithScales(s.Forward.Scale, s.Midfielder.Scale),
		scoring.WithThresholds(scoring.Thresholds{Starter: s.StarterThreshold, Rotation: s.RotationThreshold}),
	)
}

// Limits returns the lookback windows enforced on snapshots.
func (c *Config) Limits() model.Limits {
	return model.Limits{FixtureLookback: c.Fixture.Lookback, MinutesLookback: c.Availability.Lookback}
}

// AnalysisOptions converts the configuration to engine options.
func (c *Config) AnalysisOptions() ([]analysis.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	scorer, err := c.scorer()
	if err != nil {
		return nil, err
	}
	f := c.Fixture
	a := c.Availability
	return []analysis.Option{
		analysis.WithScorer(scorer),
		analysis.WithFixtureAdjuster(fixture.New(
			fixture.WithLookback(f.Lookback),
			fixture.WithNeutral(f.Neutral),
			fixture.WithMultiplier(f.Slope, f.MinMultiplier, f.MaxMultiplier),
		)),
		analysis.WithAvailabilityEstimator(availability.New(
			availability.WithLookback(a.Lookback),
			availability.WithStartWeight(a.StartWeight),
			availability.WithDefault(a.Default),
		)),
		analysis.WithParallelism(c.Parallelism),
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
