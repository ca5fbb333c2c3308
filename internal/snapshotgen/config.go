// Package snapshotgen generates synthetic snapshots and drives a running
// service with them.
package snapshotgen

import (
	"time"

	"github.com/okian/xpts/internal/domain/model"
)

// Defaults.
const (
	DefaultPlayers  = 600
	DefaultTeams    = 20
	DefaultGameweek = 1
	DefaultTopN     = 25
	DefaultTimeout  = 30 * time.Second
)

// Config holds configuration for a generation run.
type Config struct {
	BaseURL    string        // Base URL of the service; empty skips upload
	Players    int           // Number of players to generate
	Teams      int           // Number of teams, at most len(teamCodes)
	Gameweek   int           // Gameweek stamped on the snapshot
	Seed       uint64        // Seed for reproducible output
	TopN       int           // Players fetched per position when verifying
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Where to write the snapshot; empty skips writing
	Limits     model.Limits  // Sequence windows of the generated records
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() Config {
	return Config{
		Players:  DefaultPlayers,
		Teams:    DefaultTeams,
		Gameweek: DefaultGameweek,
		Seed:     1,
		TopN:     DefaultTopN,
		Timeout:  DefaultTimeout,
		Limits:   model.DefaultLimits(),
	}
}

// Stats summarizes a run.
type Stats struct {
	PlayersGenerated int
	Uploaded         bool
	ListsVerified    int
	RowsVerified     int
	Duration         time.Duration
}
