package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/xpts/internal/snapshotgen"
	"github.com/okian/xpts/pkg/logger"
)

func main() {
	def := snapshotgen.DefaultConfig()
	var (
		baseURL  = flag.String("url", "", "Base URL of a running service to upload to and verify (empty: file only)")
		players  = flag.Int("players", def.Players, "Number of players to generate")
		teams    = flag.Int("teams", def.Teams, "Number of teams (max 20)")
		gameweek = flag.Int("gameweek", def.Gameweek, "Gameweek stamped on the snapshot")
		seed     = flag.Uint64("seed", def.Seed, "Random seed")
		topN     = flag.Int("top", def.TopN, "Players fetched per position when verifying")
		timeout  = flag.Duration("timeout", def.Timeout, "HTTP request timeout")
		output   = flag.String("output", "", "Output file for the snapshot JSON")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *baseURL == "" && *output == "" {
		os.Stderr.WriteString("nothing to do: set -output and/or -url\n")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := def
	cfg.BaseURL = *baseURL
	cfg.Players = *players
	cfg.Teams = *teams
	cfg.Gameweek = *gameweek
	cfg.Seed = *seed
	cfg.TopN = *topN
	cfg.Timeout = *timeout
	cfg.OutputFile = *output

	if _, err := snapshotgen.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "run failed", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
