package snapshotgen

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/xpts/internal/adapters/snapshot"
	"github.com/okian/xpts/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run generates a snapshot, optionally writes it to disk, and when a base URL
// is configured uploads it and verifies the served rankings.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	log := logger.Get()
	start := time.Now()
	var stats Stats

	log.Info(ctx, "generating snapshot",
		logger.Int("players", cfg.Players),
		logger.Int("teams", cfg.Teams),
		logger.Int("gameweek", cfg.Gameweek),
		logger.Any("seed", cfg.Seed))

	doc := Generate(cfg)
	stats.PlayersGenerated = len(doc.Players)

	if cfg.OutputFile != "" {
		if err := WriteFile(cfg.OutputFile, doc); err != nil {
			return stats, err
		}
		log.Info(ctx, "snapshot written", logger.String("file", cfg.OutputFile))
	}

	if cfg.BaseURL != "" {
		c := NewClient(cfg.BaseURL, cfg.Timeout)
		if err := c.Health(ctx); err != nil {
			return stats, errors.Wrap(err, "service health check")
		}
		svcStats, err := c.PutSnapshot(ctx, doc)
		if err != nil {
			return stats, errors.Wrap(err, "upload snapshot")
		}
		stats.Uploaded = true
		log.Info(ctx, "snapshot uploaded",
			logger.Int("gameweek", svcStats.Gameweek),
			logger.Any("players", svcStats.Players))

		if err := verifyService(ctx, c, cfg.TopN, &stats); err != nil {
			return stats, err
		}
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "run completed",
		logger.Int("playersGenerated", stats.PlayersGenerated),
		logger.Bool("uploaded", stats.Uploaded),
		logger.Int("listsVerified", stats.ListsVerified),
		logger.Int("rowsVerified", stats.RowsVerified),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

// WriteFile writes doc to path, creating the directory if needed.
func WriteFile(path string, doc snapshot.Document) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission) //nolint:gosec // operator supplied
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close output file")
		}
	}()
	return snapshot.NewCodec().Encode(f, doc)
}
