package snapshotgen

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/okian/xpts/internal/adapters/view"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
)

// ErrVerification marks a ranking that violates the ordering contract.
var ErrVerification = errors.New("verification failed")

const xptsTolerance = 1e-9

// VerifyRanking checks that ranks are 1..n and xPts never increases down the list.
func VerifyRanking(r view.Ranking) error {
	for i, row := range r.Players {
		if row.Rank != i+1 {
			return errors.Wrapf(ErrVerification, "%s row %d has rank %d", r.Position, i, row.Rank)
		}
		if math.IsNaN(row.ExpectedPoints) || row.ExpectedPoints < 0 {
			return errors.Wrapf(ErrVerification, "%s %s has xPts %v", r.Position, row.ID, row.ExpectedPoints)
		}
		if i > 0 && row.ExpectedPoints > r.Players[i-1].ExpectedPoints+xptsTolerance {
			return errors.Wrapf(ErrVerification, "%s %s (%v) ranked below %s (%v)", r.Position,
				row.ID, row.ExpectedPoints, r.Players[i-1].ID, r.Players[i-1].ExpectedPoints)
		}
	}
	return nil
}

// verifyService fetches the top list of every scorable position and checks it,
// then checks that the leader's explanation agrees with its row.
func verifyService(ctx context.Context, c *Client, topN int, stats *Stats) error {
	log := logger.Get()
	for _, pos := range model.ScorablePositions {
		r, err := c.Top(ctx, pos, topN)
		if err != nil {
			return err
		}
		if err := VerifyRanking(r); err != nil {
			return err
		}
		stats.ListsVerified++
		stats.RowsVerified += len(r.Players)

		if len(r.Players) == 0 {
			continue
		}
		leader := r.Players[0]
		e, err := c.Explain(ctx, pos, leader.ID)
		if err != nil {
			return err
		}
		if e.Player.Rank != 1 || math.Abs(e.ExpectedPoints-leader.ExpectedPoints) > xptsTolerance {
			return errors.Wrapf(ErrVerification, "%s leader %s explains as rank %d xPts %v, listed %v",
				pos, leader.ID, e.Player.Rank, e.ExpectedPoints, leader.ExpectedPoints)
		}
		log.Info(ctx, "position verified",
			logger.String("position", pos.String()),
			logger.Int("rows", len(r.Players)),
			logger.String("leader", leader.Name),
			logger.Float64("xpts", leader.ExpectedPoints))
	}
	return nil
}
