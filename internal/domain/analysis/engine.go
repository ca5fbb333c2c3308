// Package analysis builds a ranked, queryable pool from one snapshot.
package analysis

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/okian/xpts/internal/domain/availability"
	"github.com/okian/xpts/internal/domain/fixture"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/ranking"
	"github.com/okian/xpts/internal/domain/scoring"
)

// Explanation is the term-by-term account of one player's score.
type Explanation struct {
	Player    model.StatRecord
	Breakdown scoring.Breakdown
	// Rank is the player's place in the full position pool, PoolSize its length.
	Rank     int
	PoolSize int
}

// Engine holds the scored pool of one snapshot. It is immutable after New and
// safe for concurrent queries.
type Engine struct {
	scorer       *scoring.Scorer
	fixtures     *fixture.Adjuster
	availability *availability.Estimator
	parallelism  int

	gameweek int
	// pools hold every scorable player, ranked.
	pools map[model.Position][]ranking.Scored
	// index maps player id to its slot in pools.
	index map[string]int
}

// New scores every FWD, MID and DEF record in snap and ranks each position.
func New(snap *model.Snapshot, opts ...Option) (*Engine, error) {
	if snap == nil {
		return nil, model.ValidationErrorf("snapshot is required")
	}

	e := &Engine{
		fixtures:     fixture.New(),
		availability: availability.New(),
		parallelism:  1,
		gameweek:     snap.Gameweek(),
		pools:        make(map[model.Position][]ranking.Scored, len(model.ScorablePositions)),
		index:        make(map[string]int, snap.Len()),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scorer == nil {
		s, err := scoring.New()
		if err != nil {
			return nil, err
		}
		e.scorer = s
	}

	var records []model.StatRecord
	for _, r := range snap.Players() {
		if r.Position.Scorable() {
			records = append(records, r)
		}
	}

	scored, err := e.scoreAll(snap, records)
	if err != nil {
		return nil, err
	}

	byPosition := make(map[model.Position][]ranking.Scored, len(model.ScorablePositions))
	for _, s := range scored {
		byPosition[s.Record.Position] = append(byPosition[s.Record.Position], s)
	}
	for _, pos := range model.ScorablePositions {
		ranked, err := ranking.Rank(byPosition[pos], len(byPosition[pos]))
		if err != nil {
			return nil, err
		}
		e.pools[pos] = ranked
		for i, s := range ranked {
			e.index[s.Record.ID] = i
		}
	}
	return e, nil
}

// scoreAll writes each result to its input index so the output is independent
// of scheduling.
func (e *Engine) scoreAll(snap *model.Snapshot, records []model.StatRecord) ([]ranking.Scored, error) {
	out := make([]ranking.Scored, len(records))
	errs := make([]error, len(records))

	score := func(i int) {
		rec := records[i]
		b, err := e.scorer.Score(rec, e.adjustments(snap, rec))
		out[i] = ranking.Scored{Record: rec, Breakdown: b}
		errs[i] = err
	}

	if e.parallelism < 2 || len(records) < 2 {
		for i := range records {
			score(i)
		}
		return out, errors.Join(errs...)
	}

	pool, err := ants.NewPool(e.parallelism)
	if err != nil {
		return nil, errors.Wrap(err, "create scoring pool")
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i := range records {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			score(i)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, errors.Wrap(err, "submit scoring task")
		}
	}
	workers.Wait()
	return out, errors.Join(errs...)
}

func (e *Engine) adjustments(snap *model.Snapshot, rec model.StatRecord) scoring.Adjustments {
	difficulty := e.fixtures.Adjust(rec.FixtureOpponentStrengths)
	var attack float64
	if t, ok := snap.Team(rec.Team); ok {
		attack = t.AttackStrength
	}
	return scoring.Adjustments{
		FixtureDifficulty: difficulty,
		FixtureMultiplier: e.fixtures.Multiplier(difficulty),
		Availability:      e.availability.Probability(rec.MinutesHistory),
		TeamAttack:        attack,
	}
}

// Gameweek returns the snapshot's gameweek.
func (e *Engine) Gameweek() int { return e.gameweek }

// Size returns the number of scored players at a position.
func (e *Engine) Size(pos model.Position) (int, error) {
	pool, err := e.pool(pos)
	if err != nil {
		return 0, err
	}
	return len(pool), nil
}

// Top returns the count best players at a position.
func (e *Engine) Top(pos model.Position, count int) ([]ranking.Scored, error) {
	return e.TopFiltered(pos, count, Filter{})
}

// TopAll returns the count best players for every scorable position.
func (e *Engine) TopAll(count int) (map[model.Position][]ranking.Scored, error) {
	out := make(map[model.Position][]ranking.Scored, len(model.ScorablePositions))
	for _, pos := range model.ScorablePositions {
		top, err := e.Top(pos, count)
		if err != nil {
			return nil, err
		}
		out[pos] = top
	}
	return out, nil
}

// TopFiltered ranks the players at a position that pass f and returns the first
// count. Ranks are relative to the filtered list.
func (e *Engine) TopFiltered(pos model.Position, count int, f Filter) ([]ranking.Scored, error) {
	pool, err := e.pool(pos)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	out, err := ranking.Rank(f.apply(pool), count)
	if err != nil {
		return nil, err
	}
	return detach(out), nil
}

// AttackingDefenders ranks the defenders that pass f by expected goal
// involvement per 90, falling back to the xPts order on ties.
func (e *Engine) AttackingDefenders(count int, f Filter) ([]ranking.Scored, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out, err := ranking.RankBy(f.apply(e.pools[model.PositionDefender]), count, model.StatRecord.ExpectedGoalInvolvementPer90)
	if err != nil {
		return nil, err
	}
	return detach(out), nil
}

// Explain returns the breakdown of one player's score.
func (e *Engine) Explain(id string, pos model.Position) (Explanation, error) {
	pool, err := e.pool(pos)
	if err != nil {
		return Explanation{}, err
	}
	i, ok := e.lookup(pool, id)
	if !ok {
		return Explanation{}, model.NotFoundErrorf("player %q at %s", id, pos)
	}
	return explain(pool, i), nil
}

// Compare explains the given players in rank order. Ids that are not in the
// position pool are reported together as ErrNotFound alongside the players found.
func (e *Engine) Compare(ids []string, pos model.Position) ([]Explanation, error) {
	pool, err := e.pool(pos)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(ids))
	var (
		slots   []int
		missing []string
	)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if i, ok := e.lookup(pool, id); ok {
			slots = append(slots, i)
		} else {
			missing = append(missing, id)
		}
	}

	// pool is ranked, so slot order is rank order.
	sort.Ints(slots)
	out := make([]Explanation, 0, len(slots))
	for _, i := range slots {
		out = append(out, explain(pool, i))
	}
	if len(missing) > 0 {
		return out, model.NotFoundErrorf("players %s at %s", strings.Join(missing, ", "), pos)
	}
	return out, nil
}

func (e *Engine) pool(pos model.Position) ([]ranking.Scored, error) {
	if !pos.Scorable() {
		return nil, model.ValidationErrorf("position %q cannot be ranked", pos)
	}
	return e.pools[pos], nil
}

func (e *Engine) lookup(pool []ranking.Scored, id string) (int, bool) {
	i, ok := e.index[id]
	if !ok || i >= len(pool) || pool[i].Record.ID != id {
		return 0, false
	}
	return i, true
}

func detach(rows []ranking.Scored) []ranking.Scored {
	for i := range rows {
		rows[i].Record = rows[i].Record.Clone()
		rows[i].Breakdown.Terms = append([]scoring.Term(nil), rows[i].Breakdown.Terms...)
	}
	return rows
}

func explain(pool []ranking.Scored, i int) Explanation {
	s := pool[i]
	b := s.Breakdown
	b.Terms = append([]scoring.Term(nil), b.Terms...)
	return Explanation{
		Player:    s.Record.Clone(),
		Breakdown: b,
		Rank:      s.Rank,
		PoolSize:  len(pool),
	}
}
