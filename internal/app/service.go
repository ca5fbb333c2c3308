// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the MCP tools.
package service

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/xpts/internal/adapters/snapshot"
	"github.com/okian/xpts/internal/domain/analysis"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/ranking"
	"github.com/okian/xpts/pkg/logger"
	"github.com/okian/xpts/pkg/metrics"
)

// Default query limits.
const (
	defaultTopN     = 25
	defaultMaxLimit = 200
)

// state is one accepted snapshot and its scored pool. It is replaced wholesale.
type state struct {
	engine   *analysis.Engine
	loadedAt time.Time
}

// Stats summarizes the service for monitoring.
type Stats struct {
	Started     bool           `json:"started"`
	HasSnapshot bool           `json:"has_snapshot"`
	Gameweek    int            `json:"gameweek"`
	Players     map[string]int `json:"players"`
	LoadedAt    time.Time      `json:"loaded_at"`
	TopN        int            `json:"top_n"`
	MaxLimit    int            `json:"max_limit"`
}

// Service owns the active engine and answers ranking queries against it.
type Service struct {
	mu sync.RWMutex

	current atomic.Pointer[state]

	// Configuration
	codec        *snapshot.Codec
	engineOpts   []analysis.Option
	snapshotPath string
	topN         int
	maxLimit     int

	// State
	started bool

	// Logging
	logger logger.Logger
	now    func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAnalysisOptions sets the options used to build every engine.
func WithAnalysisOptions(opts ...analysis.Option) Option {
	return func(s *Service) {
		s.engineOpts = append([]analysis.Option(nil), opts...)
	}
}

// WithLimits sets the lookback windows enforced on incoming snapshots.
func WithLimits(l model.Limits) Option {
	return func(s *Service) {
		s.codec = snapshot.NewCodec(snapshot.WithLimits(l))
	}
}

// WithSnapshotPath loads the snapshot at path during Start.
func WithSnapshotPath(path string) Option {
	return func(s *Service) {
		s.snapshotPath = path
	}
}

// WithTopN sets the count used when a query omits a limit.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithMaxLimit caps the count a query may request.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		codec:    snapshot.NewCodec(),
		topN:     defaultTopN,
		maxLimit: defaultMaxLimit,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.topN > s.maxLimit {
		s.topN = s.maxLimit
	}

	return s
}

// Start loads the configured snapshot, if any.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	log := s.logger
	s.mu.Unlock()

	log.Info(ctx, "starting xpts service...")

	if s.snapshotPath != "" {
		snap, err := s.codec.LoadFile(ctx, s.snapshotPath)
		if err != nil {
			metrics.RecordSnapshotRejected(ErrorKind(err))
			log.Error(ctx, "initial snapshot rejected", logger.String("path", s.snapshotPath), logger.Error(err))
			return err
		}
		if err := s.replace(ctx, snap); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	log.Info(ctx, "xpts service started",
		logger.Int("topN", s.topN),
		logger.Int("maxLimit", s.maxLimit),
		logger.Bool("snapshot", s.current.Load() != nil),
	)

	return nil
}

// Stop marks the service as stopped. The active snapshot is kept.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "xpts service stopped")
}

// LoadSnapshot decodes a snapshot document and makes it active.
func (s *Service) LoadSnapshot(ctx context.Context, r io.Reader) (Stats, error) {
	snap, err := s.codec.Decode(ctx, r)
	if err != nil {
		metrics.RecordSnapshotRejected(ErrorKind(err))
		s.log().Warn(ctx, "snapshot rejected", logger.String("kind", ErrorKind(err)), logger.Error(err))
		return Stats{}, err
	}
	if err := s.Replace(ctx, snap); err != nil {
		return Stats{}, err
	}
	return s.GetStats(), nil
}

// Replace scores snap and swaps it in. Readers see either the old pool or the
// new one, never a mix. On error the previous pool stays active.
func (s *Service) Replace(ctx context.Context, snap *model.Snapshot) error {
	return s.replace(ctx, snap)
}

func (s *Service) replace(ctx context.Context, snap *model.Snapshot) error {
	start := s.now()
	engine, err := analysis.New(snap, s.engineOpts...)
	if err != nil {
		metrics.RecordSnapshotRejected(ErrorKind(err))
		s.log().Warn(ctx, "snapshot rejected", logger.String("kind", ErrorKind(err)), logger.Error(err))
		return err
	}
	elapsed := time.Since(start)

	loadedAt := s.now()
	s.current.Store(&state{engine: engine, loadedAt: loadedAt})

	metrics.RecordEngineBuildDuration(float64(elapsed.Microseconds()) / 1000)
	metrics.RecordSnapshotLoaded(engine.Gameweek(), loadedAt.Unix())
	fields := []logger.Field{logger.Int("gameweek", engine.Gameweek()), logger.Duration("took", elapsed)}
	for _, pos := range model.ScorablePositions {
		n, _ := engine.Size(pos)
		metrics.UpdatePlayersScored(pos.String(), n)
		fields = append(fields, logger.Int(pos.String(), n))
	}
	s.log().Info(ctx, "snapshot loaded", fields...)
	return nil
}

// DefaultLimit is the count used when a query omits one.
func (s *Service) DefaultLimit() int { return s.topN }

// MaxLimit is the largest count a query may request.
func (s *Service) MaxLimit() int { return s.maxLimit }

// Top returns the count best players at pos that pass f.
func (s *Service) Top(ctx context.Context, pos model.Position, count int, f analysis.Filter) ([]ranking.Scored, error) {
	var out []ranking.Scored
	err := s.query(ctx, "top", func(e *analysis.Engine) error {
		if err := s.checkCount(count); err != nil {
			return err
		}
		var err error
		out, err = e.TopFiltered(pos, count, f)
		return err
	})
	return out, err
}

// AttackingDefenders returns the count defenders passing f with the highest
// expected goal involvement per 90.
func (s *Service) AttackingDefenders(ctx context.Context, count int, f analysis.Filter) ([]ranking.Scored, error) {
	var out []ranking.Scored
	err := s.query(ctx, "attacking_defenders", func(e *analysis.Engine) error {
		if err := s.checkCount(count); err != nil {
			return err
		}
		var err error
		out, err = e.AttackingDefenders(count, f)
		return err
	})
	return out, err
}

// TopAll returns the count best players for every scorable position.
func (s *Service) TopAll(ctx context.Context, count int) (map[model.Position][]ranking.Scored, error) {
	var out map[model.Position][]ranking.Scored
	err := s.query(ctx, "top_all", func(e *analysis.Engine) error {
		if err := s.checkCount(count); err != nil {
			return err
		}
		var err error
		out, err = e.TopAll(count)
		return err
	})
	return out, err
}

// Explain returns the score breakdown for one player.
func (s *Service) Explain(ctx context.Context, id string, pos model.Position) (analysis.Explanation, error) {
	var out analysis.Explanation
	err := s.query(ctx, "explain", func(e *analysis.Engine) error {
		var err error
		out, err = e.Explain(id, pos)
		return err
	})
	return out, err
}

// Compare explains several players in rank order. Found players are returned
// even when some ids are unknown.
func (s *Service) Compare(ctx context.Context, ids []string, pos model.Position) ([]analysis.Explanation, error) {
	var out []analysis.Explanation
	err := s.query(ctx, "compare", func(e *analysis.Engine) error {
		if len(ids) == 0 {
			return model.ValidationErrorf("at least one id is required")
		}
		var err error
		out, err = e.Compare(ids, pos)
		return err
	})
	return out, err
}

func (s *Service) checkCount(count int) error {
	if count < 0 || count > s.maxLimit {
		return model.ValidationErrorf("limit must be within [0,%d], got %d", s.maxLimit, count)
	}
	return nil
}

// query runs fn against the active engine and records latency and errors.
func (s *Service) query(ctx context.Context, op string, fn func(*analysis.Engine) error) error {
	start := time.Now()
	defer func() {
		metrics.RecordQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
	}()

	st := s.current.Load()
	if st == nil {
		metrics.RecordQueryError(op, KindNoSnapshot)
		return ErrNoSnapshot
	}
	if err := fn(st.engine); err != nil {
		metrics.RecordQueryError(op, ErrorKind(err))
		s.log().Debug(ctx, "query failed", logger.String("operation", op), logger.Error(err))
		return err
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := Stats{
		Started:  started,
		Players:  map[string]int{},
		TopN:     s.topN,
		MaxLimit: s.maxLimit,
	}
	if st := s.current.Load(); st != nil {
		stats.HasSnapshot = true
		stats.Gameweek = st.engine.Gameweek()
		stats.LoadedAt = st.loadedAt
		for _, pos := range model.ScorablePositions {
			n, _ := st.engine.Size(pos)
			stats.Players[pos.String()] = n
		}
	}
	return stats
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.NewNop()
	}
	return l
}
