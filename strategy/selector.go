// Package strategy maps a difficulty tier to a move-selection algorithm.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/cache"
	"github.com/CPSCourse-TUM-HN/connecTUM/config"
	"github.com/CPSCourse-TUM-HN/connecTUM/mcts"
	"github.com/CPSCourse-TUM-HN/connecTUM/minimax"
	"github.com/CPSCourse-TUM-HN/connecTUM/montecarlo"
)

var (
	ErrNoExactBackend = errors.New("no exact backend configured")
	ErrWrongPiece     = errors.New("exact scores are cached for the other piece")
)

// Chooser picks a column for mover on b.
type Chooser interface {
	ChooseMove(ctx context.Context, b *board.Board, mover board.Piece, rng *rand.Rand) (int, error)
}

type Options struct {
	EasyIterations   int
	MediumIterations int
	HardIterations   int
	Exploration      float64
	MinimaxDepth     int
	// ExactTimeout bounds one exact-tier query. Zero means no bound.
	ExactTimeout time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		EasyIterations:   cfg.GetInt(config.ConfigEasyIterations),
		MediumIterations: cfg.GetInt(config.ConfigMediumIterations),
		HardIterations:   cfg.GetInt(config.ConfigHardIterations),
		Exploration:      cfg.GetFloat64(config.ConfigExplorationConstant),
		MinimaxDepth:     cfg.GetInt(config.ConfigMinimaxDepth),
		ExactTimeout:     cfg.GetDuration(config.ConfigExactTimeout),
	}
}

// Selector dispatches a decision to the algorithm of the requested tier.
// The impossible tier asks the exact adapter and answers with the hard
// tier when that fails. A Selector is used by one game at a time.
type Selector struct {
	choosers     map[Tier]Chooser
	exact        *cache.Adapter
	exactTimeout time.Duration
	metrics      *Metrics
}

// NewSelector builds a selector. exact and metrics may be nil.
func NewSelector(opts Options, exact *cache.Adapter, metrics *Metrics) *Selector {
	return &Selector{
		choosers: map[Tier]Chooser{
			TierEasy:    &montecarlo.RolloutSampler{Iterations: opts.EasyIterations},
			TierMedium:  &montecarlo.RolloutSampler{Iterations: opts.MediumIterations},
			TierHard:    mcts.New(opts.HardIterations, opts.Exploration),
			TierMinimax: minimax.New(opts.MinimaxDepth),
		},
		exact:        exact,
		exactTimeout: opts.ExactTimeout,
		metrics:      metrics,
	}
}

// SetChooser replaces the algorithm behind a non-exact tier.
func (s *Selector) SetChooser(t Tier, c Chooser) {
	s.choosers[t] = c
}

// Exact returns the exact adapter, which may be nil.
func (s *Selector) Exact() *cache.Adapter { return s.exact }

// ChooseMove returns the column for mover on b at the given tier.
func (s *Selector) ChooseMove(ctx context.Context, b *board.Board, tier Tier, mover board.Piece, rng *rand.Rand) (int, error) {
	ts := time.Now()
	col, err := s.choose(ctx, b, tier, mover, rng)
	if err != nil {
		return -1, err
	}
	s.metrics.decided(tier, time.Since(ts).Seconds())
	zerolog.Ctx(ctx).Debug().Str("tier", string(tier)).Int("col", col).
		Dur("took", time.Since(ts)).Msg("move-chosen")
	return col, nil
}

func (s *Selector) choose(ctx context.Context, b *board.Board, tier Tier, mover board.Piece, rng *rand.Rand) (int, error) {
	if tier == TierImpossible {
		col, err := s.exactMove(ctx, b, mover)
		if err == nil {
			return col, nil
		}
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}
		s.metrics.fellBack()
		zerolog.Ctx(ctx).Warn().Err(err).Msg("exact-fallback")
		tier = TierHard
	}
	c, ok := s.choosers[tier]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	return c.ChooseMove(ctx, b, mover, rng)
}

// ExactMove answers from the cache and exact backend only, without any
// fallback.
func (s *Selector) ExactMove(ctx context.Context, b *board.Board, mover board.Piece) (int, error) {
	return s.exactMove(ctx, b, mover)
}

func (s *Selector) exactMove(ctx context.Context, b *board.Board, mover board.Piece) (int, error) {
	if s.exact == nil {
		return -1, ErrNoExactBackend
	}
	if mover != s.exact.Piece {
		return -1, fmt.Errorf("%w: asked for %v, cache holds %v", ErrWrongPiece, mover, s.exact.Piece)
	}
	if s.exactTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.exactTimeout)
		defer cancel()
	}
	return s.exact.BestColumn(ctx, b)
}
