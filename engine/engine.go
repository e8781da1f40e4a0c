// Package engine is the decision core as seen by a game: it owns the
// position cache, its store and the tier selector, and exposes move choice,
// observation checks and end-of-game bookkeeping.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/kballard/go-shellquote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/cache"
	"github.com/CPSCourse-TUM-HN/connecTUM/config"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
	"github.com/CPSCourse-TUM-HN/connecTUM/transition"
)

var ErrClosed = errors.New("engine is closed")

type Engine struct {
	cfg   *config.Config
	piece board.Piece

	rows, cols, windowLength int

	cache    *cache.PositionCache
	store    cache.Store
	selector *strategy.Selector
	closed   bool
}

type options struct {
	backend solver.Backend
	store   cache.Store
	reg     prometheus.Registerer
}

type Option func(*options)

// WithBackend overrides the exact backend chosen from the configuration.
func WithBackend(b solver.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithStore overrides the cache store chosen from the configuration.
func WithStore(s cache.Store) Option {
	return func(o *options) { o.store = s }
}

// WithRegisterer registers the engine metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// New builds an engine from cfg and loads the position cache. A store that
// cannot be read leaves the cache empty.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	e := &Engine{
		cfg:          cfg,
		piece:        board.Piece(cfg.GetInt(config.ConfigEnginePiece)),
		rows:         cfg.GetInt(config.ConfigRows),
		cols:         cfg.GetInt(config.ConfigCols),
		windowLength: cfg.GetInt(config.ConfigWindowLength),
		cache:        cache.New(),
		store:        o.store,
	}
	if e.store == nil {
		s, err := cache.OpenStore(cfg.GetString(config.ConfigCacheStore), cfg.GetString(config.ConfigCachePath))
		if err != nil {
			return nil, err
		}
		e.store = s
	}
	cache.LoadOrEmpty(ctx, e.store, e.cache)

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = BackendFromConfig(cfg)
		if err != nil {
			e.store.Close()
			return nil, err
		}
	}
	adapter := &cache.Adapter{
		Cache:   e.cache,
		Backend: backend,
		Piece:   e.piece,
		Metrics: cache.NewMetrics(o.reg),
	}
	e.selector = strategy.NewSelector(strategy.OptionsFromConfig(cfg), adapter, strategy.NewMetrics(o.reg))
	log.Info().Stringer("piece", e.piece).Int("rows", e.rows).Int("cols", e.cols).
		Int("cached", e.cache.Len()).Msg("engine-ready")
	return e, nil
}

// BackendFromConfig returns the external solver command when one is
// configured, and the built-in solver otherwise.
func BackendFromConfig(cfg *config.Config) (solver.Backend, error) {
	command := cfg.GetString(config.ConfigSolverCommand)
	if command == "" {
		return solver.New(solver.WithMemoryFraction(cfg.GetFloat64(config.ConfigSolverTTFraction))), nil
	}
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", config.ConfigSolverCommand, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty %s", config.ErrInvalidConfig, config.ConfigSolverCommand)
	}
	return solver.NewCommandBackend(words[0], words[1:]...), nil
}

func (e *Engine) Piece() board.Piece               { return e.piece }
func (e *Engine) Config() *config.Config           { return e.cfg }
func (e *Engine) Cache() *cache.PositionCache      { return e.cache }
func (e *Engine) Store() cache.Store               { return e.store }
func (e *Engine) Selector() *strategy.Selector     { return e.selector }
func (e *Engine) NewBoard() *board.Board           { return board.New(e.rows, e.cols, e.windowLength) }
func (e *Engine) Dimensions() (rows, cols, wl int) { return e.rows, e.cols, e.windowLength }

// ChooseMove returns the engine's column on b at the given tier. b is not
// modified.
func (e *Engine) ChooseMove(ctx context.Context, b *board.Board, tier strategy.Tier, rng *rand.Rand) (int, error) {
	if e.closed {
		return -1, ErrClosed
	}
	return e.selector.ChooseMove(ctx, b, tier, e.piece, rng)
}

// ValidateObservedMove returns the column of the single new piece in
// observed, or false when observed is not a legal successor of prev.
func (e *Engine) ValidateObservedMove(prev *board.Board, observed board.Grid) (int, bool) {
	return transition.ValidateObservedMove(prev, observed)
}

// OnGameEnd records the result and writes the cache back to its store.
func (e *Engine) OnGameEnd(ctx context.Context, b *board.Board, winner board.Piece) error {
	if e.closed {
		return ErrClosed
	}
	ev := log.Info().Int("moves", b.PieceCount()).Int("cached", e.cache.Len())
	switch winner {
	case board.Empty:
		ev.Str("result", "draw")
	case e.piece:
		ev.Str("result", "engine-won")
	default:
		ev.Str("result", "engine-lost")
	}
	ev.Msg("game-over")
	return e.Flush(ctx)
}

// Flush writes the cache to the store.
func (e *Engine) Flush(ctx context.Context) error {
	return cache.Flush(ctx, e.store, e.cache)
}

// Close flushes the cache and releases the store.
func (e *Engine) Close(ctx context.Context) error {
	if e.closed {
		return nil
	}
	e.closed = true
	return errors.Join(cache.Flush(ctx, e.store, e.cache), e.store.Close())
}
