package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/cache"
	"github.com/CPSCourse-TUM-HN/connecTUM/config"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func stubBackend(calls *atomic.Int64) solver.Backend {
	return solver.Func(func(ctx context.Context, b *board.Board, mover board.Piece) (solver.ScoreVector, error) {
		calls.Add(1)
		return solver.ScoreVector{-2, -1, 0, 1, 0, -1, -2}, nil
	})
}

func TestExactMovesPersistAcrossEngines(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lookup_table.json")
	cfg := config.DefaultConfig()

	var calls atomic.Int64
	e, err := New(ctx, cfg, WithStore(cache.NewJSONStore(path)), WithBackend(stubBackend(&calls)))
	is.NoErr(err)
	b := e.NewBoard()
	col, err := e.ChooseMove(ctx, b, strategy.TierImpossible, rand.New(rand.NewPCG(1, 1)))
	is.NoErr(err)
	is.Equal(col, 3)
	is.Equal(calls.Load(), int64(1))
	is.NoErr(e.OnGameEnd(ctx, b, board.Empty))
	is.NoErr(e.Close(ctx))

	e2, err := New(ctx, cfg, WithStore(cache.NewJSONStore(path)), WithBackend(stubBackend(&calls)))
	is.NoErr(err)
	is.Equal(e2.Cache().Len(), 1)
	col, err = e2.ChooseMove(ctx, e2.NewBoard(), strategy.TierImpossible, rand.New(rand.NewPCG(1, 1)))
	is.NoErr(err)
	is.Equal(col, 3)
	is.Equal(calls.Load(), int64(1))
	is.NoErr(e2.Close(ctx))
}

func TestValidateObservedMove(t *testing.T) {
	is := is.New(t)
	e, err := New(context.Background(), config.DefaultConfig(), WithStore(mustStore(t)))
	is.NoErr(err)
	prev := e.NewBoard()
	next := prev.Copy()
	_, err = next.Drop(5, board.PieceB)
	is.NoErr(err)
	col, ok := e.ValidateObservedMove(prev, next.Grid())
	is.True(ok)
	is.Equal(col, 5)

	_, ok = e.ValidateObservedMove(prev, prev.Grid())
	is.True(!ok)
}

func TestClosedEngine(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	e, err := New(ctx, config.DefaultConfig(), WithStore(mustStore(t)))
	is.NoErr(err)
	is.NoErr(e.Close(ctx))
	is.NoErr(e.Close(ctx))
	_, err = e.ChooseMove(ctx, e.NewBoard(), strategy.TierEasy, rand.New(rand.NewPCG(1, 1)))
	is.True(errors.Is(err, ErrClosed))
	is.True(errors.Is(e.OnGameEnd(ctx, e.NewBoard(), board.PieceA), ErrClosed))
}

func TestInvalidConfig(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigEnginePiece, 3)
	_, err := New(context.Background(), cfg)
	is.True(errors.Is(err, config.ErrInvalidConfig))

	cfg = config.DefaultConfig()
	cfg.Set(config.ConfigCacheStore, "floppy")
	_, err = New(context.Background(), cfg)
	is.True(errors.Is(err, cache.ErrUnknownStore))
}

func TestBackendFromConfig(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	be, err := BackendFromConfig(cfg)
	is.NoErr(err)
	_, ok := be.(*solver.Solver)
	is.True(ok)

	cfg.Set(config.ConfigSolverCommand, `sh -c 'echo 0 0 0 1 0 0 0'`)
	be, err = BackendFromConfig(cfg)
	is.NoErr(err)
	cb, ok := be.(*solver.CommandBackend)
	is.True(ok)
	is.Equal(cb.Path, "sh")
	is.Equal(cb.Args, []string{"-c", "echo 0 0 0 1 0 0 0"})

	cfg.Set(config.ConfigSolverCommand, `sh -c 'unterminated`)
	_, err = BackendFromConfig(cfg)
	is.True(err != nil)
}

func TestSmallBoardEngine(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigRows, 4)
	cfg.Set(config.ConfigCols, 5)
	cfg.Set(config.ConfigEnginePiece, 2)
	cfg.Set(config.ConfigSolverTTFraction, 0.0001)
	e, err := New(context.Background(), cfg, WithStore(mustStore(t)))
	is.NoErr(err)
	rows, cols, wl := e.Dimensions()
	is.Equal([]int{rows, cols, wl}, []int{4, 5, 4})
	is.Equal(e.Piece(), board.PieceB)

	b := e.NewBoard()
	_, _ = b.Drop(2, board.PieceA)
	col, err := e.ChooseMove(context.Background(), b, strategy.TierImpossible, rand.New(rand.NewPCG(1, 1)))
	is.NoErr(err)
	is.True(b.IsLegalColumn(col))
	is.Equal(e.Cache().Len(), 1)
}

func mustStore(t *testing.T) cache.Store {
	t.Helper()
	s, err := cache.OpenStore(cache.StoreNone, "")
	if err != nil {
		t.Fatal(err)
	}
	return s
}
