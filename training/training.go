// Package training fills the position cache ahead of time. It plays the
// exact tier against every opponent column sequence of a fixed length,
// with either side moving first, and checkpoints the cache as it goes.
package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/cache"
	"github.com/CPSCourse-TUM-HN/connecTUM/config"
)

var ErrNoExactAdapter = errors.New("training needs an exact adapter")

// Sequence is one enumerated opponent line.
type Sequence struct {
	Index         int
	OpponentFirst bool
	Cols          []int
}

// Outcome is how a sequence ended.
type Outcome int

const (
	// Exhausted means the opponent ran out of columns with the game open.
	Exhausted Outcome = iota
	// IllegalColumn means the opponent's next column was full.
	IllegalColumn
	EngineWon
	OpponentWon
	Draw
)

type Trainer struct {
	Adapter *cache.Adapter
	Store   cache.Store

	Rows, Cols, WindowLength int
	// Depth is the number of opponent moves per sequence.
	Depth           int
	Threads         int
	CheckpointEvery int

	flushMu sync.Mutex
}

// NewTrainer reads the training parameters from cfg.
func NewTrainer(cfg *config.Config, adapter *cache.Adapter, store cache.Store) *Trainer {
	return &Trainer{
		Adapter:         adapter,
		Store:           store,
		Rows:            cfg.GetInt(config.ConfigRows),
		Cols:            cfg.GetInt(config.ConfigCols),
		WindowLength:    cfg.GetInt(config.ConfigWindowLength),
		Depth:           cfg.GetInt(config.ConfigTrainingDepth),
		Threads:         cfg.GetInt(config.ConfigTrainingThreads),
		CheckpointEvery: cfg.GetInt(config.ConfigCheckpointEvery),
	}
}

// Summary counts how the sequences of a run ended.
type Summary struct {
	Sequences   int
	Outcomes    map[Outcome]int
	Checkpoints int
	CacheSize   int
}

// NumSequences is the number of sequences Run will play: Cols^Depth for
// each choice of who moves first.
func (t *Trainer) NumSequences() int {
	n := 1
	for i := 0; i < t.Depth; i++ {
		n *= t.Cols
	}
	return 2 * n
}

// sequenceAt decodes the i-th sequence. The engine-moves-second half comes
// first, as the cartesian product in lexicographic order.
func (t *Trainer) sequenceAt(i int) Sequence {
	per := t.NumSequences() / 2
	seq := Sequence{Index: i, OpponentFirst: i < per, Cols: make([]int, t.Depth)}
	rem := i % per
	for d := t.Depth - 1; d >= 0; d-- {
		seq.Cols[d] = rem % t.Cols
		rem /= t.Cols
	}
	return seq
}

// Run plays every sequence. Any exact-backend error stops the run and is
// returned; the cache is checkpointed before returning either way.
func (t *Trainer) Run(ctx context.Context) (*Summary, error) {
	if t.Adapter == nil {
		return nil, ErrNoExactAdapter
	}
	logger := zerolog.Ctx(ctx)
	total := t.NumSequences()
	threads := max(t.Threads, 1)
	every := max(t.CheckpointEvery, 1)
	logger.Info().Int("sequences", total).Int("depth", t.Depth).Int("threads", threads).
		Int("cached", t.Adapter.Cache.Len()).Msg("training-start")

	var done, checkpoints atomic.Int64
	outcomes := make([][]Outcome, threads)
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < total; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < threads; w++ {
		g.Go(func() error {
			for i := range jobs {
				seq := t.sequenceAt(i)
				out, err := t.play(gctx, seq)
				if err != nil {
					return fmt.Errorf("sequence %d %v: %w", seq.Index, seq.Cols, err)
				}
				outcomes[w] = append(outcomes[w], out)
				n := done.Add(1)
				if n%int64(every) == 0 {
					if err := t.checkpoint(gctx); err != nil {
						return err
					}
					checkpoints.Add(1)
					logger.Info().Int64("done", n).Int("total", total).
						Int("cached", t.Adapter.Cache.Len()).Msg("training-checkpoint")
				}
			}
			return nil
		})
	}
	runErr := g.Wait()
	if err := t.checkpoint(context.WithoutCancel(ctx)); err != nil {
		runErr = errors.Join(runErr, err)
	} else {
		checkpoints.Add(1)
	}

	all := lo.Flatten(outcomes)
	summary := &Summary{
		Sequences:   len(all),
		Outcomes:    lo.CountValues(all),
		Checkpoints: int(checkpoints.Load()),
		CacheSize:   t.Adapter.Cache.Len(),
	}
	if runErr != nil {
		logger.Error().Err(runErr).Int("done", summary.Sequences).Msg("training-stopped")
		return summary, runErr
	}
	logger.Info().Int("sequences", summary.Sequences).Int("cached", summary.CacheSize).Msg("training-done")
	return summary, nil
}

func (t *Trainer) checkpoint(ctx context.Context) error {
	if t.Store == nil {
		return nil
	}
	t.flushMu.Lock()
	defer t.flushMu.Unlock()
	return cache.Flush(ctx, t.Store, t.Adapter.Cache)
}

// play runs one sequence. The opponent's columns are taken in order; the
// engine answers every opponent move with its exact choice.
func (t *Trainer) play(ctx context.Context, seq Sequence) (Outcome, error) {
	b := board.New(t.Rows, t.Cols, t.WindowLength)
	engine := t.Adapter.Piece
	opponent := engine.Opponent()

	opponentMove := func(col int) (Outcome, bool) {
		if !b.IsLegalColumn(col) {
			return IllegalColumn, true
		}
		row, _ := b.Drop(col, opponent)
		if b.ConnectsAt(row, col) {
			return OpponentWon, true
		}
		if b.IsFull() {
			return Draw, true
		}
		return Exhausted, false
	}

	for _, col := range seq.Cols {
		if err := ctx.Err(); err != nil {
			return Exhausted, err
		}
		if seq.OpponentFirst {
			if out, over := opponentMove(col); over {
				return out, nil
			}
		}
		ecol, err := t.Adapter.BestColumn(ctx, b)
		if err != nil {
			return Exhausted, err
		}
		row, err := b.Drop(ecol, engine)
		if err != nil {
			return Exhausted, err
		}
		if b.ConnectsAt(row, ecol) {
			return EngineWon, nil
		}
		if b.IsFull() {
			return Draw, nil
		}
		if !seq.OpponentFirst {
			if out, over := opponentMove(col); over {
				return out, nil
			}
		}
	}
	return Exhausted, nil
}
