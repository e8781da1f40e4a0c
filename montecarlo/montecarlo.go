// Package montecarlo implements flat monte-carlo move selection: every
// candidate column is scored by the average result of random playouts
// that start with it.
package montecarlo

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/stats"
)

/*
	How to sample:

	If only one column is legal, play it.
	For each legal column, drop our piece; an immediate win is played at once.
	For iteration in iterations:
		pick a candidate at random
		play random moves, opponent first, until someone wins or the board
		is full
		score the playout: win +1, loss -10, draw 0
	Play the candidate with the best average.
*/

const (
	WinResult  = 1
	LossResult = -10
	DrawResult = 0
)

var ErrNoLegalMove = errors.New("no legal move")

// Candidate is one first move and its playout statistics.
type Candidate struct {
	Col   int
	board *board.Board
	stats stats.Statistic
}

func (c *Candidate) Visits() int      { return c.stats.Iterations() }
func (c *Candidate) Average() float64 { return c.stats.Mean() }

// RolloutSampler picks moves from random playout statistics.
type RolloutSampler struct {
	Iterations int
	// Threads splits the iterations over this many goroutines, each with
	// its own generator derived from the caller's. Zero means one.
	Threads int

	nodeCount atomic.Uint64
}

// ChooseMove returns the column for mover on b.
func (s *RolloutSampler) ChooseMove(ctx context.Context, b *board.Board, mover board.Piece, rng *rand.Rand) (int, error) {
	logger := zerolog.Ctx(ctx)
	legal := b.LegalColumns()
	switch len(legal) {
	case 0:
		return -1, ErrNoLegalMove
	case 1:
		return legal[0], nil
	}
	cands := make([]*Candidate, 0, len(legal))
	for _, col := range legal {
		nb := b.Copy()
		row, err := nb.Drop(col, mover)
		if err != nil {
			return -1, err
		}
		if nb.ConnectsAt(row, col) {
			return col, nil
		}
		cands = append(cands, &Candidate{Col: col, board: nb})
	}

	threads := max(s.Threads, 1)
	if threads == 1 {
		if err := s.sample(ctx, cands, s.Iterations, mover, rng); err != nil {
			return -1, err
		}
	} else if err := s.sampleParallel(ctx, cands, threads, mover, rng); err != nil {
		return -1, err
	}

	best := bestCandidate(cands)
	if best == nil {
		logger.Warn().Int("iterations", s.Iterations).Msg("no-candidate-visited-playing-lowest-column")
		return legal[0], nil
	}
	logger.Debug().Int("col", best.Col).Float64("avg", best.Average()).
		Int("visits", best.Visits()).Uint64("nodes", s.nodeCount.Load()).Msg("rollout-choice")
	return best.Col, nil
}

func (s *RolloutSampler) sampleParallel(ctx context.Context, cands []*Candidate, threads int,
	mover board.Piece, rng *rand.Rand) error {

	per := make([][]*Candidate, threads)
	rngs := make([]*rand.Rand, threads)
	for t := range per {
		per[t] = make([]*Candidate, len(cands))
		for i, c := range cands {
			per[t][i] = &Candidate{Col: c.Col, board: c.board}
		}
		rngs[t] = rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
	}
	g := errgroup.Group{}
	for t := 0; t < threads; t++ {
		n := s.Iterations / threads
		if t < s.Iterations%threads {
			n++
		}
		g.Go(func() error {
			return s.sample(ctx, per[t], n, mover, rngs[t])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for t := range per {
		for i, c := range per[t] {
			cands[i].stats.Merge(&c.stats)
		}
	}
	return nil
}

func (s *RolloutSampler) sample(ctx context.Context, cands []*Candidate, iterations int,
	mover board.Piece, rng *rand.Rand) error {

	scratch := &board.Board{}
	for i := 0; i < iterations; i++ {
		if i%64 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		c := cands[rng.IntN(len(cands))]
		scratch.CopyFrom(c.board)
		winner := s.playout(scratch, mover.Opponent(), rng)
		switch winner {
		case mover:
			c.stats.Push(WinResult)
		case board.Empty:
			c.stats.Push(DrawResult)
		default:
			c.stats.Push(LossResult)
		}
	}
	return nil
}

// playout plays uniformly random moves on b, toMove first, and returns the
// winner or Empty on a draw. b is modified.
func (s *RolloutSampler) playout(b *board.Board, toMove board.Piece, rng *rand.Rand) board.Piece {
	cols := make([]int, 0, b.Cols())
	for {
		cols = cols[:0]
		for c := 0; c < b.Cols(); c++ {
			if b.IsLegalColumn(c) {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			return board.Empty
		}
		col := cols[rng.IntN(len(cols))]
		row, _ := b.Drop(col, toMove)
		s.nodeCount.Add(1)
		if b.ConnectsAt(row, col) {
			return toMove
		}
		toMove = toMove.Opponent()
	}
}

// bestCandidate returns the visited candidate with the highest average,
// the first in column order on ties, or nil if none was visited.
func bestCandidate(cands []*Candidate) *Candidate {
	var best *Candidate
	for _, c := range cands {
		if c.Visits() == 0 {
			continue
		}
		if best == nil || c.Average() > best.Average() {
			best = c
		}
	}
	return best
}
