package montecarlo

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func immediateWinBoard() *board.Board {
	return board.MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		"OO.....",
		"XXX...O",
	)
}

func midgameBoard() *board.Board {
	return board.MustFromDiagram(
		".......",
		".......",
		"...O...",
		"..XX...",
		"..OXO..",
		".XOOXX.",
	)
}

func TestImmediateWin(t *testing.T) {
	is := is.New(t)
	for _, iters := range []int{0, 100, 1000} {
		s := &RolloutSampler{Iterations: iters}
		col, err := s.ChooseMove(context.Background(), immediateWinBoard(), board.PieceA, rand.New(rand.NewPCG(1, 2)))
		is.NoErr(err)
		is.Equal(col, 3)
	}
}

func TestSingleLegalColumn(t *testing.T) {
	is := is.New(t)
	b := board.MustFromDiagram(
		"XOXO.XO",
		"OXOXXOX",
		"XOXOOXO",
		"OXOXXOX",
		"XOXOOXO",
		"OXOXXOX",
	)
	s := &RolloutSampler{Iterations: 100}
	col, err := s.ChooseMove(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(1, 2)))
	is.NoErr(err)
	is.Equal(col, 4)
}

func TestFullBoard(t *testing.T) {
	is := is.New(t)
	b := board.New(2, 2, 2)
	_, _ = b.Drop(0, board.PieceA)
	_, _ = b.Drop(1, board.PieceB)
	_, _ = b.Drop(0, board.PieceB)
	_, _ = b.Drop(1, board.PieceA)
	_, err := (&RolloutSampler{Iterations: 10}).ChooseMove(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(1, 2)))
	is.True(errors.Is(err, ErrNoLegalMove))
}

func TestSeededDeterminism(t *testing.T) {
	is := is.New(t)
	for _, threads := range []int{1, 3} {
		s := &RolloutSampler{Iterations: 500, Threads: threads}
		first, err := s.ChooseMove(context.Background(), midgameBoard(), board.PieceA, rand.New(rand.NewPCG(99, 7)))
		is.NoErr(err)
		for i := 0; i < 3; i++ {
			col, err := s.ChooseMove(context.Background(), midgameBoard(), board.PieceA, rand.New(rand.NewPCG(99, 7)))
			is.NoErr(err)
			is.Equal(col, first)
		}
		is.True(midgameBoard().IsLegalColumn(first))
	}
}

func TestSamplerLeavesBoardAlone(t *testing.T) {
	is := is.New(t)
	b := midgameBoard()
	before := b.CanonicalKey()
	_, err := (&RolloutSampler{Iterations: 200}).ChooseMove(context.Background(), b, board.PieceB, rand.New(rand.NewPCG(5, 5)))
	is.NoErr(err)
	is.Equal(b.CanonicalKey(), before)
}

func TestBestCandidateSkipsUnvisited(t *testing.T) {
	is := is.New(t)
	a := &Candidate{Col: 0}
	b := &Candidate{Col: 1}
	c := &Candidate{Col: 2}
	d := &Candidate{Col: 3}
	b.stats.Push(LossResult)
	c.stats.Push(DrawResult)
	d.stats.Push(DrawResult)
	// a has no visits; an average of 0/0 must not win.
	best := bestCandidate([]*Candidate{a, b, c, d})
	is.Equal(best.Col, 2)

	is.True(bestCandidate([]*Candidate{{Col: 4}, {Col: 5}}) == nil)
}

func TestZeroIterationsPlaysLowestColumn(t *testing.T) {
	is := is.New(t)
	s := &RolloutSampler{Iterations: 0}
	col, err := s.ChooseMove(context.Background(), midgameBoard(), board.PieceA, rand.New(rand.NewPCG(1, 1)))
	is.NoErr(err)
	is.Equal(col, 0)
}

func TestCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&RolloutSampler{Iterations: 1000}).ChooseMove(ctx, midgameBoard(), board.PieceA, rand.New(rand.NewPCG(1, 1)))
	is.True(errors.Is(err, context.Canceled))
}
