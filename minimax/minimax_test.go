package minimax

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

// plainMinimax searches every node without pruning or a table.
func plainMinimax(b *board.Board, row, col, depth int, maxPiece board.Piece, maximizing bool) int {
	if b.ConnectsAt(row, col) {
		if b.At(row, col) == maxPiece {
			return Infinity
		}
		return -Infinity
	}
	if b.IsFull() {
		return 0
	}
	if depth == 0 {
		return b.HeuristicScore(maxPiece)
	}
	toMove := maxPiece
	best := -Infinity - 1
	if !maximizing {
		toMove = maxPiece.Opponent()
		best = Infinity + 1
	}
	for _, c := range b.LegalColumns() {
		r, _ := b.Drop(c, toMove)
		v := plainMinimax(b, r, c, depth-1, maxPiece, !maximizing)
		_ = b.Undo(c)
		if maximizing {
			best = max(best, v)
		} else {
			best = min(best, v)
		}
	}
	return best
}

func plainRootValue(b *board.Board, depth int, mover board.Piece) int {
	best := -Infinity
	for _, c := range b.LegalColumns() {
		r, _ := b.Drop(c, mover)
		best = max(best, plainMinimax(b, r, c, depth-1, mover, false))
		_ = b.Undo(c)
	}
	return best
}

func randomPosition(rng *rand.Rand, moves int) (*board.Board, board.Piece) {
	for {
		b := board.NewStandard()
		toMove := board.PieceA
		ok := true
		for i := 0; i < moves; i++ {
			cols := b.LegalColumns()
			c := cols[rng.IntN(len(cols))]
			r, _ := b.Drop(c, toMove)
			if b.ConnectsAt(r, c) {
				ok = false
				break
			}
			toMove = toMove.Opponent()
		}
		if ok {
			return b, toMove
		}
	}
}

func TestMatchesPlainMinimax(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewPCG(21, 22))
	s := New(4)
	for i := 0; i < 20; i++ {
		b, mover := randomPosition(rng, 8+rng.IntN(12))
		_, v, err := s.Search(context.Background(), b, mover, rng)
		is.NoErr(err)
		is.Equal(v, plainRootValue(b, 4, mover))
	}
}

func TestImmediateWin(t *testing.T) {
	is := is.New(t)
	b := board.MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		"OO.....",
		"XXX...O",
	)
	col, v, err := New(DefaultDepth).Search(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(1, 1)))
	is.NoErr(err)
	is.Equal(col, 3)
	is.Equal(v, Infinity)
}

func TestBlocksThreat(t *testing.T) {
	is := is.New(t)
	b := board.MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		"X......",
		"OOO..XX",
	)
	col, err := New(4).ChooseMove(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(1, 1)))
	is.NoErr(err)
	is.Equal(col, 3)
}

func TestLostPositionStillMoves(t *testing.T) {
	is := is.New(t)
	// O threatens both ends of an open three.
	b := board.MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		"X.X....",
		"X.OOO.X",
	)
	col, v, err := New(2).Search(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(4, 4)))
	is.NoErr(err)
	is.Equal(v, -Infinity)
	is.True(b.IsLegalColumn(col))
}

func TestLeavesBoardAlone(t *testing.T) {
	is := is.New(t)
	b, mover := randomPosition(rand.New(rand.NewPCG(3, 3)), 10)
	before := b.CanonicalKey()
	_, err := New(4).ChooseMove(context.Background(), b, mover, rand.New(rand.NewPCG(3, 3)))
	is.NoErr(err)
	is.Equal(b.CanonicalKey(), before)
}

func TestFinishedPositions(t *testing.T) {
	is := is.New(t)
	won := board.MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		".......",
		"XXXX.OO",
	)
	_, err := New(2).ChooseMove(context.Background(), won, board.PieceB, rand.New(rand.NewPCG(1, 1)))
	is.True(errors.Is(err, ErrGameOver))

	full := board.New(2, 2, 2)
	_, _ = full.Drop(0, board.PieceA)
	_, _ = full.Drop(1, board.PieceB)
	_, _ = full.Drop(0, board.PieceB)
	_, _ = full.Drop(1, board.PieceA)
	_, err = New(2).ChooseMove(context.Background(), full, board.PieceA, rand.New(rand.NewPCG(1, 1)))
	is.True(errors.Is(err, ErrNoLegalMove))
}
