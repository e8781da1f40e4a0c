package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

func TestPlayAndUnplay(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(6, 7)

	b := board.MustFromDiagram(
		".......",
		".......",
		".......",
		"...O...",
		"..XX...",
		".OXOX..",
	)
	h := z.Hash(b, board.PieceB)
	row, err := b.Drop(2, board.PieceB)
	is.NoErr(err)
	h1 := z.AddMove(h, row, 2, board.PieceB)
	// incremental and from-scratch hashes agree.
	is.Equal(h1, z.Hash(b, board.PieceA))
	is.True(h1 != h) // extremely unlikely to collide.

	h2 := z.AddMove(h1, row, 2, board.PieceB)
	is.Equal(h, h2)
}

func TestTranspositionsHashEqual(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(6, 7)

	b1 := board.NewStandard()
	b2 := board.NewStandard()
	for _, m := range []struct {
		col   int
		piece board.Piece
	}{{3, board.PieceA}, {2, board.PieceB}, {4, board.PieceA}} {
		_, _ = b1.Drop(m.col, m.piece)
	}
	for _, m := range []struct {
		col   int
		piece board.Piece
	}{{4, board.PieceA}, {2, board.PieceB}, {3, board.PieceA}} {
		_, _ = b2.Drop(m.col, m.piece)
	}
	is.Equal(z.Hash(b1, board.PieceB), z.Hash(b2, board.PieceB))
	is.True(z.Hash(b1, board.PieceB) != z.Hash(b1, board.PieceA))
}
