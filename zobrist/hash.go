package zobrist

import (
	"lukechampine.com/frand"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

const bignum = 1<<63 - 2

// generate a zobrist hash for a connection-game position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	secondToMove uint64

	posTable [][2]uint64
	cols     int
}

func (z *Zobrist) Initialize(rows, cols int) {
	z.cols = cols
	z.posTable = make([][2]uint64, rows*cols)
	for i := range z.posTable {
		for j := 0; j < 2; j++ {
			z.posTable[i][j] = frand.Uint64n(bignum) + 1
		}
	}
	z.secondToMove = frand.Uint64n(bignum) + 1
}

// Hash computes the key of a position from scratch. toMove is the side about
// to play; PieceB to move is folded in as a separate component.
func (z *Zobrist) Hash(b *board.Board, toMove board.Piece) uint64 {
	key := uint64(0)
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			p := b.At(r, c)
			if p == board.Empty {
				continue
			}
			key ^= z.posTable[r*z.cols+c][p-1]
		}
	}
	if toMove == board.PieceB {
		key ^= z.secondToMove
	}
	return key
}

// AddMove updates key for piece placed (or removed) at row, col. Moves
// always alternate, so the side to move flips too. Calling it twice with
// the same arguments restores the original key.
func (z *Zobrist) AddMove(key uint64, row, col int, piece board.Piece) uint64 {
	key ^= z.posTable[row*z.cols+col][piece-1]
	key ^= z.secondToMove
	return key
}
