package board

import "fmt"

// Piece is the content of one cell. The numeric values are part of the
// persisted canonical keys and must not change.
type Piece uint8

const (
	Empty Piece = iota
	PieceA
	PieceB
)

func (p Piece) Valid() bool {
	return p == PieceA || p == PieceB
}

// Opponent returns the other player's piece. Empty has no opponent.
func (p Piece) Opponent() Piece {
	switch p {
	case PieceA:
		return PieceB
	case PieceB:
		return PieceA
	}
	return Empty
}

func (p Piece) String() string {
	switch p {
	case Empty:
		return "."
	case PieceA:
		return "X"
	case PieceB:
		return "O"
	}
	return fmt.Sprintf("?%d", uint8(p))
}

// Cell addresses one board cell. Row 0 is the bottom row.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Grid is a row-major view of a board, Grid[row][col], row 0 at the bottom.
type Grid [][]Piece

// Key is the canonical text encoding of a board: one digit per cell in
// row-major order.
type Key string
