package board

import (
	"fmt"
	"strings"
)

// FromDiagram parses a board drawn top row first, one string per row,
// using '.', 'X' (PieceA) and 'O' (PieceB). Spaces and '|' are ignored.
func FromDiagram(windowLength int, lines ...string) (*Board, error) {
	g := make(Grid, len(lines))
	for i, line := range lines {
		r := len(lines) - 1 - i
		for _, ch := range strings.ToUpper(line) {
			switch ch {
			case ' ', '|':
				continue
			case '.':
				g[r] = append(g[r], Empty)
			case 'X':
				g[r] = append(g[r], PieceA)
			case 'O':
				g[r] = append(g[r], PieceB)
			default:
				return nil, fmt.Errorf("%w: %q in diagram", ErrInvalidPiece, ch)
			}
		}
	}
	return FromGrid(g, windowLength)
}

// MustFromDiagram is FromDiagram for fixed boards in tests and examples.
func MustFromDiagram(lines ...string) *Board {
	b, err := FromDiagram(DefaultWindowLength, lines...)
	if err != nil {
		panic(err)
	}
	return b
}
