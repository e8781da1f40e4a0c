package solver

import (
	"fmt"
	"math/bits"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

// geometry holds the masks for a width x height bitboard. Each column uses
// height+1 bits, bottom first; the spare top bit keeps shifts from
// spilling into the neighbouring column:
//
//	  6 13 20 27 34 41 48
//	| 5 12 19 26 33 40 47 |
//	| 4 11 18 25 32 39 46 |
//	| 3 10 17 24 31 38 45 |
//	| 2  9 16 23 30 37 44 |
//	| 1  8 15 22 29 36 43 |
//	| 0  7 14 21 28 35 42 |
type geometry struct {
	width, height int
	bottom        uint64
	boardMask     uint64
	columnOrder   []int
}

func newGeometry(width, height int) (*geometry, error) {
	if width < 1 || height < 1 || (height+1)*width > 64 {
		return nil, fmt.Errorf("%w: %dx%d", ErrUnsupportedDimensions, height, width)
	}
	g := &geometry{width: width, height: height}
	for c := 0; c < width; c++ {
		g.bottom |= g.bottomMaskCol(c)
		g.boardMask |= g.columnMask(c)
	}
	g.columnOrder = make([]int, width)
	for i := range g.columnOrder {
		g.columnOrder[i] = width/2 + (1-2*(i%2))*(i+1)/2
	}
	return g, nil
}

func (g *geometry) topMaskCol(col int) uint64 {
	return uint64(1) << (g.height - 1 + col*(g.height+1))
}

func (g *geometry) bottomMaskCol(col int) uint64 {
	return uint64(1) << (col * (g.height + 1))
}

func (g *geometry) columnMask(col int) uint64 {
	return ((uint64(1) << g.height) - 1) << (col * (g.height + 1))
}

// Position is a bitboard: current holds the stones of the side to move,
// mask all stones. It is small and copied by value during search.
type Position struct {
	current uint64
	mask    uint64
	moves   int
}

// fromBoard builds the position with mover to play. Gravity must hold.
func (g *geometry) fromBoard(b *board.Board, mover board.Piece) Position {
	var p Position
	for c := 0; c < b.Cols(); c++ {
		for r := 0; r < b.Rows(); r++ {
			piece := b.At(r, c)
			if piece == board.Empty {
				continue
			}
			bit := uint64(1) << (r + c*(g.height+1))
			p.mask |= bit
			if piece == mover {
				p.current |= bit
			}
			p.moves++
		}
	}
	return p
}

func (g *geometry) canPlay(p *Position, col int) bool {
	return p.mask&g.topMaskCol(col) == 0
}

func (g *geometry) play(p *Position, move uint64) {
	p.current ^= p.mask
	p.mask |= move
	p.moves++
}

func (g *geometry) playCol(p *Position, col int) {
	g.play(p, (p.mask+g.bottomMaskCol(col))&g.columnMask(col))
}

func (g *geometry) isWinningMove(p *Position, col int) bool {
	return g.winningPosition(p)&g.possible(p)&g.columnMask(col) != 0
}

func (g *geometry) canWinNext(p *Position) bool {
	return g.winningPosition(p)&g.possible(p) != 0
}

func (g *geometry) possible(p *Position) uint64 {
	return (p.mask + g.bottom) & g.boardMask
}

func (g *geometry) winningPosition(p *Position) uint64 {
	return g.computeWinningPosition(p.current, p.mask)
}

func (g *geometry) opponentWinningPosition(p *Position) uint64 {
	return g.computeWinningPosition(p.current^p.mask, p.mask)
}

// possibleNonLosingMoves returns the playable cells that do not hand the
// opponent an immediate win. Zero means every move loses.
func (g *geometry) possibleNonLosingMoves(p *Position) uint64 {
	possibleMask := g.possible(p)
	opponentWin := g.opponentWinningPosition(p)
	forced := possibleMask & opponentWin
	if forced != 0 {
		if forced&(forced-1) != 0 {
			// two threats at once.
			return 0
		}
		possibleMask = forced
	}
	return possibleMask &^ (opponentWin >> 1)
}

// computeWinningPosition marks every empty cell that would complete four in
// a row for the stones in position.
func (g *geometry) computeWinningPosition(position, mask uint64) uint64 {
	h := uint(g.height)
	// vertical
	r := (position << 1) & (position << 2) & (position << 3)

	for _, shift := range [3]uint{h + 1, h, h + 2} {
		p := (position << shift) & (position << (2 * shift))
		r |= p & (position << (3 * shift))
		r |= p & (position >> shift)
		p = (position >> shift) & (position >> (2 * shift))
		r |= p & (position << shift)
		r |= p & (position >> (3 * shift))
	}
	return r & (g.boardMask ^ mask)
}

// moveScore counts the winning cells a move would create.
func (g *geometry) moveScore(p *Position, move uint64) int {
	return bits.OnesCount64(g.computeWinningPosition(p.current|move, p.mask))
}

func (p *Position) key() uint64 {
	return p.current + p.mask
}
