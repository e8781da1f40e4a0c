package board

const (
	scoreWindowComplete = 100
	scoreOneShort       = 5
	scoreTwoShort       = 2
)

// HeuristicScore rates the board from piece's point of view. Every window
// contributes according to how many of piece and of Empty it holds; pieces
// in the middle column add WindowLength-1 each. Opponent pieces only matter
// by keeping a window from scoring.
func (b *Board) HeuristicScore(piece Piece) int {
	score := 0
	mid := b.cols / 2
	for r := 0; r < b.rows; r++ {
		if b.At(r, mid) == piece {
			score += b.windowLength - 1
		}
	}
	for _, w := range b.windows {
		score += b.evaluateWindow(w, piece)
	}
	return score
}

func (b *Board) evaluateWindow(w []int, piece Piece) int {
	var own, empty int
	for _, idx := range w {
		switch b.cells[idx] {
		case piece:
			own++
		case Empty:
			empty++
		}
	}
	wl := b.windowLength
	switch {
	case own == wl:
		return scoreWindowComplete
	case wl > 2 && own == wl-1 && empty == 1:
		return scoreOneShort
	case wl > 3 && own == wl-2 && empty == 2:
		return scoreTwoShort
	}
	return 0
}
