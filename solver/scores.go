package solver

import (
	"context"
	"errors"
	"slices"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

// InvalidScore marks a column that cannot be played.
const InvalidScore = -1000

var (
	ErrUnsupportedDimensions = errors.New("board dimensions not supported by solver")
	ErrTerminalPosition      = errors.New("position is already decided")
	ErrMalformedScores       = errors.New("malformed score vector")
	ErrNoLegalColumn         = errors.New("no legal column")
	ErrBadRequest            = errors.New("malformed solver request")
)

// ScoreVector holds one score per column, from the point of view of the
// side to move. Positive scores win, larger is sooner; negative scores
// lose; zero draws. Entries for illegal columns are not meaningful.
type ScoreVector []int

// Reversed returns the vector with the column order flipped, which is the
// score vector of the mirrored board.
func (s ScoreVector) Reversed() ScoreVector {
	r := slices.Clone(s)
	slices.Reverse(r)
	return r
}

// Best returns the legal column with the highest score; ties go to the
// lowest column.
func (s ScoreVector) Best(b *board.Board) (int, error) {
	if len(s) != b.Cols() {
		return -1, ErrMalformedScores
	}
	best := -1
	for col, v := range s {
		if !b.IsLegalColumn(col) {
			continue
		}
		if best == -1 || v > s[best] {
			best = col
		}
	}
	if best == -1 {
		return -1, ErrNoLegalColumn
	}
	return best, nil
}

// Backend produces exact column scores for mover on b.
type Backend interface {
	Analyze(ctx context.Context, b *board.Board, mover board.Piece) (ScoreVector, error)
}

// Func adapts a plain function to Backend.
type Func func(ctx context.Context, b *board.Board, mover board.Piece) (ScoreVector, error)

func (f Func) Analyze(ctx context.Context, b *board.Board, mover board.Piece) (ScoreVector, error) {
	return f(ctx, b, mover)
}
