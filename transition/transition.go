// Package transition reconciles a known board with a grid reported by an
// outside observer (for example a camera), inferring at most one new move.
package transition

import (
	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

// Reason says why an observation was accepted or rejected. Rejections are
// the normal answer while nothing has changed yet; they are not errors.
type Reason int

const (
	Accepted Reason = iota
	DimensionMismatch
	UnknownCellValue
	GravityViolation
	CountMismatch
	MultipleChanges
	UnsupportedCell
)

func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case DimensionMismatch:
		return "dimension-mismatch"
	case UnknownCellValue:
		return "unknown-cell-value"
	case GravityViolation:
		return "gravity-violation"
	case CountMismatch:
		return "count-mismatch"
	case MultipleChanges:
		return "multiple-changes"
	case UnsupportedCell:
		return "unsupported-cell"
	}
	return "unknown"
}

// Result is the outcome of one validation.
type Result struct {
	Col    int
	Row    int
	Piece  board.Piece
	Reason Reason
}

func (r Result) OK() bool { return r.Reason == Accepted }

func reject(r Reason) Result {
	return Result{Col: -1, Row: -1, Reason: r}
}

// Validate checks, in order: the observed grid has the board's dimensions
// and only known cell values, obeys gravity, holds exactly one more piece
// than prev, differs from prev in exactly one cell, and that cell rests on
// the bottom row or on another piece.
func Validate(prev *board.Board, observed board.Grid) Result {
	if len(observed) != prev.Rows() {
		return reject(DimensionMismatch)
	}
	for _, row := range observed {
		if len(row) != prev.Cols() {
			return reject(DimensionMismatch)
		}
	}
	obs, err := board.FromGrid(observed, prev.WindowLength())
	if err != nil {
		return reject(UnknownCellValue)
	}
	if !obs.IsGravityConsistent() {
		return reject(GravityViolation)
	}
	if obs.PieceCount() != prev.PieceCount()+1 {
		return reject(CountMismatch)
	}
	var changed []board.Cell
	for r := 0; r < prev.Rows(); r++ {
		for c := 0; c < prev.Cols(); c++ {
			if obs.At(r, c) != prev.At(r, c) {
				changed = append(changed, board.Cell{Row: r, Col: c})
			}
		}
	}
	if len(changed) != 1 {
		return reject(MultipleChanges)
	}
	cell := changed[0]
	if cell.Row > 0 && obs.At(cell.Row-1, cell.Col) == board.Empty {
		return reject(UnsupportedCell)
	}
	return Result{
		Col:    cell.Col,
		Row:    cell.Row,
		Piece:  obs.At(cell.Row, cell.Col),
		Reason: Accepted,
	}
}

// ValidateObservedMove returns the column of the single new move seen in
// observed, or false if no move can be inferred yet.
func ValidateObservedMove(prev *board.Board, observed board.Grid) (int, bool) {
	res := Validate(prev, observed)
	if !res.OK() {
		log.Debug().Str("reason", res.Reason.String()).Msg("observation-rejected")
		return -1, false
	}
	return res.Col, true
}
