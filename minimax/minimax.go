// Package minimax implements a depth-limited minimax search with
// alpha-beta pruning over the board's heuristic score.
package minimax

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/rs/zerolog"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/zobrist"
)

// thanks Wikipedia:
/**function alphabeta(node, depth, α, β, maximizingPlayer) is
    if depth = 0 or node is a terminal node then
        return the heuristic value of node
    if maximizingPlayer then
        value := −∞
        for each child of node do
            value := max(value, alphabeta(child, depth − 1, α, β, FALSE))
            α := max(α, value)
            if α ≥ β then
                break (* β cut-off *)
        return value
    else
        value := +∞
        for each child of node do
            value := min(value, alphabeta(child, depth − 1, α, β, TRUE))
            β := min(β, value)
            if α ≥ β then
                break (* α cut-off *)
        return value
**/

const (
	// Infinity is the value of a won position.
	Infinity     = 9999999
	DefaultDepth = 6
)

var (
	ErrNoLegalMove = errors.New("no legal move")
	ErrGameOver    = errors.New("position is already decided")
)

type nodeFlag uint8

const (
	tExact nodeFlag = iota
	tLBound
	tUBound
)

type tentry struct {
	value int
	depth int8
	flag  nodeFlag
}

// Searcher holds the transposition table for one decision. It is not safe
// for concurrent use.
type Searcher struct {
	Depth int

	zobrist    zobrist.Zobrist
	zrows      int
	zcols      int
	ttable     map[uint64]tentry
	maximizing board.Piece
	nodes      int
	ctx        context.Context
	stopped    bool
}

func New(depth int) *Searcher {
	return &Searcher{Depth: depth}
}

func (s *Searcher) Nodes() int { return s.nodes }

// ChooseMove returns the best column for mover.
func (s *Searcher) ChooseMove(ctx context.Context, b *board.Board, mover board.Piece, rng *rand.Rand) (int, error) {
	col, _, err := s.Search(ctx, b, mover, rng)
	return col, err
}

// Search returns the best column for mover and its minimax value from
// mover's point of view. If every column loses, a random one is returned.
func (s *Searcher) Search(ctx context.Context, b *board.Board, mover board.Piece, rng *rand.Rand) (int, int, error) {
	if b.IsTerminal() {
		if b.IsFull() {
			return -1, 0, ErrNoLegalMove
		}
		return -1, 0, ErrGameOver
	}
	if s.zrows != b.Rows() || s.zcols != b.Cols() {
		s.zobrist.Initialize(b.Rows(), b.Cols())
		s.zrows, s.zcols = b.Rows(), b.Cols()
	}
	s.ttable = make(map[uint64]tentry)
	s.maximizing = mover
	s.nodes = 0
	s.ctx = ctx
	s.stopped = false

	pos := b.Copy()
	key := s.zobrist.Hash(pos, mover)
	depth := max(s.Depth, 1)

	cols := orderedColumns(pos)
	bestCol := cols[rng.IntN(len(cols))]
	bestVal := -Infinity
	alpha, beta := -Infinity-1, Infinity+1
	for _, col := range cols {
		row, _ := pos.Drop(col, mover)
		v := s.alphabeta(pos, s.zobrist.AddMove(key, row, col, mover), row, col, depth-1, alpha, beta, false)
		_ = pos.Undo(col)
		if s.stopped {
			return -1, 0, ctx.Err()
		}
		if v > bestVal {
			bestVal, bestCol = v, col
		}
		alpha = max(alpha, bestVal)
	}
	zerolog.Ctx(ctx).Debug().Int("col", bestCol).Int("value", bestVal).
		Int("depth", depth).Int("nodes", s.nodes).Int("tt-size", len(s.ttable)).Msg("minimax-choice")
	return bestCol, bestVal, nil
}

// alphabeta scores pos, reached by a drop at (row, col). The value is
// always from the maximizing side's point of view.
func (s *Searcher) alphabeta(pos *board.Board, key uint64, row, col, depth, alpha, beta int, maximizing bool) int {
	s.nodes++
	if s.nodes%1024 == 0 && s.ctx.Err() != nil {
		s.stopped = true
	}
	if s.stopped {
		return 0
	}
	if pos.ConnectsAt(row, col) {
		if pos.At(row, col) == s.maximizing {
			return Infinity
		}
		return -Infinity
	}
	if pos.IsFull() {
		return 0
	}
	if depth == 0 {
		return pos.HeuristicScore(s.maximizing)
	}

	if e, ok := s.ttable[key]; ok && int(e.depth) == depth {
		switch e.flag {
		case tExact:
			return e.value
		case tLBound:
			alpha = max(alpha, e.value)
		case tUBound:
			beta = min(beta, e.value)
		}
		if alpha >= beta {
			return e.value
		}
	}
	alphaOrig, betaOrig := alpha, beta

	toMove := s.maximizing
	value := -Infinity - 1
	if !maximizing {
		toMove = s.maximizing.Opponent()
		value = Infinity + 1
	}
	for _, c := range orderedColumns(pos) {
		r, _ := pos.Drop(c, toMove)
		v := s.alphabeta(pos, s.zobrist.AddMove(key, r, c, toMove), r, c, depth-1, alpha, beta, !maximizing)
		_ = pos.Undo(c)
		if maximizing {
			value = max(value, v)
			alpha = max(alpha, value)
		} else {
			value = min(value, v)
			beta = min(beta, value)
		}
		if alpha >= beta {
			break
		}
	}
	if s.stopped {
		return 0
	}

	e := tentry{value: value, depth: int8(depth)}
	switch {
	case value <= alphaOrig:
		e.flag = tUBound
	case value >= betaOrig:
		e.flag = tLBound
	default:
		e.flag = tExact
	}
	s.ttable[key] = e
	return value
}

// orderedColumns returns the legal columns nearest the middle first.
func orderedColumns(b *board.Board) []int {
	cols := b.LegalColumns()
	mid := b.Cols() / 2
	sort.SliceStable(cols, func(i, j int) bool {
		return dist(cols[i], mid) < dist(cols[j], mid)
	})
	return cols
}

func dist(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
