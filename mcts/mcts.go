// Package mcts implements Monte-Carlo Tree Search with UCB1 selection and
// uniformly random rollouts.
//
// Each node keeps a "parent win" total: the playouts through it that were
// won by the side that moved into it, minus those won by the side to move
// there. Selecting the child with the best parent-win rate is then always
// right from the parent's point of view.
//
// A tree is built for one decision and thrown away afterwards.
package mcts

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rs/zerolog"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

const (
	DefaultExploration = 1.414
	DefaultIterations  = 1000
)

var ErrNoLegalMove = errors.New("no legal move")

type node struct {
	board  *board.Board
	toMove board.Piece
	col    int
	// winner is set when the move into this node won the game.
	winner board.Piece

	parent   *node
	children []*node

	visits     int
	parentWins int
}

func (n *node) terminal() bool {
	return n.winner != board.Empty || n.board.IsFull()
}

// Searcher runs a fixed number of MCTS iterations per decision.
type Searcher struct {
	Iterations  int
	Exploration float64

	nodes int
}

func New(iterations int, exploration float64) *Searcher {
	return &Searcher{Iterations: iterations, Exploration: exploration}
}

// ChooseMove searches from b with mover to play and returns the most
// visited root child (the robust child).
func (s *Searcher) ChooseMove(ctx context.Context, b *board.Board, mover board.Piece, rng *rand.Rand) (int, error) {
	logger := zerolog.Ctx(ctx)
	if len(b.LegalColumns()) == 0 {
		return -1, ErrNoLegalMove
	}
	s.nodes = 0
	root := &node{board: b.Copy(), toMove: mover, col: -1}
	scratch := &board.Board{}
	iters := max(s.Iterations, 1)
	for i := 0; i < iters; i++ {
		if i%64 == 0 && ctx.Err() != nil {
			return -1, ctx.Err()
		}
		leaf := s.selectLeaf(root)
		child := s.expand(leaf, rng)
		winner := s.simulate(child, scratch, rng)
		backpropagate(child, winner)
	}
	best := robustChild(root)
	if best == nil {
		return -1, ErrNoLegalMove
	}
	logger.Debug().Int("col", best.col).Int("visits", best.visits).
		Int("parent-wins", best.parentWins).Int("nodes", s.nodes).Msg("mcts-choice")
	return best.col, nil
}

func (s *Searcher) ucb(n *node) float64 {
	if n.visits == 0 {
		return math.Inf(1)
	}
	exploit := float64(n.parentWins) / float64(n.visits)
	explore := math.Sqrt(math.Log(float64(n.parent.visits)) / float64(n.visits))
	return exploit + s.Exploration*explore
}

// selectLeaf walks down by highest UCB1 until a node without children.
func (s *Searcher) selectLeaf(n *node) *node {
	for len(n.children) > 0 {
		best := n.children[0]
		bestVal := s.ucb(best)
		for _, c := range n.children[1:] {
			if v := s.ucb(c); v > bestVal {
				best, bestVal = c, v
			}
		}
		n = best
	}
	return n
}

// centerOrder lists the legal columns nearest the middle first.
func centerOrder(b *board.Board) []int {
	cols := b.LegalColumns()
	mid := b.Cols() / 2
	sort.SliceStable(cols, func(i, j int) bool {
		return abs(cols[i]-mid) < abs(cols[j]-mid)
	})
	return cols
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// expand adds the children of n and returns the one to simulate from. A
// child that wins on the spot becomes the only child.
func (s *Searcher) expand(n *node, rng *rand.Rand) *node {
	if n.terminal() {
		return n
	}
	cols := centerOrder(n.board)
	children := make([]*node, 0, len(cols))
	for _, col := range cols {
		nb := n.board.Copy()
		row, err := nb.Drop(col, n.toMove)
		if err != nil {
			continue
		}
		s.nodes++
		child := &node{board: nb, toMove: n.toMove.Opponent(), col: col, parent: n}
		if nb.ConnectsAt(row, col) {
			child.winner = n.toMove
			n.children = []*node{child}
			return child
		}
		children = append(children, child)
	}
	n.children = children
	return children[rng.IntN(len(children))]
}

// simulate plays random moves from n and returns the winner, or Empty for
// a draw.
func (s *Searcher) simulate(n *node, scratch *board.Board, rng *rand.Rand) board.Piece {
	if n.winner != board.Empty {
		return n.winner
	}
	scratch.CopyFrom(n.board)
	toMove := n.toMove
	cols := make([]int, 0, scratch.Cols())
	for {
		cols = cols[:0]
		for c := 0; c < scratch.Cols(); c++ {
			if scratch.IsLegalColumn(c) {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			return board.Empty
		}
		col := cols[rng.IntN(len(cols))]
		row, _ := scratch.Drop(col, toMove)
		if scratch.ConnectsAt(row, col) {
			return toMove
		}
		toMove = toMove.Opponent()
	}
}

func backpropagate(n *node, winner board.Piece) {
	for ; n != nil; n = n.parent {
		n.visits++
		switch winner {
		case n.toMove.Opponent():
			n.parentWins++
		case n.toMove:
			n.parentWins--
		}
	}
}

func robustChild(root *node) *node {
	var best *node
	for _, c := range root.children {
		if best == nil || c.visits > best.visits {
			best = c
		}
	}
	return best
}
