package mcts

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestImmediateWin(t *testing.T) {
	is := is.New(t)
	b := board.MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		"OO.....",
		"XXX...O",
	)
	for _, iters := range []int{1, 100, DefaultIterations} {
		s := New(iters, DefaultExploration)
		col, err := s.ChooseMove(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(3, 4)))
		is.NoErr(err)
		is.Equal(col, 3)
	}
}

func TestBlocksThreat(t *testing.T) {
	is := is.New(t)
	b := board.MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		"X......",
		"OOO..XX",
	)
	s := New(2000, DefaultExploration)
	col, err := s.ChooseMove(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(11, 12)))
	is.NoErr(err)
	is.Equal(col, 3)
}

func TestSeededDeterminism(t *testing.T) {
	is := is.New(t)
	b := board.MustFromDiagram(
		".......",
		".......",
		"...O...",
		"..XX...",
		"..OXO..",
		".XOOXX.",
	)
	s := New(500, DefaultExploration)
	first, err := s.ChooseMove(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(8, 8)))
	is.NoErr(err)
	for i := 0; i < 3; i++ {
		col, err := s.ChooseMove(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(8, 8)))
		is.NoErr(err)
		is.Equal(col, first)
	}
	is.True(b.IsLegalColumn(first))
}

func TestNoLegalMove(t *testing.T) {
	is := is.New(t)
	b := board.New(2, 2, 2)
	_, _ = b.Drop(0, board.PieceA)
	_, _ = b.Drop(1, board.PieceB)
	_, _ = b.Drop(0, board.PieceB)
	_, _ = b.Drop(1, board.PieceA)
	_, err := New(10, DefaultExploration).ChooseMove(context.Background(), b, board.PieceA, rand.New(rand.NewPCG(1, 1)))
	is.True(errors.Is(err, ErrNoLegalMove))
}

func TestCenterOrder(t *testing.T) {
	is := is.New(t)
	is.Equal(centerOrder(board.NewStandard()), []int{3, 2, 4, 1, 5, 0, 6})
}

func TestBackpropagateSigns(t *testing.T) {
	is := is.New(t)
	root := &node{board: board.NewStandard(), toMove: board.PieceA}
	child := &node{board: board.NewStandard(), toMove: board.PieceB, parent: root}
	backpropagate(child, board.PieceA)
	is.Equal(child.visits, 1)
	is.Equal(child.parentWins, 1)
	is.Equal(root.visits, 1)
	is.Equal(root.parentWins, -1)

	backpropagate(child, board.Empty)
	is.Equal(child.parentWins, 1)
	is.Equal(child.visits, 2)
}

func TestUnvisitedChildSelectedFirst(t *testing.T) {
	is := is.New(t)
	s := New(0, DefaultExploration)
	root := &node{board: board.NewStandard(), toMove: board.PieceA, visits: 10}
	a := &node{parent: root, visits: 5, parentWins: 5, col: 0}
	b := &node{parent: root, col: 1}
	c := &node{parent: root, col: 2}
	root.children = []*node{a, b, c}
	is.Equal(s.selectLeaf(root), b)
}

func TestCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(100, DefaultExploration).ChooseMove(ctx, board.NewStandard(), board.PieceA, rand.New(rand.NewPCG(1, 1)))
	is.True(errors.Is(err, context.Canceled))
}
