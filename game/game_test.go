package game

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/transition"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func playAll(t *testing.T, g *Game, cols ...int) bool {
	t.Helper()
	over := false
	for _, c := range cols {
		var err error
		over, err = g.PlayColumn(c)
		if err != nil {
			t.Fatalf("play %d: %v", c, err)
		}
	}
	return over
}

func TestEngineWinScore(t *testing.T) {
	is := is.New(t)
	g := NewGame(6, 7, 4, board.PieceA, board.PieceA, "hard")
	// X plays column 3 four times, O answers in column 0.
	over := playAll(t, g, 3, 0, 3, 0, 3, 0, 3)
	is.True(over)
	is.Equal(g.Playing(), GameOver)
	is.Equal(g.Winner(), board.PieceA)
	is.Equal(g.FinalScore(), 70)
	is.Equal(g.History().FinalScore, 70)
	is.Equal(len(g.Board().WinningCells()), 4)

	_, err := g.PlayColumn(1)
	is.True(errors.Is(err, ErrGameOver))
}

func TestOpponentWinScore(t *testing.T) {
	is := is.New(t)
	g := NewGame(6, 7, 4, board.PieceB, board.PieceA, "easy")
	playAll(t, g, 3, 0, 3, 0, 3, 0, 3)
	is.Equal(g.Winner(), board.PieceA)
	is.Equal(g.FinalScore(), (2*42-7)*10)
}

func TestDraw(t *testing.T) {
	is := is.New(t)
	g := NewGame(2, 3, 3, board.PieceA, board.PieceA, "easy")
	over := playAll(t, g, 0, 1, 2, 0, 1, 2)
	is.True(over)
	is.Equal(g.Winner(), board.Empty)
	is.Equal(g.FinalScore(), (2*6-6)*10)
	is.True(strings.Contains(g.ToDisplayText(), "Draw after 6 moves"))
}

func TestTurnsAlternate(t *testing.T) {
	is := is.New(t)
	g := NewGame(6, 7, 4, board.PieceB, board.PieceA, "medium")
	is.Equal(g.OnTurn(), board.PieceA)
	is.True(!g.EngineOnTurn())
	playAll(t, g, 2)
	is.Equal(g.OnTurn(), board.PieceB)
	is.True(g.EngineOnTurn())
	is.Equal(g.Turn(), 1)

	// an illegal column keeps the turn.
	playAll(t, g, 2, 2, 2, 2, 2)
	_, err := g.PlayColumn(2)
	is.True(errors.Is(err, board.ErrColumnFull))
	is.Equal(g.Turn(), 6)
	is.Equal(g.OnTurn(), board.PieceA)
}

func TestPlayObserved(t *testing.T) {
	is := is.New(t)
	g := NewGame(6, 7, 4, board.PieceB, board.PieceA, "hard")

	// the camera still shows the old board.
	_, reason, err := g.PlayObserved(g.Board().Grid())
	is.True(errors.Is(err, ErrRejectedObserved))
	is.Equal(reason, transition.CountMismatch)
	is.Equal(g.Turn(), 0)

	next := g.Board().Copy()
	_, _ = next.Drop(4, board.PieceA)
	col, reason, err := g.PlayObserved(next.Grid())
	is.NoErr(err)
	is.Equal(reason, transition.Accepted)
	is.Equal(col, 4)
	is.Equal(g.Board().At(0, 4), board.PieceA)
	is.True(g.History().Turns[0].Observed)
}

func TestTranscriptRoundTrip(t *testing.T) {
	is := is.New(t)
	g := NewGame(6, 7, 4, board.PieceA, board.PieceB, "impossible")
	playAll(t, g, 3, 3, 4, 2, 5, 6, 1)

	var buf bytes.Buffer
	is.NoErr(g.History().WriteTranscript(&buf))
	is.True(strings.Contains(buf.String(), "tier: impossible"))

	h, err := ReadTranscript(&buf)
	is.NoErr(err)
	is.Equal(h.ID, g.Uid())
	is.Equal(h.Columns(), []int{3, 3, 4, 2, 5, 6, 1})
	is.True(h.Started.Equal(g.History().Started))

	replayed, err := NewFromHistory(h)
	is.NoErr(err)
	is.True(replayed.Board().Equal(g.Board()))
	is.Equal(replayed.Winner(), g.Winner())
	is.Equal(replayed.Uid(), g.Uid())
}

func TestReplayRejectsWrongOrder(t *testing.T) {
	is := is.New(t)
	h := &History{Rows: 6, Cols: 7, WindowLength: 4, EnginePiece: board.PieceA, First: board.PieceA,
		Turns: []Turn{{Number: 1, Piece: board.PieceB, Col: 0}}}
	_, err := NewFromHistory(h)
	is.True(err != nil)
}

func TestReplayRejectsBadHeader(t *testing.T) {
	for _, h := range []*History{
		{Rows: 0, Cols: 7, WindowLength: 4, EnginePiece: board.PieceA, First: board.PieceA},
		{Rows: 6, Cols: -7, WindowLength: 4, EnginePiece: board.PieceA, First: board.PieceA},
		{Rows: 3, Cols: 3, WindowLength: 4, EnginePiece: board.PieceA, First: board.PieceA},
		{Rows: 6, Cols: 7, WindowLength: 1, EnginePiece: board.PieceA, First: board.PieceA},
	} {
		_, err := NewFromHistory(h)
		if !errors.Is(err, board.ErrBadDimensions) {
			t.Errorf("%dx%d window %d: got %v, want ErrBadDimensions", h.Rows, h.Cols, h.WindowLength, err)
		}
	}

	h := &History{Rows: 6, Cols: 7, WindowLength: 4, EnginePiece: board.Piece(7), First: board.PieceA}
	_, err := NewFromHistory(h)
	is.New(t).True(errors.Is(err, board.ErrInvalidPiece))
}

func TestLoadBadTranscript(t *testing.T) {
	is := is.New(t)
	h, err := ReadTranscript(strings.NewReader("rows: 0\ncols: 7\nwindow_length: 4\nengine_piece: 1\nfirst: 2\n"))
	is.NoErr(err)
	_, err = NewFromHistory(h)
	is.True(errors.Is(err, board.ErrBadDimensions))
}
