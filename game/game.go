// Package game runs one game between the engine and an opponent: turn
// order, move application, the winner and the final score. A Game doesn't
// care how moves are chosen; the engine and the players live outside it.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/transition"
)

type PlayState int

const (
	Playing PlayState = iota
	GameOver
)

func (p PlayState) String() string {
	if p == GameOver {
		return "game over"
	}
	return "playing"
}

var (
	ErrGameOver         = errors.New("game is over")
	ErrRejectedObserved = errors.New("observed board is not a legal successor")
)

// Game holds the board and the bookkeeping of a single game.
type Game struct {
	uid         string
	board       *board.Board
	enginePiece board.Piece
	first       board.Piece
	onturn      board.Piece
	playing     PlayState
	winner      board.Piece
	tier        string
	history     *History
}

// NewGame starts an empty game. first is the piece that moves first.
func NewGame(rows, cols, windowLength int, enginePiece, first board.Piece, tier string) *Game {
	g := &Game{
		uid:         uuid.NewString(),
		board:       board.New(rows, cols, windowLength),
		enginePiece: enginePiece,
		first:       first,
		onturn:      first,
		tier:        tier,
	}
	g.history = &History{
		ID:           g.uid,
		Rows:         rows,
		Cols:         cols,
		WindowLength: windowLength,
		EnginePiece:  enginePiece,
		First:        first,
		Tier:         tier,
		Started:      time.Now().UTC(),
	}
	log.Debug().Str("uid", g.uid).Stringer("first", first).Str("tier", tier).Msg("new-game")
	return g
}

// PlayColumn drops the piece on turn into col, records the turn and
// switches sides. It reports whether the game is over.
func (g *Game) PlayColumn(col int) (bool, error) {
	return g.play(col, false)
}

// PlayObserved infers the move from an observed grid and plays it. A
// rejected observation leaves the game untouched and returns the reason
// with ErrRejectedObserved.
func (g *Game) PlayObserved(observed board.Grid) (int, transition.Reason, error) {
	if g.playing == GameOver {
		return -1, transition.Accepted, ErrGameOver
	}
	res := transition.Validate(g.board, observed)
	if !res.OK() {
		return -1, res.Reason, ErrRejectedObserved
	}
	if res.Piece != g.onturn {
		log.Debug().Stringer("observed", res.Piece).Stringer("onturn", g.onturn).Msg("observed-piece-not-on-turn")
	}
	if _, err := g.play(res.Col, true); err != nil {
		return -1, transition.Accepted, err
	}
	return res.Col, transition.Accepted, nil
}

func (g *Game) play(col int, observed bool) (bool, error) {
	if g.playing == GameOver {
		return true, ErrGameOver
	}
	row, err := g.board.Drop(col, g.onturn)
	if err != nil {
		return false, fmt.Errorf("turn %d: %w", len(g.history.Turns)+1, err)
	}
	g.history.Turns = append(g.history.Turns, Turn{
		Number:   len(g.history.Turns) + 1,
		Piece:    g.onturn,
		Col:      col,
		Row:      row,
		Observed: observed,
	})
	switch {
	case g.board.ConnectsAt(row, col):
		g.board.RecordWin(g.onturn)
		g.endGame(g.onturn)
	case g.board.IsFull():
		g.endGame(board.Empty)
	default:
		g.onturn = g.onturn.Opponent()
	}
	return g.playing == GameOver, nil
}

func (g *Game) endGame(winner board.Piece) {
	g.playing = GameOver
	g.winner = winner
	g.history.Winner = winner
	g.history.FinalScore = g.FinalScore()
	log.Debug().Str("uid", g.uid).Stringer("winner", winner).
		Int("moves", g.board.PieceCount()).Msg("game-ended")
}

// FinalScore rates the game from the opponent's side: losing to the engine
// quickly scores little, holding out or winning scores more.
func (g *Game) FinalScore() int {
	moves := g.board.PieceCount()
	if g.winner == g.enginePiece {
		return moves * 10
	}
	return (2*g.board.Rows()*g.board.Cols() - moves) * 10
}

func (g *Game) Uid() string              { return g.uid }
func (g *Game) Board() *board.Board      { return g.board }
func (g *Game) Playing() PlayState       { return g.playing }
func (g *Game) Winner() board.Piece      { return g.winner }
func (g *Game) OnTurn() board.Piece      { return g.onturn }
func (g *Game) EnginePiece() board.Piece { return g.enginePiece }
func (g *Game) Tier() string             { return g.tier }
func (g *Game) History() *History        { return g.history }
func (g *Game) Turn() int                { return len(g.history.Turns) }
func (g *Game) EngineOnTurn() bool       { return g.playing == Playing && g.onturn == g.enginePiece }

func (g *Game) SetTier(tier string) {
	g.tier = tier
	g.history.Tier = tier
}

// NewFromHistory replays h into a new game. h usually comes from a
// transcript file, so nothing in it is trusted.
func NewFromHistory(h *History) (*Game, error) {
	if err := board.CheckDimensions(h.Rows, h.Cols, h.WindowLength); err != nil {
		return nil, fmt.Errorf("transcript %s: %w", h.ID, err)
	}
	if !h.EnginePiece.Valid() || !h.First.Valid() {
		return nil, fmt.Errorf("transcript %s: %w: engine %d, first %d", h.ID, board.ErrInvalidPiece, h.EnginePiece, h.First)
	}
	g := NewGame(h.Rows, h.Cols, h.WindowLength, h.EnginePiece, h.First, h.Tier)
	g.uid = h.ID
	g.history.ID = h.ID
	g.history.Started = h.Started
	for _, t := range h.Turns {
		if g.onturn != t.Piece {
			return nil, fmt.Errorf("turn %d: expected %v to move, history has %v", t.Number, g.onturn, t.Piece)
		}
		if _, err := g.play(t.Col, t.Observed); err != nil {
			return nil, err
		}
	}
	return g, nil
}
