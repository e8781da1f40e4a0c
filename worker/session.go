package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/game"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

// Session feeds a worker from a stream of observed boards, the way a
// camera process reports what it sees. Every input line is one board,
// rows top first separated by spaces, in the '.', 'X', 'O' notation.
// A line reading "new" starts a fresh game; '#' starts a comment.
//
// Replies are one per line:
//
//	engine <col>             the engine's answer to an accepted move
//	ok <col>                 an accepted move that leaves the opponent on turn
//	rejected <reason>        the board is not a legal successor yet
//	over <winner> <score>    the game ended; a new one starts
//	error <message>          anything else, including a timed-out reply
type Session struct {
	worker *GameWorker
	out    io.Writer
	first  board.Piece
	tier   strategy.Tier
}

// NewSession plays games on w where first moves first at the given tier.
func NewSession(w *GameWorker, out io.Writer, first board.Piece, tier strategy.Tier) *Session {
	return &Session{worker: w, out: out, first: first, tier: tier}
}

// Run reads observations until r is exhausted or ctx is done. The worker
// must already be running.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	if err := s.newGame(ctx); err != nil {
		return err
	}
	_, _, wl := s.worker.engine.Dimensions()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "new" {
			if err := s.newGame(ctx); err != nil {
				return err
			}
			continue
		}
		b, err := board.FromDiagram(wl, strings.Fields(line)...)
		if err != nil {
			s.reply("error %v", err)
			continue
		}
		if err := s.observe(ctx, b.Grid()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Session) reply(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// fatal reports whether err should end the session rather than be printed.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, ErrStopped)
}

// newGame starts a game and, when the engine moves first, plays and prints
// its move; the next observation must already contain it.
func (s *Session) newGame(ctx context.Context) error {
	ev, err := s.worker.Do(ctx, NewGame{First: s.first, Tier: s.tier})
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Stringer("first", ev.OnTurn).Str("tier", string(ev.Tier)).Msg("session-new-game")
	if ev.OnTurn != s.worker.engine.Piece() {
		return nil
	}
	ev, err = s.worker.Do(ctx, EngineMove{})
	if err != nil {
		return err
	}
	s.reply("engine %d", ev.Col)
	return nil
}

func (s *Session) observe(ctx context.Context, grid board.Grid) error {
	ev, err := s.worker.Do(ctx, Observe{Grid: grid})
	switch {
	case errors.Is(err, game.ErrRejectedObserved):
		s.reply("rejected %s", ev.Reason)
		return nil
	case err != nil && fatal(ctx, err):
		return err
	case err != nil:
		s.reply("error %v", err)
		return nil
	}
	if ev.Over {
		return s.gameOver(ctx, ev)
	}
	if ev.OnTurn != s.worker.engine.Piece() {
		s.reply("ok %d", ev.Col)
		return nil
	}
	ev, err = s.worker.Do(ctx, EngineMove{})
	if err != nil {
		if fatal(ctx, err) {
			return err
		}
		s.reply("error %v", err)
		return nil
	}
	s.reply("engine %d", ev.Col)
	if ev.Over {
		return s.gameOver(ctx, ev)
	}
	return nil
}

func (s *Session) gameOver(ctx context.Context, ev Event) error {
	winner := "none"
	if ev.Winner.Valid() {
		winner = ev.Winner.String()
	}
	s.reply("over %s %d", winner, ev.FinalScore)
	return s.newGame(ctx)
}
