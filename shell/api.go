package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/game"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) dispatch(ctx context.Context, cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "new":
		return sc.newGame(ctx, cmd)
	case "play", "p":
		return sc.play(ctx, cmd)
	case "observe", "o":
		return sc.observe(ctx, cmd)
	case "tier":
		return sc.setTier(cmd)
	case "scores":
		return sc.scores(ctx)
	case "show", "s":
		return sc.show()
	case "save":
		return sc.save(cmd)
	case "load":
		return sc.load(ctx, cmd)
	case "help":
		return sc.help(cmd)
	case "exit", "bye":
		return nil, errQuit
	}
	log.Debug().Msgf("you said: %v", strconv.Quote(cmd.cmd))
	return nil, fmt.Errorf("unknown command %q; try `help`", cmd.cmd)
}

func (sc *ShellController) requireGame() error {
	if sc.game == nil {
		return errNoGame
	}
	return nil
}

// newGame starts a game. The opponent moves first unless -first engine is
// given; an engine that moves first answers immediately.
func (sc *ShellController) newGame(ctx context.Context, cmd *shellcmd) (*Response, error) {
	tier := sc.tier
	if t, ok := cmd.options["tier"]; ok {
		var err error
		if tier, err = strategy.ParseTier(t); err != nil {
			return nil, err
		}
	}
	piece := sc.engine.Piece()
	first := piece.Opponent()
	switch strings.ToLower(cmd.options["first"]) {
	case "", "opponent", "player", "me":
	case "engine", "bot":
		first = piece
	default:
		return nil, fmt.Errorf("-first must be engine or opponent, not %q", cmd.options["first"])
	}
	if sc.game != nil && sc.game.Playing() != game.GameOver {
		sc.finishGame(ctx)
	}
	rows, cols, wl := sc.engine.Dimensions()
	sc.tier = tier
	sc.game = game.NewGame(rows, cols, wl, piece, first, string(tier))
	return sc.afterOpponent(ctx, fmt.Sprintf("New game %s. You play %v, the engine plays %v.",
		sc.game.Uid(), piece.Opponent(), piece))
}

func (sc *ShellController) play(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: play <column>")
	}
	col, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, fmt.Errorf("column must be a number: %w", err)
	}
	if err := sc.opponentCanMove(); err != nil {
		return nil, err
	}
	if _, err := sc.game.PlayColumn(col); err != nil {
		return nil, err
	}
	return sc.afterOpponent(ctx, fmt.Sprintf("You played column %d.", col))
}

// observe takes the whole board, one row per argument, top row first.
func (sc *ShellController) observe(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if err := sc.opponentCanMove(); err != nil {
		return nil, err
	}
	b, err := board.FromDiagram(sc.game.Board().WindowLength(), cmd.args...)
	if err != nil {
		return nil, err
	}
	col, reason, err := sc.game.PlayObserved(b.Grid())
	if errors.Is(err, game.ErrRejectedObserved) {
		return nil, fmt.Errorf("observation rejected (%v); the board was not changed", reason)
	}
	if err != nil {
		return nil, err
	}
	return sc.afterOpponent(ctx, fmt.Sprintf("Observed a move in column %d.", col))
}

func (sc *ShellController) opponentCanMove() error {
	if sc.game.Playing() == game.GameOver {
		return game.ErrGameOver
	}
	if sc.game.EngineOnTurn() {
		return errors.New("it is the engine's turn")
	}
	return nil
}

// afterOpponent lets the engine answer if it is on turn, then shows the
// game.
func (sc *ShellController) afterOpponent(ctx context.Context, prefix string) (*Response, error) {
	lines := []string{prefix}
	if sc.game.Playing() != game.GameOver && sc.game.EngineOnTurn() {
		col, err := sc.engine.ChooseMove(ctx, sc.game.Board(), sc.tier, sc.rng)
		if err != nil {
			return nil, err
		}
		if _, err := sc.game.PlayColumn(col); err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("Engine (%s) plays column %d.", sc.tier, col))
	}
	if sc.game.Playing() == game.GameOver {
		if err := sc.engine.OnGameEnd(ctx, sc.game.Board(), sc.game.Winner()); err != nil {
			log.Err(err).Msg("game-end")
		}
	}
	lines = append(lines, sc.game.ToDisplayText())
	return msg(strings.Join(lines, "\n")), nil
}

func (sc *ShellController) setTier(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(fmt.Sprintf("tier: %s (available: %v)", sc.tier, strategy.Tiers)), nil
	}
	t, err := strategy.ParseTier(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.tier = t
	if sc.game != nil {
		sc.game.SetTier(string(t))
	}
	return msg("tier set to " + string(t)), nil
}

// scores shows the exact score of every column for the engine's piece.
func (sc *ShellController) scores(ctx context.Context) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	exact := sc.engine.Selector().Exact()
	if exact == nil {
		return nil, strategy.ErrNoExactBackend
	}
	b := sc.game.Board()
	v, err := exact.Scores(ctx, b)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Exact scores for %v:\n", exact.Piece)
	for c, s := range v {
		if !b.IsLegalColumn(c) || s == solver.InvalidScore {
			fmt.Fprintf(&sb, "  %d: -\n", c)
			continue
		}
		fmt.Fprintf(&sb, "  %d: %d\n", c, s)
	}
	if best, err := v.Best(b); err == nil {
		fmt.Fprintf(&sb, "Best column: %d\n", best)
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) show() (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	return msg(sc.game.ToDisplayText() + "Moves: " + fmtCols(sc.game.History().Columns())), nil
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: save <path>")
	}
	f, err := os.Create(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if err := sc.game.History().WriteTranscript(f); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return msg("saved to " + cmd.args[0]), nil
}

// load replays a saved transcript. Its tier becomes the current tier.
func (sc *ShellController) load(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: load <path>")
	}
	f, err := os.Open(cmd.args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := game.ReadTranscript(f)
	if err != nil {
		return nil, err
	}
	if h.EnginePiece != sc.engine.Piece() {
		return nil, fmt.Errorf("transcript has the engine as %v, this engine plays %v", h.EnginePiece, sc.engine.Piece())
	}
	rows, cols, wl := sc.engine.Dimensions()
	if h.Rows != rows || h.Cols != cols || h.WindowLength != wl {
		return nil, fmt.Errorf("transcript is for a %dx%d board (window %d)", h.Rows, h.Cols, h.WindowLength)
	}
	g, err := game.NewFromHistory(h)
	if err != nil {
		return nil, err
	}
	if t, err := strategy.ParseTier(h.Tier); err == nil {
		sc.tier = t
	}
	sc.game = g
	if g.EngineOnTurn() {
		return sc.afterOpponent(ctx, "Loaded "+cmd.args[0]+".")
	}
	return sc.show()
}
