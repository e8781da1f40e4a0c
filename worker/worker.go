// Package worker runs a game and its engine in an isolated goroutine. The
// caller sends typed commands and polls a mailbox for the replies.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/game"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
	"github.com/CPSCourse-TUM-HN/connecTUM/transition"
)

var (
	ErrTimeout    = errors.New("timed out waiting for the worker")
	ErrNoGame     = errors.New("no game in progress")
	ErrNotOnTurn  = errors.New("not on turn")
	ErrStopped    = errors.New("worker stopped")
	ErrBadCommand = errors.New("unknown command")
)

// Engine is what the worker needs from the decision core.
type Engine interface {
	ChooseMove(ctx context.Context, b *board.Board, tier strategy.Tier, rng *rand.Rand) (int, error)
	OnGameEnd(ctx context.Context, b *board.Board, winner board.Piece) error
	Piece() board.Piece
	Dimensions() (rows, cols, wl int)
}

type envelope struct {
	id  string
	cmd Command
}

// GameWorker owns one game at a time. Only its Run goroutine touches the
// game and the engine.
type GameWorker struct {
	config *WorkerConfig
	engine Engine
	rng    *rand.Rand

	game     *game.Game
	commands chan envelope
	done     chan struct{}

	mu      sync.Mutex
	mailbox map[string]Event
	// ids whose Await gave up; their replies are dropped on arrival.
	abandoned map[string]struct{}
}

// NewGameWorker creates a worker. rng is used only by the worker goroutine.
func NewGameWorker(cfg *WorkerConfig, e Engine, rng *rand.Rand) *GameWorker {
	cfg = cfg.withDefaults()
	return &GameWorker{
		config:    cfg,
		engine:    e,
		rng:       rng,
		commands:  make(chan envelope, cfg.QueueSize),
		done:      make(chan struct{}),
		mailbox:   make(map[string]Event),
		abandoned: make(map[string]struct{}),
	}
}

// Run processes commands until ctx is done.
func (w *GameWorker) Run(ctx context.Context) error {
	log.Info().
		Dur("poll-interval", w.config.PollInterval).
		Dur("max-wait", w.config.MaxWait).
		Msg("starting game worker")
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			return ctx.Err()

		case env := <-w.commands:
			ev := w.process(ctx, env.cmd)
			ev.ID = env.id
			if ev.Err != nil {
				log.Debug().Err(ev.Err).Str("cmd", env.cmd.kind()).Msg("command failed")
			}
			w.deliver(ev)
		}
	}
}

// Submit queues cmd and returns the id its reply will carry.
func (w *GameWorker) Submit(ctx context.Context, cmd Command) (string, error) {
	select {
	case <-w.done:
		return "", ErrStopped
	default:
	}
	id := uuid.NewString()
	select {
	case w.commands <- envelope{id: id, cmd: cmd}:
		return id, nil
	case <-w.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (w *GameWorker) deliver(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.abandoned[ev.ID]; ok {
		delete(w.abandoned, ev.ID)
		log.Debug().Str("id", ev.ID).Msg("dropping-late-reply")
		return
	}
	w.mailbox[ev.ID] = ev
}

// abandon forgets the reply for id, whether or not it has arrived.
func (w *GameWorker) abandon(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.mailbox[id]; ok {
		delete(w.mailbox, id)
		return
	}
	w.abandoned[id] = struct{}{}
}

func (w *GameWorker) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.mailbox) + len(w.abandoned)
}

// Poll takes the reply for id out of the mailbox, if it has arrived.
func (w *GameWorker) Poll(id string) (Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ev, ok := w.mailbox[id]
	if ok {
		delete(w.mailbox, id)
	}
	return ev, ok
}

func (w *GameWorker) process(ctx context.Context, cmd Command) Event {
	switch c := cmd.(type) {
	case NewGame:
		return w.newGame(c)
	case PlayColumn:
		return w.opponentMove(ctx, func(g *game.Game) (int, error) {
			_, err := g.PlayColumn(c.Col)
			return c.Col, err
		})
	case Observe:
		var reason transition.Reason
		ev := w.opponentMove(ctx, func(g *game.Game) (int, error) {
			col, r, err := g.PlayObserved(c.Grid)
			reason = r
			return col, err
		})
		if errors.Is(ev.Err, game.ErrRejectedObserved) {
			ev.Reason = reason.String()
		}
		return ev
	case EngineMove:
		return w.engineMove(ctx)
	case SetTier:
		if w.game == nil {
			return w.fail(ErrNoGame)
		}
		w.game.SetTier(string(c.Tier))
		return w.snapshot(-1)
	case Snapshot:
		if w.game == nil {
			return w.fail(ErrNoGame)
		}
		return w.snapshot(-1)
	}
	return w.fail(fmt.Errorf("%w: %T", ErrBadCommand, cmd))
}

func (w *GameWorker) newGame(c NewGame) Event {
	rows, cols, wl := w.engine.Dimensions()
	first := c.First
	if !first.Valid() {
		first = board.PieceA
	}
	tier := c.Tier
	if tier == "" {
		tier = strategy.TierHard
	}
	w.game = game.NewGame(rows, cols, wl, w.engine.Piece(), first, string(tier))
	log.Info().Str("uid", w.game.Uid()).Str("tier", string(tier)).Msg("worker-new-game")
	return w.snapshot(-1)
}

func (w *GameWorker) opponentMove(ctx context.Context, play func(*game.Game) (int, error)) Event {
	if w.game == nil {
		return w.fail(ErrNoGame)
	}
	if w.game.Playing() == game.GameOver {
		return w.fail(game.ErrGameOver)
	}
	if w.game.EngineOnTurn() {
		return w.fail(fmt.Errorf("%w: waiting for the engine", ErrNotOnTurn))
	}
	col, err := play(w.game)
	if err != nil {
		ev := w.snapshot(-1)
		ev.Err = err
		return ev
	}
	w.afterMove(ctx)
	return w.snapshot(col)
}

func (w *GameWorker) engineMove(ctx context.Context) Event {
	if w.game == nil {
		return w.fail(ErrNoGame)
	}
	if w.game.Playing() == game.GameOver {
		return w.fail(game.ErrGameOver)
	}
	if !w.game.EngineOnTurn() {
		return w.fail(fmt.Errorf("%w: waiting for the opponent", ErrNotOnTurn))
	}
	col, err := w.engine.ChooseMove(ctx, w.game.Board(), strategy.Tier(w.game.Tier()), w.rng)
	if err != nil {
		return w.fail(err)
	}
	if _, err := w.game.PlayColumn(col); err != nil {
		return w.fail(err)
	}
	w.afterMove(ctx)
	return w.snapshot(col)
}

func (w *GameWorker) afterMove(ctx context.Context) {
	if w.game.Playing() != game.GameOver {
		return
	}
	if err := w.engine.OnGameEnd(ctx, w.game.Board(), w.game.Winner()); err != nil {
		log.Err(err).Str("uid", w.game.Uid()).Msg("game-end-bookkeeping-failed")
	}
}

func (w *GameWorker) snapshot(col int) Event {
	g := w.game
	return Event{
		Col:        col,
		Grid:       g.Board().Grid(),
		OnTurn:     g.OnTurn(),
		Over:       g.Playing() == game.GameOver,
		Winner:     g.Winner(),
		FinalScore: g.FinalScore(),
		Tier:       strategy.Tier(g.Tier()),
	}
}

func (w *GameWorker) fail(err error) Event {
	return Event{Col: -1, Err: err}
}
