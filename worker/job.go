package worker

import (
	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

// Command is a request to the game worker. Commands are values; the worker
// never shares state with the caller.
type Command interface {
	kind() string
}

// NewGame discards the current game and starts another.
type NewGame struct {
	First board.Piece
	Tier  strategy.Tier
}

// PlayColumn plays the opponent's move in a column.
type PlayColumn struct {
	Col int
}

// Observe plays the opponent's move inferred from an observed grid.
type Observe struct {
	Grid board.Grid
}

// EngineMove asks the engine to choose and play its move.
type EngineMove struct{}

// SetTier changes the engine tier for the rest of the game.
type SetTier struct {
	Tier strategy.Tier
}

// Snapshot returns the current state without changing it.
type Snapshot struct{}

func (NewGame) kind() string    { return "new-game" }
func (PlayColumn) kind() string { return "play-column" }
func (Observe) kind() string    { return "observe" }
func (EngineMove) kind() string { return "engine-move" }
func (SetTier) kind() string    { return "set-tier" }
func (Snapshot) kind() string   { return "snapshot" }

// Event is the worker's answer to one command.
type Event struct {
	ID string
	// Col is the column played by the command, or -1.
	Col int
	// Grid is a copy of the board after the command.
	Grid       board.Grid
	OnTurn     board.Piece
	Over       bool
	Winner     board.Piece
	FinalScore int
	Tier       strategy.Tier
	// Reason is set when an observation was rejected.
	Reason string
	Err    error
}
