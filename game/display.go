package game

import (
	"fmt"
	"strings"
)

// ToDisplayText renders the board with a status line underneath.
func (g *Game) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString(g.board.ToDisplayText())
	sb.WriteString("\n")
	switch {
	case g.playing == GameOver && g.winner.Valid():
		fmt.Fprintf(&sb, "%v wins after %d moves. Final score: %d\n", g.winner, g.Turn(), g.FinalScore())
	case g.playing == GameOver:
		fmt.Fprintf(&sb, "Draw after %d moves. Final score: %d\n", g.Turn(), g.FinalScore())
	case g.EngineOnTurn():
		fmt.Fprintf(&sb, "Turn %d: engine (%v) to move, tier %s\n", g.Turn()+1, g.onturn, g.tier)
	default:
		fmt.Fprintf(&sb, "Turn %d: %v to move\n", g.Turn()+1, g.onturn)
	}
	return sb.String()
}
