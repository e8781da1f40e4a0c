package worker

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

// diagramLine writes b as one session input line, top row first.
func diagramLine(b *board.Board) string {
	rows := make([]string, 0, b.Rows())
	for r := b.Rows() - 1; r >= 0; r-- {
		var sb strings.Builder
		for c := 0; c < b.Cols(); c++ {
			switch b.At(r, c) {
			case board.PieceA:
				sb.WriteByte('X')
			case board.PieceB:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		rows = append(rows, sb.String())
	}
	return strings.Join(rows, " ")
}

func TestSessionPlaysObservedGame(t *testing.T) {
	is := is.New(t)
	e := &columnEngine{}
	w := startWorker(t, testConfig(), e)

	// the opponent stacks column 3 while the engine fills column 0.
	b := board.NewStandard()
	lines := []string{"# camera feed", diagramLine(b)}
	for i := 0; i < 4; i++ {
		_, _ = b.Drop(3, board.PieceA)
		lines = append(lines, diagramLine(b))
		if i == 0 {
			lines = append(lines, "not a board")
		}
		if i < 3 {
			_, _ = b.Drop(0, board.PieceB)
		}
	}
	lines = append(lines, "", "new")

	var out bytes.Buffer
	s := NewSession(w, &out, board.PieceA, strategy.TierEasy)
	is.NoErr(s.Run(context.Background(), strings.NewReader(strings.Join(lines, "\n"))))

	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(got), 6)
	is.Equal(got[0], "rejected count-mismatch")
	is.Equal(got[1], "engine 0")
	assert.True(t, strings.HasPrefix(got[2], "error "), got[2])
	is.Equal(got[3], "engine 0")
	is.Equal(got[4], "engine 0")
	is.Equal(got[5], "over X 770")
	is.Equal(e.gameEnds.Load(), int64(1))
	is.Equal(e.tiers, []strategy.Tier{strategy.TierEasy, strategy.TierEasy, strategy.TierEasy})
	is.Equal(w.pending(), 0)
}

func TestSessionEngineFirst(t *testing.T) {
	is := is.New(t)
	w := startWorker(t, testConfig(), &columnEngine{})

	b := board.NewStandard()
	_, _ = b.Drop(0, board.PieceB)
	stale := diagramLine(b)
	_, _ = b.Drop(0, board.PieceA)

	var out bytes.Buffer
	s := NewSession(w, &out, board.PieceB, strategy.TierHard)
	input := strings.Join([]string{stale, diagramLine(b)}, "\n")
	is.NoErr(s.Run(context.Background(), strings.NewReader(input)))
	is.Equal(out.String(), "engine 0\nrejected count-mismatch\nengine 0\n")
}

func TestSessionReportsTimeout(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	cfg.MaxWait = 20 * time.Millisecond
	w := startWorker(t, cfg, &columnEngine{delay: 300 * time.Millisecond})

	b := board.NewStandard()
	_, _ = b.Drop(6, board.PieceA)
	var out bytes.Buffer
	s := NewSession(w, &out, board.PieceA, strategy.TierEasy)
	is.NoErr(s.Run(context.Background(), strings.NewReader(diagramLine(b))))
	assert.Contains(t, out.String(), "error ")
	assert.Contains(t, out.String(), ErrTimeout.Error())
}
