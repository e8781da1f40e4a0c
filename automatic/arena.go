// Package automatic plays computer-vs-computer games between difficulty
// tiers and summarises the results.
package automatic

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync/atomic"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/stats"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

const DrawResult = "draw"

var (
	ErrNoGames      = errors.New("a match needs at least one game")
	ErrExactSideMix = errors.New("the impossible tier can only play the piece its cache holds")
)

// Player picks a column for mover at the given tier. *strategy.Selector
// satisfies it.
type Player interface {
	ChooseMove(ctx context.Context, b *board.Board, tier strategy.Tier, mover board.Piece, rng *rand.Rand) (int, error)
}

// Match describes a series between two tiers. TierA always plays PieceA
// and TierB PieceB; the side that moves first alternates, starting with A.
type Match struct {
	TierA, TierB strategy.Tier
	Games        int
	Threads      int
	// Seeds holds one seed per game. Missing seeds are generated.
	Seeds [][32]byte
	// Confidence is the confidence level, in percent, for the interval and
	// the significance test.
	Confidence float64
}

type GameResult struct {
	Index   int           `yaml:"index"`
	First   strategy.Tier `yaml:"first"`
	Winner  string        `yaml:"winner"`
	Moves   int           `yaml:"moves"`
	Columns []int         `yaml:"columns,flow"`
}

// Report is the outcome of a match, scored from TierA's side.
type Report struct {
	TierA          strategy.Tier `yaml:"tier-a"`
	TierB          strategy.Tier `yaml:"tier-b"`
	Games          int           `yaml:"games"`
	Tally          stats.Tally   `yaml:"tally-a"`
	Score          float64       `yaml:"score-a"`
	Confidence     float64       `yaml:"confidence"`
	IntervalLow    float64       `yaml:"interval-low"`
	IntervalHigh   float64       `yaml:"interval-high"`
	Significant    bool          `yaml:"significant"`
	FirstMoverWins int           `yaml:"first-mover-wins"`
	MeanLength     float64       `yaml:"mean-length"`
	StdevLength    float64       `yaml:"stdev-length"`
	Results        []GameResult  `yaml:"results,omitempty"`
}

// Arena plays matches on boards of a fixed size. NewPlayer is called once
// per worker goroutine, since search state is not shared between games.
// ExactPiece is the piece the players' exact scores are cached for.
type Arena struct {
	NewPlayer                func() Player
	Rows, Cols, WindowLength int
	ExactPiece               board.Piece
}

func NewArena(newPlayer func() Player, rows, cols, windowLength int) *Arena {
	return &Arena{NewPlayer: newPlayer, Rows: rows, Cols: cols, WindowLength: windowLength,
		ExactPiece: board.PieceA}
}

// checkExactSides rejects a match that would have the impossible tier play
// the piece its cache does not hold; every one of those moves would
// silently come from the hard tier instead.
func (a *Arena) checkExactSides(m Match) error {
	sides := map[board.Piece]strategy.Tier{board.PieceA: m.TierA, board.PieceB: m.TierB}
	for piece, tier := range sides {
		if tier == strategy.TierImpossible && piece != a.ExactPiece {
			return fmt.Errorf("%w: %s would play %v, exact scores are for %v",
				ErrExactSideMix, tier, piece, a.ExactPiece)
		}
	}
	return nil
}

// Play runs every game of m and builds the report. An error from any game
// stops the match.
func (a *Arena) Play(ctx context.Context, m Match) (*Report, error) {
	if m.Games < 1 {
		return nil, ErrNoGames
	}
	if err := a.checkExactSides(m); err != nil {
		return nil, err
	}
	if len(m.Seeds) < m.Games {
		extra := GenerateSeeds(m.Games - len(m.Seeds))
		m.Seeds = append(append([][32]byte{}, m.Seeds...), extra...)
	}
	if m.Confidence == 0 {
		m.Confidence = 95
	}
	threads := max(m.Threads, 1)
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("tier-a", string(m.TierA)).Str("tier-b", string(m.TierB)).
		Int("games", m.Games).Int("threads", threads).Msg("arena-start")

	results := make([]GameResult, m.Games)
	var next, finished atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < threads; w++ {
		g.Go(func() error {
			p := a.NewPlayer()
			for {
				i := int(next.Add(1)) - 1
				if i >= m.Games {
					return nil
				}
				res, err := a.playGame(gctx, p, m, i)
				if err != nil {
					return fmt.Errorf("game %d: %w", i, err)
				}
				results[i] = res
				if n := finished.Add(1); n%100 == 0 {
					logger.Info().Int64("finished", n).Msg("arena-progress")
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r := summarize(m, results)
	logger.Info().Int("wins", r.Tally.Wins).Int("draws", r.Tally.Draws).
		Int("losses", r.Tally.Losses).Float64("score", r.Score).Msg("arena-done")
	return r, nil
}

func seededRNG(seed [32]byte) *rand.Rand {
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:16])))
}

func (a *Arena) playGame(ctx context.Context, p Player, m Match, i int) (GameResult, error) {
	rng := seededRNG(m.Seeds[i])
	b := board.New(a.Rows, a.Cols, a.WindowLength)
	tiers := map[board.Piece]strategy.Tier{board.PieceA: m.TierA, board.PieceB: m.TierB}
	onturn := board.PieceA
	if i%2 == 1 {
		onturn = board.PieceB
	}
	res := GameResult{Index: i, First: tiers[onturn], Winner: DrawResult}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		col, err := p.ChooseMove(ctx, b, tiers[onturn], onturn, rng)
		if err != nil {
			return res, err
		}
		row, err := b.Drop(col, onturn)
		if err != nil {
			return res, err
		}
		res.Columns = append(res.Columns, col)
		res.Moves++
		if b.ConnectsAt(row, col) {
			res.Winner = string(tiers[onturn])
			return res, nil
		}
		if b.IsFull() {
			return res, nil
		}
		onturn = onturn.Opponent()
	}
}

func summarize(m Match, results []GameResult) *Report {
	r := &Report{
		TierA:      m.TierA,
		TierB:      m.TierB,
		Games:      len(results),
		Confidence: m.Confidence,
		Results:    results,
	}
	var length stats.Statistic
	for i, res := range results {
		length.Push(float64(res.Moves))
		if res.Winner == DrawResult {
			r.Tally.Draws++
			continue
		}
		// the first mover made the odd-numbered moves. Counting by parity
		// also works when both sides play the same tier.
		firstWon := res.Moves%2 == 1
		if firstWon {
			r.FirstMoverWins++
		}
		if firstWon == (i%2 == 0) {
			r.Tally.Wins++
		} else {
			r.Tally.Losses++
		}
	}
	r.Score = r.Tally.Score()
	r.IntervalLow, r.IntervalHigh = r.Tally.Interval(m.Confidence)
	r.Significant = stats.Significant(&r.Tally, m.Confidence)
	r.MeanLength = length.Mean()
	r.StdevLength = length.Stdev()
	return r
}

// WriteYAML writes the report. Per-game results are left out unless
// withGames is set.
func (r *Report) WriteYAML(w io.Writer, withGames bool) error {
	out := *r
	if !withGames {
		out.Results = nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return err
	}
	return enc.Close()
}

// FprintLengths draws a histogram of game lengths.
func (r *Report) FprintLengths(w io.Writer, bins int) error {
	if len(r.Results) == 0 {
		return nil
	}
	lengths := lo.Map(r.Results, func(res GameResult, _ int) float64 {
		return float64(res.Moves)
	})
	return histogram.Fprint(w, histogram.Hist(bins, lengths), histogram.Linear(40))
}
