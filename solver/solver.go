package solver

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

// thanks Wikipedia:
/*
function negamax(node, α, β) is
    if node is a terminal node then
        return the value of node
    foreach child in orderMoves(generateMoves(node)) do
        α := max(α, −negamax(child, −β, −α))
        if α ≥ β then
            break (* cut-off *)
    return α
**/

const cancelCheckInterval = 1 << 12

// Solver is an exact solver for the four-in-a-row game on boards whose
// (rows+1)*cols fits in 64 bits. Searches are serialized; the
// transposition table is kept between calls.
type Solver struct {
	sync.Mutex

	geom   *geometry
	ttFrac float64
	ttPow  int
	tt     *TranspositionTable

	ctx       context.Context
	stopped   bool
	nodeCount uint64
}

type Option func(*Solver)

// WithMemoryFraction sizes the transposition table as a fraction of
// system memory.
func WithMemoryFraction(f float64) Option {
	return func(s *Solver) { s.ttFrac = f }
}

// WithTableSize fixes the transposition table at 2^p entries.
func WithTableSize(p int) Option {
	return func(s *Solver) { s.ttPow = p }
}

func New(opts ...Option) *Solver {
	s := &Solver{ttFrac: 0.1}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Solver) init(b *board.Board) error {
	if b.WindowLength() != 4 {
		return fmt.Errorf("%w: window length %d", ErrUnsupportedDimensions, b.WindowLength())
	}
	if s.geom != nil && s.geom.width == b.Cols() && s.geom.height == b.Rows() {
		return nil
	}
	g, err := newGeometry(b.Cols(), b.Rows())
	if err != nil {
		return err
	}
	s.geom = g
	if s.tt == nil {
		s.tt = &TranspositionTable{}
	}
	if s.ttPow > 0 {
		s.tt.ResetToPowerOf2(s.ttPow)
	} else {
		s.tt.Reset(s.ttFrac)
	}
	return nil
}

func (s *Solver) cells() int {
	return s.geom.width * s.geom.height
}

// Analyze scores every column for mover. Full columns get InvalidScore.
func (s *Solver) Analyze(ctx context.Context, b *board.Board, mover board.Piece) (ScoreVector, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.init(b); err != nil {
		return nil, err
	}
	if won, _ := b.DetectWin(board.PieceA); won {
		return nil, ErrTerminalPosition
	}
	if won, _ := b.DetectWin(board.PieceB); won {
		return nil, ErrTerminalPosition
	}
	if !b.IsGravityConsistent() {
		return nil, fmt.Errorf("%w: floating pieces", ErrTerminalPosition)
	}
	s.ctx = ctx
	s.stopped = false
	s.nodeCount = 0
	ts := time.Now()

	g := s.geom
	root := g.fromBoard(b, mover)
	scores := make(ScoreVector, g.width)
	for col := 0; col < g.width; col++ {
		if !g.canPlay(&root, col) {
			scores[col] = InvalidScore
			continue
		}
		if g.isWinningMove(&root, col) {
			scores[col] = (s.cells() + 1 - root.moves) / 2
			continue
		}
		child := root
		g.playCol(&child, col)
		scores[col] = -s.solve(child)
		if s.stopped {
			return nil, ctx.Err()
		}
	}
	lookups, hits, _ := s.tt.Stats()
	log.Debug().
		Str("key", string(b.CanonicalKey())).
		Ints("scores", scores).
		Uint64("nodes", s.nodeCount).
		Uint64("tt-lookups", lookups).
		Uint64("tt-hits", hits).
		Dur("elapsed", time.Since(ts)).
		Msg("analyzed")
	return scores, nil
}

// Solve returns the exact score of b for mover.
func (s *Solver) Solve(ctx context.Context, b *board.Board, mover board.Piece) (int, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.init(b); err != nil {
		return 0, err
	}
	s.ctx = ctx
	s.stopped = false
	s.nodeCount = 0
	v := s.solve(s.geom.fromBoard(b, mover))
	if s.stopped {
		return 0, ctx.Err()
	}
	return v, nil
}

// solve narrows the score window with null-window searches.
func (s *Solver) solve(p Position) int {
	g := s.geom
	if g.canWinNext(&p) {
		return (s.cells() + 1 - p.moves) / 2
	}
	lo := -(s.cells() - p.moves) / 2
	hi := (s.cells() + 1 - p.moves) / 2
	for lo < hi && !s.stopped {
		med := lo + (hi-lo)/2
		if med <= 0 && lo/2 < med {
			med = lo / 2
		} else if med >= 0 && hi/2 > med {
			med = hi / 2
		}
		r := s.negamax(p, med, med+1)
		if r <= med {
			hi = r
		} else {
			lo = r
		}
	}
	return lo
}

type scoredMove struct {
	move  uint64
	score int
}

// negamax assumes the side to move cannot win immediately.
func (s *Solver) negamax(p Position, alpha, beta int) int {
	s.nodeCount++
	if s.nodeCount%cancelCheckInterval == 0 && s.ctx.Err() != nil {
		s.stopped = true
	}
	if s.stopped {
		return 0
	}
	g := s.geom
	next := g.possibleNonLosingMoves(&p)
	if next == 0 {
		return -(s.cells() - p.moves) / 2
	}
	if p.moves >= s.cells()-2 {
		return 0
	}
	lo := -(s.cells() - 2 - p.moves) / 2
	if alpha < lo {
		alpha = lo
		if alpha >= beta {
			return alpha
		}
	}
	hi := (s.cells() - 1 - p.moves) / 2
	key := p.key()
	if e := s.tt.lookup(key); e.valid() {
		switch e.flag {
		case TTLower:
			if v := int(e.score); v > alpha {
				alpha = v
				if alpha >= beta {
					return alpha
				}
			}
		case TTUpper:
			hi = min(hi, int(e.score))
		}
	}
	if beta > hi {
		beta = hi
		if alpha >= beta {
			return beta
		}
	}

	var buf [16]scoredMove
	moves := buf[:0]
	for _, col := range g.columnOrder {
		if m := next & g.columnMask(col); m != 0 {
			moves = append(moves, scoredMove{m, g.moveScore(&p, m)})
		}
	}
	slices.SortStableFunc(moves, func(a, b scoredMove) int {
		return b.score - a.score
	})

	for _, m := range moves {
		child := p
		g.play(&child, m.move)
		score := -s.negamax(child, -beta, -alpha)
		if s.stopped {
			return 0
		}
		if score >= beta {
			s.tt.store(key, score, TTLower)
			return score
		}
		if score > alpha {
			alpha = score
		}
	}
	s.tt.store(key, alpha, TTUpper)
	return alpha
}
