package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
)

const (
	resultDirect   = "direct"
	resultMirrored = "mirrored"
	resultMiss     = "miss"
)

// Adapter answers exact score queries for one piece, through the cache
// first and the backend on a miss. Keys do not encode the side to move, so
// one cache serves one engine piece.
type Adapter struct {
	Cache   *PositionCache
	Backend solver.Backend
	Piece   board.Piece
	Metrics *Metrics
}

// Scores looks up b under its canonical key, then under its mirrored key
// (reversing the stored vector), and finally asks the backend and stores
// the answer under the canonical key.
func (a *Adapter) Scores(ctx context.Context, b *board.Board) (solver.ScoreVector, error) {
	key := b.CanonicalKey()
	if v, ok := a.Cache.Get(key); ok {
		a.Metrics.lookup(resultDirect)
		return v, nil
	}
	if v, ok := a.Cache.Get(b.MirroredKey()); ok {
		a.Metrics.lookup(resultMirrored)
		return v.Reversed(), nil
	}
	a.Metrics.lookup(resultMiss)

	ts := time.Now()
	v, err := a.Backend.Analyze(ctx, b, a.Piece)
	a.Metrics.observeBackend(time.Since(ts).Seconds())
	if err != nil {
		a.Metrics.backendError()
		return nil, err
	}
	if len(v) != b.Cols() {
		a.Metrics.backendError()
		return nil, fmt.Errorf("%w: backend returned %d values for %d columns",
			solver.ErrMalformedScores, len(v), b.Cols())
	}
	a.Cache.Put(key, v)
	a.Metrics.setEntries(a.Cache.Len())
	log.Debug().Str("key", string(key)).Ints("scores", v).Msg("cached-position")
	return v, nil
}

// BestColumn returns the legal column with the highest exact score, lowest
// column on ties.
func (a *Adapter) BestColumn(ctx context.Context, b *board.Board) (int, error) {
	v, err := a.Scores(ctx, b)
	if err != nil {
		return -1, err
	}
	return v.Best(b)
}
