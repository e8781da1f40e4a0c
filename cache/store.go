package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
)

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreNone   = "none"
)

var ErrUnknownStore = errors.New("unknown cache store")

// Store persists the position cache between processes.
type Store interface {
	Load(ctx context.Context) (map[board.Key]solver.ScoreVector, error)
	Save(ctx context.Context, entries map[board.Key]solver.ScoreVector) error
	Close() error
}

// OpenStore opens the store of the given kind at path.
func OpenStore(kind, path string) (Store, error) {
	switch kind {
	case StoreJSON:
		return NewJSONStore(path), nil
	case StoreSQLite:
		return OpenSQLiteStore(path)
	case StoreBadger:
		return OpenBadgerStore(BadgerConfig{Path: path, SyncWrites: true})
	case StoreNone, "":
		return nopStore{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStore, kind)
}

// LoadOrEmpty fills c from s. A missing or unreadable store leaves c as it
// was and only logs a warning.
func LoadOrEmpty(ctx context.Context, s Store, c *PositionCache) {
	entries, err := s.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cache-load-failed-starting-empty")
		return
	}
	c.Merge(entries)
	log.Info().Int("entries", len(entries)).Msg("cache-loaded")
}

// Flush writes a snapshot of c to s.
func Flush(ctx context.Context, s Store, c *PositionCache) error {
	snap := c.Snapshot()
	if err := s.Save(ctx, snap); err != nil {
		return fmt.Errorf("flush position cache: %w", err)
	}
	log.Debug().Int("entries", len(snap)).Msg("cache-flushed")
	return nil
}

type nopStore struct{}

func (nopStore) Load(context.Context) (map[board.Key]solver.ScoreVector, error) {
	return map[board.Key]solver.ScoreVector{}, nil
}

func (nopStore) Save(context.Context, map[board.Key]solver.ScoreVector) error { return nil }

func (nopStore) Close() error { return nil }
