package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
)

var keyPrefix = []byte("pos/")

type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
}

// BadgerStore keeps positions in an embedded key/value store under the
// "pos/" prefix.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Load(ctx context.Context) (map[board.Key]solver.ScoreVector, error) {
	entries := map[board.Key]solver.ScoreVector{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: keyPrefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := board.Key(item.Key()[len(keyPrefix):])
			err := item.Value(func(val []byte) error {
				var v solver.ScoreVector
				if err := json.Unmarshal(val, &v); err != nil {
					return fmt.Errorf("position %s: %w", key, err)
				}
				entries[key] = v
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *BadgerStore) Save(ctx context.Context, entries map[board.Key]solver.ScoreVector) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for k, v := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		key := append(append([]byte{}, keyPrefix...), string(k)...)
		if err := wb.Set(key, raw); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
