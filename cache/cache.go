package cache

import (
	"maps"
	"slices"
	"sync"

	"github.com/cespare/xxhash"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
)

// The position cache memoizes exact score vectors by canonical key. It is
// shared by every game and training worker in the process. It never
// evicts; concurrent writers to one key simply overwrite each other.

const numShards = 32

type shard struct {
	sync.RWMutex
	objects map[board.Key]solver.ScoreVector
}

type PositionCache struct {
	shards [numShards]shard
}

func New() *PositionCache {
	c := &PositionCache{}
	for i := range c.shards {
		c.shards[i].objects = make(map[board.Key]solver.ScoreVector)
	}
	return c
}

func (c *PositionCache) shardFor(key board.Key) *shard {
	return &c.shards[xxhash.Sum64String(string(key))%numShards]
}

// Get returns a copy of the stored vector.
func (c *PositionCache) Get(key board.Key) (solver.ScoreVector, bool) {
	s := c.shardFor(key)
	s.RLock()
	defer s.RUnlock()
	v, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// Put stores a copy of v under key, replacing any previous entry.
func (c *PositionCache) Put(key board.Key, v solver.ScoreVector) {
	s := c.shardFor(key)
	s.Lock()
	defer s.Unlock()
	s.objects[key] = slices.Clone(v)
}

func (c *PositionCache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.RLock()
		n += len(s.objects)
		s.RUnlock()
	}
	return n
}

// Snapshot copies every entry into a plain map, for persisting.
func (c *PositionCache) Snapshot() map[board.Key]solver.ScoreVector {
	out := make(map[board.Key]solver.ScoreVector, c.Len())
	for i := range c.shards {
		s := &c.shards[i]
		s.RLock()
		maps.Copy(out, s.objects)
		s.RUnlock()
	}
	return out
}

// Merge stores every entry of m.
func (c *PositionCache) Merge(m map[board.Key]solver.ScoreVector) {
	for k, v := range m {
		c.Put(k, v)
	}
}
