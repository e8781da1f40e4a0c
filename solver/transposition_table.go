package solver

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

// a table flag is 1 or 2; 0 is an empty slot.
const (
	TTLower = 0x01
	TTUpper = 0x02
)

const entrySize = 16

const (
	minSizePowerOf2 = 16
	maxSizePowerOf2 = 30
)

// 16 bytes (entrySize). Position keys (current+mask) are unique, so the
// full key is kept and a match is never a false positive.
type TableEntry struct {
	key   uint64
	score int16
	flag  uint8
}

func (t TableEntry) valid() bool {
	return t.flag != 0
}

type TranspositionTable struct {
	table        []TableEntry
	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	sizePowerOf2 int
	sizeMask     uint64
}

func (t *TranspositionTable) lookup(key uint64) TableEntry {
	t.lookups.Add(1)
	idx := hashKey(key) & t.sizeMask
	e := t.table[idx]
	if !e.valid() || e.key != key {
		return TableEntry{}
	}
	t.hits.Add(1)
	return e
}

func (t *TranspositionTable) store(key uint64, score int, flag uint8) {
	idx := hashKey(key) & t.sizeMask
	// always replace.
	t.table[idx] = TableEntry{key: key, score: int16(score), flag: flag}
	t.created.Add(1)
}

// https://stackoverflow.com/a/12996028/1737333
func hashKey(x uint64) uint64 {
	x = (x ^ (x >> 30)) * uint64(0xbf58476d1ce4e5b9)
	x = (x ^ (x >> 27)) * uint64(0x94d049bb133111eb)
	x = x ^ (x >> 31)
	return x
}

// Reset sizes the table to a power of two close to fractionOfMemory of
// system memory and clears it.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	t.ResetToPowerOf2(int(math.Log2(desiredNElems)))
	log.Debug().
		Float64("desired-num-elems", desiredNElems).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-from-memory")
}

// ResetToPowerOf2 allocates (or clears) a table of 2^p entries.
func (t *TranspositionTable) ResetToPowerOf2(p int) {
	p = min(max(p, minSizePowerOf2), maxSizePowerOf2)
	t.sizePowerOf2 = p
	numElems := 1 << p
	t.sizeMask = uint64(numElems - 1)
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}
	log.Info().Int("num-elems", numElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
}

// Stats returns lookups, hits and stores since the last reset.
func (t *TranspositionTable) Stats() (lookups, hits, created uint64) {
	return t.lookups.Load(), t.hits.Load(), t.created.Load()
}
