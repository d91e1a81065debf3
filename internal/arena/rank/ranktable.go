// Package rank provides the cumulative cross-round leaderboard: a ranked
// table keyed by player id, ordered by total round wins.
package rank

import (
	"sort"
	"sync"
)

// Entry is a scored entry in the leaderboard.
type Entry struct {
	Key   string
	Score float64
}

// outranks reports whether a belongs strictly before b: higher score first,
// ties broken by key so iteration order is deterministic.
func outranks(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Key < b.Key
}

// rankTable holds entries in descending-score order (rank 1 = highest
// score), backed by a flat slice plus a key->position index.
//
// A skip list (Pugh 1990 — the structure Redis' ZSET leaderboard uses) gets
// O(log n) insert by maintaining a probabilistic tower of forward pointers
// per node; that pays off once n runs into the thousands. An arena's
// leaderboard tracks, at most, the handful of players who have ever
// connected to one process — dozens, not thousands — so the O(n) slice
// shift a plain sorted-and-indexed table costs on insert/remove is
// negligible here, and the rank/range queries it needs (GetRank, GetRange)
// reduce to an index lookup and a slice copy instead of level/span
// bookkeeping.
type rankTable struct {
	mu      sync.RWMutex
	entries []Entry       // sorted by outranks, best first
	index   map[string]int // key -> position in entries
}

func newRankTable() *rankTable {
	return &rankTable{index: make(map[string]int)}
}

// insert adds key at score, or repositions it if already present. O(n).
func (rt *rankTable) insert(key string, score float64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if i, ok := rt.index[key]; ok {
		rt.entries = append(rt.entries[:i], rt.entries[i+1:]...)
	}

	e := Entry{Key: key, Score: score}
	i := sort.Search(len(rt.entries), func(i int) bool {
		return !outranks(rt.entries[i], e)
	})
	rt.entries = append(rt.entries, Entry{})
	copy(rt.entries[i+1:], rt.entries[i:])
	rt.entries[i] = e

	rt.reindex()
}

// remove deletes key. Reports whether it was present.
func (rt *rankTable) remove(key string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	i, ok := rt.index[key]
	if !ok {
		return false
	}
	rt.entries = append(rt.entries[:i], rt.entries[i+1:]...)
	rt.reindex()
	return true
}

func (rt *rankTable) reindex() {
	rt.index = make(map[string]int, len(rt.entries))
	for i, e := range rt.entries {
		rt.index[e.Key] = i
	}
}

// getRank returns key's rank (1-indexed, 1 = top), or 0 if absent.
func (rt *rankTable) getRank(key string) int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	i, ok := rt.index[key]
	if !ok {
		return 0
	}
	return i + 1
}

// getRange returns entries in rank range [start, end] (1-indexed, inclusive),
// clamped to the table's current length.
func (rt *rankTable) getRange(start, end int) []Entry {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if start < 1 {
		start = 1
	}
	if end > len(rt.entries) {
		end = len(rt.entries)
	}
	if start > end {
		return nil
	}

	result := make([]Entry, end-start+1)
	copy(result, rt.entries[start-1:end])
	return result
}

// getScore returns the score for key.
func (rt *rankTable) getScore(key string) (float64, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	i, ok := rt.index[key]
	if !ok {
		return 0, false
	}
	return rt.entries[i].Score, true
}

// length returns the number of entries.
func (rt *rankTable) length() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.entries)
}
