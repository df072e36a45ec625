// Package cache implements the result cache (C6): a concurrent mapping
// from raw-path string to resolution outcome, consulted before
// re-probing the archive (spec.md §4.5).
package cache

import (
	"hash/fnv"
	"sync"
)

// shardCount follows the teacher's repository-level sync.RWMutex
// discipline, sharded to keep one global lock from bottlenecking
// thousands of concurrently-resolving workers (spec.md §9).
const shardCount = 16

// Outcome is a cached resolution: either a non-empty match list, or a
// recorded negative (no archive hit for this raw path).
type Outcome[T any] struct {
	Matches  []T
	Resolved bool
}

type shard[T any] struct {
	mu sync.RWMutex
	m  map[string]Outcome[T]
}

// Cache is the concurrent raw-path -> Outcome map. It is additive and
// never evicted during a run, per spec.md §4.5.
type Cache[T any] struct {
	shards [shardCount]*shard[T]
}

// New returns an empty Cache.
func New[T any]() *Cache[T] {
	c := &Cache[T]{}
	for i := range c.shards {
		c.shards[i] = &shard[T]{m: make(map[string]Outcome[T])}
	}
	return c
}

func (c *Cache[T]) shardFor(rawPath string) *shard[T] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(rawPath))
	return c.shards[h.Sum32()%shardCount]
}

// Lookup returns the cached outcome for rawPath, and whether one exists.
func (c *Cache[T]) Lookup(rawPath string) (Outcome[T], bool) {
	s := c.shardFor(rawPath)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.m[rawPath]
	return o, ok
}

// StoreResolved records a successful resolution for rawPath. If one is
// already stored, it is left unchanged (the cache populates once per
// distinct raw path).
func (c *Cache[T]) StoreResolved(rawPath string, matches []T) {
	s := c.shardFor(rawPath)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[rawPath]; ok {
		return
	}
	s.m[rawPath] = Outcome[T]{Matches: matches, Resolved: true}
}

// StoreNegative records that rawPath resolved to no archive hit.
func (c *Cache[T]) StoreNegative(rawPath string) {
	s := c.shardFor(rawPath)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[rawPath]; ok {
		return
	}
	s.m[rawPath] = Outcome[T]{Resolved: false}
}

// Len returns the number of distinct raw paths recorded across all
// shards. Intended for diagnostics/tests, not the hot path.
func (c *Cache[T]) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}
