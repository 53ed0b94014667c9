package cache

import (
	"strings"
	"sync"
	"time"
)

// Config fixes the limits of a cache instance.
type Config struct {
	// MaxAge is how long an entry stays valid after insertion.
	MaxAge time.Duration
	// MaxEntries caps the number of entries. Zero means unlimited.
	MaxEntries int
	// MaxSizeBytes caps the summed SizeBytes of all entries. Zero means unlimited.
	MaxSizeBytes int64
}

// Entry is a cached value with its bookkeeping.
type Entry[T any] struct {
	Data        T
	Hash        string
	Timestamp   time.Time // insertion time, never refreshed by reads
	AccessCount int       // successful reads since insertion
	SizeBytes   int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int
	Bytes     int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Option customizes a cache.
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// Cache is a string-keyed store with TTL expiry and frequency-biased
// eviction. It is safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	cfg     Config
	now     func() time.Time
	entries map[string]*Entry[T]
	bytes   int64
	stats   Stats
}

// New creates an empty cache with the given limits.
func New[T any](cfg Config, opts ...Option) *Cache[T] {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return &Cache[T]{
		cfg:     cfg,
		now:     s.now,
		entries: make(map[string]*Entry[T]),
	}
}

// Config returns the limits the cache was created with.
func (c *Cache[T]) Config() Config {
	return c.cfg
}

// Get returns the value for key if it is present and younger than MaxAge.
// An expired entry is deleted. A hit increments the entry's access count
// but leaves its timestamp unchanged.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		c.stats.Misses++
		var zero T
		return zero, false
	}
	e.AccessCount++
	c.stats.Hits++
	return e.Data, true
}

// GetIfHashMatches is Get restricted to entries stored with exactly hash.
// A mismatch is a miss even when the entry has not expired; the entry is
// kept and its access count is not incremented.
func (c *Cache[T]) GetIfHashMatches(key, hash string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok || e.Hash != hash {
		c.stats.Misses++
		var zero T
		return zero, false
	}
	e.AccessCount++
	c.stats.Hits++
	return e.Data, true
}

// Peek returns a copy of the entry for key without counting an access.
// Expired entries are deleted and reported as absent.
func (c *Cache[T]) Peek(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		return Entry[T]{}, false
	}
	return *e, true
}

// Set stores value under key, replacing any previous entry.
//
// Before inserting, entries are evicted one at a time while the cache is at
// MaxEntries, and then while the byte budget cannot hold sizeBytes more.
// Each eviction removes the entry with the lowest access count, the oldest
// one among equals.
func (c *Cache[T]) Set(key string, value T, hash string, sizeBytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)

	if c.cfg.MaxEntries > 0 {
		for len(c.entries) >= c.cfg.MaxEntries && c.evictOne() {
		}
	}
	if c.cfg.MaxSizeBytes > 0 {
		for c.bytes+sizeBytes > c.cfg.MaxSizeBytes && c.evictOne() {
		}
	}

	c.entries[key] = &Entry[T]{
		Data:      value,
		Hash:      hash,
		Timestamp: c.now(),
		SizeBytes: sizeBytes,
	}
	c.bytes += sizeBytes
}

// Delete removes key. It reports whether an entry was present.
func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(key)
}

// InvalidateByPrefix removes every key starting with prefix and returns how
// many were removed. Matching is a plain string prefix: "/repo/a" also
// matches "/repo/ab/x".
func (c *Cache[T]) InvalidateByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.remove(key)
			n++
		}
	}
	return n
}

// Clear removes all entries.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry[T])
	c.bytes = 0
}

// Len returns the number of stored entries, including expired ones not yet
// read.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SizeBytes returns the summed size of all stored entries.
func (c *Cache[T]) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Stats returns the current counters.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	s.Bytes = c.bytes
	return s
}

// lookup returns the live entry for key, deleting it when expired.
// Caller holds c.mu.
func (c *Cache[T]) lookup(key string) (*Entry[T], bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.Timestamp) >= c.cfg.MaxAge {
		c.remove(key)
		return nil, false
	}
	return e, true
}

// remove deletes key and adjusts the byte total. Caller holds c.mu.
func (c *Cache[T]) remove(key string) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.bytes -= e.SizeBytes
	delete(c.entries, key)
	return true
}

// evictOne removes the lowest priority entry: fewest accesses first, then
// oldest timestamp. It reports false when the cache is empty.
// Caller holds c.mu.
func (c *Cache[T]) evictOne() bool {
	var victim string
	var best *Entry[T]
	for key, e := range c.entries {
		if best == nil ||
			e.AccessCount < best.AccessCount ||
			(e.AccessCount == best.AccessCount && e.Timestamp.Before(best.Timestamp)) {
			victim, best = key, e
		}
	}
	if best == nil {
		return false
	}
	c.remove(victim)
	c.stats.Evictions++
	return true
}
