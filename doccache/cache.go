package doccache

import (
	"sync"
	"time"
)

// Defaults applied by New when the config leaves a field zero.
const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 500
)

// Config fixes the cache's TTL and capacity at construction time. Neither is
// runtime-configurable through the tool surface.
type Config struct {
	// TTL is the maximum entry age before a read treats it as expired.
	TTL time.Duration

	// MaxSize bounds the number of entries. Inserting into a full cache
	// evicts the oldest-inserted entry first.
	MaxSize int
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Size     int     `json:"size"`
	MaxSize  int     `json:"maxSize"`
	Hits     int64   `json:"hitCount"`
	Misses   int64   `json:"missCount"`
	HitRatio float64 `json:"hitRatio"`
}

type entry struct {
	doc        map[string]any
	insertedAt time.Time
}

// Cache is a process-wide document cache. Construct once at startup and pass
// it into the tool-handler layer; there is no package-level instance.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ownership: stored and returned documents are shared; callers must treat
//   them as read-only.
// - Errors: none. A miss is a normal (nil, false) return.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string // insertion order, oldest first
	ttl     time.Duration
	maxSize int
	hits    int64
	misses  int64

	now func() time.Time
}

// New creates a Cache, applying defaults for zero config fields.
func New(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	return &Cache{
		entries: make(map[string]*entry),
		ttl:     cfg.TTL,
		maxSize: cfg.MaxSize,
		now:     time.Now,
	}
}

// Key composes the deterministic cache key for a document. Document IDs
// cannot contain '/', so the composition is injective.
func Key(collection, id string) string {
	return collection + "/" + id
}

// Get returns the cached document for the key, or (nil, false) on miss.
// An entry older than the TTL is removed and reported as a miss.
func (c *Cache) Get(collection, id string) (map[string]any, bool) {
	key := Key(collection, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.removeLocked(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.doc, true
}

// Set inserts or overwrites the document for the key. When the cache is
// full, the oldest-inserted entry is evicted first. Overwriting refreshes
// the key's insertion position.
func (c *Cache) Set(collection, id string, doc map[string]any) {
	key := Key(collection, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeLocked(key)
	} else if len(c.entries) >= c.maxSize {
		c.removeLocked(c.order[0])
	}

	c.entries[key] = &entry{doc: doc, insertedAt: c.now()}
	c.order = append(c.order, key)
}

// Invalidate removes the entry if present; no-op otherwise. Callers must
// invalidate after every successful write touching the key, and only after
// the write has completed, so a pre-write value is never re-cached by an
// overlapping reader.
func (c *Cache) Invalidate(collection, id string) {
	key := Key(collection, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Clear removes all entries and resets both counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.order = c.order[:0]
	c.hits = 0
	c.misses = 0
}

// Stats returns a snapshot of the cache counters. As a side effect it purges
// any entries found expired during the scan; the reported size reflects the
// purge.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.insertedAt) > c.ttl {
			c.removeLocked(key)
		}
	}

	s := Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRatio = float64(c.hits) / float64(total)
	}
	return s
}

func (c *Cache) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
