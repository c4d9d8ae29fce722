package query

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// cacheEntry holds a memoized parse+normalize result.
type cacheEntry struct {
	expr *Expr
	err  error
}

// Cache memoizes Parse+Normalize results keyed by an xxhash of the raw
// query string, following the mutex+map+bound-with-evict-all strategy of
// the teacher's query_cache.go.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64]cacheEntry
	max     int
}

func NewCache(max int) *Cache {
	return &Cache{entries: make(map[uint64]cacheEntry), max: max}
}

// GetOrParse returns the cached normalized expression for raw, parsing
// and normalizing it (and caching the result, including errors) on a
// miss.
func (c *Cache) GetOrParse(raw string) (*Expr, error) {
	key := xxhash.Sum64String(raw)

	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return e.expr, e.err
	}
	c.mu.RUnlock()

	expr, err := Parse(raw)
	if err == nil {
		expr, err = Normalize(expr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		c.entries = make(map[uint64]cacheEntry)
	}
	c.entries[key] = cacheEntry{expr: expr, err: err}
	return expr, err
}
