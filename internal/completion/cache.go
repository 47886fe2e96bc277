package completion

import (
	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/tinylru"
)

// DefaultCacheSize is the number of results an Engine remembers when no size
// is configured.
const DefaultCacheSize = 256

// cacheKey identifies a request. The schema version is part of the key, so a
// schema swap never serves results computed from the old schema.
type cacheKey struct {
	document uint64
	cursor   int
	version  uint64
}

func newCacheKey(document string, cursor int, version uint64) cacheKey {
	return cacheKey{
		document: xxhash.Sum64String(document),
		cursor:   cursor,
		version:  version,
	}
}

// Cache memoizes completion results. It is safe for concurrent use.
type Cache struct {
	lru tinylru.LRU
}

// NewCache returns a cache holding up to size results.
func NewCache(size int) *Cache {
	c := &Cache{}
	c.lru.Resize(size)
	return c
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func (c *Cache) get(key cacheKey) (*Result, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Result), true
}

func (c *Cache) put(key cacheKey, r *Result) {
	c.lru.Set(key, r)
}
