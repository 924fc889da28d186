package scanner

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache defaults.
const (
	DefaultCacheEntries = 200
	DefaultCacheTTL     = 30 * time.Minute
)

type cacheEntry struct {
	listing    *Listing
	insertedAt time.Time
}

// ListingCache is a strict LRU of directory listings with a time-to-live.
// Expired entries are dropped lazily when read. Reads refresh recency.
type ListingCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewListingCache creates a cache holding at most maxEntries listings.
// A ttl <= 0 disables expiry.
func NewListingCache(maxEntries int, ttl time.Duration) (*ListingCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	entries, err := lru.New[string, cacheEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create listing cache: %w", err)
	}
	return &ListingCache{entries: entries, ttl: ttl, now: time.Now}, nil
}

// SetClock replaces the time source. Used by tests.
func (c *ListingCache) SetClock(now func() time.Time) {
	c.now = now
}

// Get returns the listing stored under key if it is present and fresh.
func (c *ListingCache) Get(key string) (*Listing, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.insertedAt) > c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	return e.listing, true
}

// Put stores a listing, evicting the least recently used entry when full.
func (c *ListingCache) Put(key string, listing *Listing) {
	c.entries.Add(key, cacheEntry{listing: listing, insertedAt: c.now()})
}

// Len returns the number of stored entries, expired ones included.
func (c *ListingCache) Len() int {
	return c.entries.Len()
}

// Purge empties the cache.
func (c *ListingCache) Purge() {
	c.entries.Purge()
}
