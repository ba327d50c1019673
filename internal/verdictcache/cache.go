// Package verdictcache bounds backend load by remembering the verdict for
// each exact URL string for a short window. Eviction is lazy: expired
// entries are dropped when next touched, no background sweeper is required
// for correctness.
package verdictcache

import (
	"sync"
	"time"

	"phishgate/internal/verdict"
)

// DefaultTTL absorbs rapid reloads of the same page without masking a
// backend change for long.
const DefaultTTL = 30 * time.Second

type cacheEntry struct {
	entry     *verdict.Entry
	expiresAt time.Time
}

// Cache maps an exact URL string to a verdict entry with an expiry. All
// methods are safe for concurrent use; the map itself is guarded by a
// single mutex so structural mutation never races.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	// now is swappable for expiry tests.
	now func() time.Time
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the live entry for url, or nil when absent or expired.
// Expired entries are removed as a side effect of the lookup.
func (c *Cache) Get(url string) *verdict.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	ce, ok := c.entries[url]
	if !ok {
		return nil
	}
	if c.now().After(ce.expiresAt) {
		delete(c.entries, url)
		return nil
	}
	return ce.entry
}

// Put inserts or wholesale-replaces the entry for url with
// expiry = now + ttl. A non-positive ttl falls back to DefaultTTL.
func (c *Cache) Put(url string, entry *verdict.Entry, ttl time.Duration) {
	if entry == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = cacheEntry{entry: entry, expiresAt: c.now().Add(ttl)}
}

// Size returns the number of entries including possibly-expired ones not
// yet swept. Diagnostics only.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes every expired entry. Not required for correctness; useful
// for memory hygiene under low query volume.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for url, ce := range c.entries {
		if now.After(ce.expiresAt) {
			delete(c.entries, url)
		}
	}
}

// SetNow overrides the clock. Test hook.
func (c *Cache) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
