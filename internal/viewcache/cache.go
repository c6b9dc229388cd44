package viewcache

import (
	"fmt"
	"sync"
	"time"

	"marlizintel.com/intel/internal/globaltime"
)

const (
	defaultWindow     = time.Hour
	defaultMaxEntries = 10_000
)

// Deduper decides whether a view should count. Single-process only:
// each instance sees only its own traffic.
type Deduper interface {
	Seen(key string) bool
}

// Cache is a bounded in-memory TTL dedup map.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]time.Time
	window     time.Duration
	maxEntries int
	now        func() time.Time
}

type Options struct {
	Window     time.Duration
	MaxEntries int
	Now        func() time.Time
}

func New(opts Options) *Cache {
	window := opts.Window
	if window <= 0 {
		window = defaultWindow
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	now := opts.Now
	if now == nil {
		now = globaltime.UTC
	}
	return &Cache{
		entries:    make(map[string]time.Time),
		window:     window,
		maxEntries: maxEntries,
		now:        now,
	}
}

// Key builds the dedup key for a client viewing an article.
func Key(clientID string, articleID int64) string {
	return fmt.Sprintf("%s:%d", clientID, articleID)
}

// Seen reports whether the key fired within the window. A fresh or
// expired key is recorded and refreshed; a hot key stays suppressed
// with its original timestamp so one view per window gets counted.
func (c *Cache) Seen(key string) bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.entries[key]; ok && now.Sub(at) < c.window {
		return true
	}

	if len(c.entries) >= c.maxEntries {
		c.purgeLocked(now)
	}

	c.entries[key] = now
	return false
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// purgeLocked drops every expired entry in one sweep. When nothing has
// expired the map is cleared outright to honor the bound.
func (c *Cache) purgeLocked(now time.Time) {
	for key, at := range c.entries {
		if now.Sub(at) >= c.window {
			delete(c.entries, key)
		}
	}
	if len(c.entries) >= c.maxEntries {
		c.entries = make(map[string]time.Time)
	}
}
