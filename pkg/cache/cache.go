package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is applied by Set when no explicit TTL is given.
const DefaultTTL = 5 * time.Minute

// DefaultSweepInterval bounds memory held by entries that expired but were
// never read again. Lazy expiry on access keeps reads correct without it.
const DefaultSweepInterval = 10 * time.Minute

type entry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Cache is a process-wide key/value store with per-entry TTL. It is built
// once at startup and shared by reference; tests construct their own instance
// so runs never pollute each other. TTL-only: there is no size-based eviction,
// acceptable only because record volume here is small.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration

	stop chan struct{}
	once sync.Once

	// now is swappable in tests
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultTTL overrides the TTL used by Set.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New builds a cache without a background sweep. Call StartSweep to bound
// memory over time.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		defaultTTL: DefaultTTL,
		stop:       make(chan struct{}),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Set stores value under key with the default TTL, overwriting any existing entry.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, createdAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Get returns the stored value, or false when the key is absent or expired.
// Expired entries are deleted on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Has reports whether key holds a live entry, with the same lazy-expiry
// semantics as Get.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Keys returns a sorted snapshot of stored keys. Entries that expired but were
// not yet accessed or swept are included.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// DeleteByPrefix evicts every key starting with prefix and returns how many
// entries were removed. Used for coarse invalidation of whole key classes
// (e.g. all cached list pages) after a mutation.
func (c *Cache) DeleteByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired-but-unswept included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweep launches a background goroutine that periodically drops expired
// entries. Stop terminates it.
func (c *Cache) StartSweep(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}
