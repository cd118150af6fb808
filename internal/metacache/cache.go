// Package metacache provides the shared, size-bounded species metadata cache
// and the resolver that fills it from the external species data client.
package metacache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/David-H-Afonso/beastvault/internal/observability/metrics"
	"github.com/David-H-Afonso/beastvault/internal/pokeapi"
)

// Key is the composite cache key. The gigantamax flag occupies a distinct
// cache slot from the non-gigantamax form of the same species.
type Key struct {
	SpeciesID int
	Form      int
	Gmax      bool
}

// String renders the key for logging and singleflight grouping.
func (k Key) String() string {
	if k.Gmax {
		return fmt.Sprintf("%d:%d:gmax", k.SpeciesID, k.Form)
	}
	return fmt.Sprintf("%d:%d", k.SpeciesID, k.Form)
}

// Entry is one cached resolution result. Miss entries mark failed lookups
// with a shorter validity window so retry storms are suppressed without
// permanently poisoning the cache.
type Entry struct {
	Key       Key
	Meta      *pokeapi.SpeciesMetadata
	Miss      bool
	ExpiresAt time.Time
}

type cacheItem struct {
	entry Entry
}

const (
	DefaultCapacity = 2048
	DefaultTTL      = 14 * 24 * time.Hour
	DefaultMissTTL  = 15 * time.Minute
)

// Cache is a size-bounded, recency-ordered metadata cache. Entries are
// evicted strictly least-recently-accessed-first once the capacity is
// reached. Successful entries are treated as immutable; a miss marker never
// overwrites an unexpired success.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	missTTL  time.Duration
	items    map[Key]*list.Element
	order    *list.List // front = most recently accessed
	metrics  *metrics.ResolverMetrics
	now      func() time.Time
}

// New creates a cache with the given capacity and validity windows.
// Non-positive arguments fall back to the defaults.
func New(capacity int, ttl, missTTL time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if missTTL <= 0 {
		missTTL = DefaultMissTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		missTTL:  missTTL,
		items:    make(map[Key]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// SetMetrics attaches a metrics collector. Safe to leave unset.
func (c *Cache) SetMetrics(m *metrics.ResolverMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// Get returns the entry for key if present and unexpired, updating its
// recency as a side effect.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return Entry{}, false
	}
	item := elem.Value.(*cacheItem)
	if c.now().After(item.entry.ExpiresAt) {
		c.removeLocked(key, elem)
		return Entry{}, false
	}
	c.order.MoveToFront(elem)
	return item.entry, true
}

// Put inserts or replaces a successful resolution for key.
func (c *Cache) Put(key Key, meta *pokeapi.SpeciesMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(Entry{
		Key:       key,
		Meta:      meta,
		ExpiresAt: c.now().Add(c.ttl),
	})
}

// PutMiss records a failed lookup with the shorter validity window. It never
// replaces an unexpired successful entry.
func (c *Cache) PutMiss(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		item := elem.Value.(*cacheItem)
		if !item.entry.Miss && c.now().Before(item.entry.ExpiresAt) {
			return
		}
	}
	c.putLocked(Entry{
		Key:       key,
		Miss:      true,
		ExpiresAt: c.now().Add(c.missTTL),
	})
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Flush removes every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[Key]*list.Element)
	c.order.Init()
	c.metrics.SetCacheSize(0)
}

func (c *Cache) putLocked(entry Entry) {
	if elem, ok := c.items[entry.Key]; ok {
		elem.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(elem)
		return
	}
	elem := c.order.PushFront(&cacheItem{entry: entry})
	c.items[entry.Key] = elem

	for len(c.items) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		item := oldest.Value.(*cacheItem)
		c.removeLocked(item.entry.Key, oldest)
		c.metrics.IncrementCacheEvictions()
	}
	c.metrics.SetCacheSize(float64(len(c.items)))
}

func (c *Cache) removeLocked(key Key, elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, key)
	c.metrics.SetCacheSize(float64(len(c.items)))
}
