package locindex

import (
	"context"
	"sync"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
	"github.com/couchcryptid/parking-violations-etl/internal/observability"
)

// CachedResolver wraps a resolver with an in-memory LRU keyed by cleaned
// location. Unlike a remote geocoder cache, negative results are cached
// too: the index is frozen for the duration of a run, so a miss now is a
// miss forever.
type CachedResolver struct {
	inner   domain.CoordinateResolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver. Cache
// lookups are counted on metrics.FillCache; a nil metrics disables
// counting.
func NewCachedResolver(inner domain.CoordinateResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

type cachedResult struct {
	result domain.ResolvedCoords
	ok     bool
}

// Resolve implements domain.CoordinateResolver.
func (c *CachedResolver) Resolve(ctx context.Context, location string) (domain.ResolvedCoords, bool, error) {
	key := domain.CleanLocation(location)
	if cached, hit := c.cache.get(key); hit {
		c.count("hit")
		return cached.result, cached.ok, nil
	}
	c.count("miss")

	result, ok, err := c.inner.Resolve(ctx, location)
	if err != nil {
		return result, ok, err
	}
	c.cache.put(key, cachedResult{result: result, ok: ok})
	return result, ok, nil
}

func (c *CachedResolver) count(result string) {
	if c.metrics != nil {
		c.metrics.FillCache.WithLabelValues(result).Inc()
	}
}

// lruCache is a small thread-safe LRU over resolution outcomes.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value cachedResult
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (cachedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cachedResult{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value cachedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
