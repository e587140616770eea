package tenant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache is the interface for tenant caching implementations.
type Cache interface {
	// Get retrieves a tenant from cache by key.
	Get(ctx context.Context, key string) (*Tenant, bool)

	// Set stores a tenant in cache with the given TTL.
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration)

	// Delete removes a tenant from cache.
	Delete(ctx context.Context, key string)

	// Close releases any resources held by the cache.
	Close() error
}

// CachedDirectory decorates a Directory with a Cache. Both lookup paths go
// through the same cache keyed by code and by id. Inactive tenants are cached
// too: the resolver still has to reject them, and caching the row avoids
// hammering the registry with lookups for a deactivated hospital.
type CachedDirectory struct {
	next  Directory
	cache Cache
	ttl   time.Duration
}

// NewCachedDirectory wraps dir with the given cache. A non-positive ttl
// defaults to five minutes.
func NewCachedDirectory(dir Directory, cache Cache, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDirectory{next: dir, cache: cache, ttl: ttl}
}

func (d *CachedDirectory) GetByCode(ctx context.Context, code string) (*Tenant, error) {
	if t, ok := d.cache.Get(ctx, "code:"+code); ok {
		return t, nil
	}
	t, err := d.next.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	d.cache.Set(ctx, "code:"+code, t, d.ttl)
	d.cache.Set(ctx, "id:"+t.ID.String(), t, d.ttl)
	return t, nil
}

func (d *CachedDirectory) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	if t, ok := d.cache.Get(ctx, "id:"+id.String()); ok {
		return t, nil
	}
	t, err := d.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.cache.Set(ctx, "id:"+t.ID.String(), t, d.ttl)
	d.cache.Set(ctx, "code:"+t.Code, t, d.ttl)
	return t, nil
}

// Invalidate drops a tenant from the cache, for registry-side updates.
func (d *CachedDirectory) Invalidate(ctx context.Context, t *Tenant) {
	if t == nil {
		return
	}
	d.cache.Delete(ctx, "code:"+t.Code)
	d.cache.Delete(ctx, "id:"+t.ID.String())
}

var errCacheClosed = errors.New("tenant cache closed")

// DefaultCacheSize is the default maximum number of items in the in-memory cache.
const DefaultCacheSize = 1000

// inMemoryCache is the default in-memory cache implementation with TTL
// expiry and LRU eviction.
type inMemoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	lru     []string
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// NewInMemoryCache creates an in-memory cache with automatic cleanup.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

// NewInMemoryCacheWithSize creates an in-memory cache with a size limit.
func NewInMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	c := &inMemoryCache{
		items:   make(map[string]cacheItem),
		lru:     make([]string, 0, maxSize),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *inMemoryCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, key)
		c.removeLRU(key)
		return nil, false
	}

	c.touchLRU(key)
	return item.tenant, true
}

func (c *inMemoryCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		if len(c.lru) > 0 {
			evict := c.lru[0]
			delete(c.items, evict)
			c.lru = c.lru[1:]
		}
	}

	c.items[key] = cacheItem{tenant: t, expiresAt: time.Now().Add(ttl)}
	c.touchLRU(key)
}

func (c *inMemoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.removeLRU(key)
}

func (c *inMemoryCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *inMemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			c.removeLRU(key)
		}
	}
}

// touchLRU moves the key to the most-recently-used position.
func (c *inMemoryCache) touchLRU(key string) {
	c.removeLRU(key)
	c.lru = append(c.lru, key)
}

func (c *inMemoryCache) removeLRU(key string) {
	for i, k := range c.lru {
		if k == key {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

func (c *inMemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// noOpCache disables caching; every lookup goes to the directory.
type noOpCache struct{}

// NewNoOpCache creates a cache that does not cache.
func NewNoOpCache() Cache { return noOpCache{} }

func (noOpCache) Get(ctx context.Context, key string) (*Tenant, bool)              { return nil, false }
func (noOpCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {}
func (noOpCache) Delete(ctx context.Context, key string)                           {}
func (noOpCache) Close() error                                                     { return nil }
