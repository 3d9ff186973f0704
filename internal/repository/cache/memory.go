package cache

import (
	"container/list"
	"sync"
)

type memoryEntry struct {
	key   TileCacheKey
	value TileCacheValue
}

// MemoryCache keeps the most recently read tiles in memory in front of
// another Store. A tile never changes once written, so a held entry is
// never stale. Only reads populate it; batch writes pass straight through.
type MemoryCache struct {
	next    Store
	mu      sync.Mutex
	maxSize int
	items   map[TileCacheKey]*list.Element
	lru     *list.List
}

var _ Store = (*MemoryCache)(nil)

func NewMemoryCache(next Store, maxSize int) *MemoryCache {
	return &MemoryCache{
		next:    next,
		maxSize: maxSize,
		items:   make(map[TileCacheKey]*list.Element),
		lru:     list.New(),
	}
}

func (c *MemoryCache) Path(k TileCacheKey) string {
	return c.next.Path(k)
}

func (c *MemoryCache) Exists(k TileCacheKey) (Existence, error) {
	if _, ok := c.load(k); ok {
		return Found, nil
	}
	return c.next.Exists(k)
}

func (c *MemoryCache) HasMap(mapID string) (Existence, error) {
	return c.next.HasMap(mapID)
}

func (c *MemoryCache) Get(k TileCacheKey) (TileCacheValue, error) {
	if v, ok := c.load(k); ok {
		return v, nil
	}

	v, err := c.next.Get(k)
	if err != nil {
		return nil, err
	}

	c.store(k, v)
	return v, nil
}

func (c *MemoryCache) Set(k TileCacheKey, v TileCacheValue) error {
	return c.next.Set(k, v)
}

func (c *MemoryCache) Stats(mapID string) (MapStats, error) {
	return c.next.Stats(mapID)
}

// Len is the number of tiles held in memory.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *MemoryCache) load(k TileCacheKey) (TileCacheValue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[k]
	if !ok {
		return nil, false
	}

	c.lru.MoveToFront(elem)
	return elem.Value.(*memoryEntry).value, true
}

func (c *MemoryCache) store(k TileCacheKey, v TileCacheValue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[k]; ok {
		c.lru.MoveToFront(elem)
		return
	}

	if c.lru.Len() >= c.maxSize {
		oldest := c.lru.Back()
		if oldest != nil {
			delete(c.items, oldest.Value.(*memoryEntry).key)
			c.lru.Remove(oldest)
		}
	}

	c.items[k] = c.lru.PushFront(&memoryEntry{key: k, value: v})
}
