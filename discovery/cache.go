package discovery

import "sync"

// DefaultCacheCapacity is how many request identifiers an agent remembers.
const DefaultCacheCapacity = 100

// Cache is a bounded set of request identifiers an agent has already processed.
// Once full it stops recording; existing entries are never evicted or expired.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ids      map[int32]struct{}
}

// NewCache returns an empty cache. A non-positive capacity selects DefaultCacheCapacity.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		ids:      make(map[int32]struct{}, capacity),
	}
}

// Seen reports whether id was previously recorded.
func (c *Cache) Seen(id int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[id]
	return ok
}

// Record inserts id and reports whether it is now present. Recording an id that
// is already present is a no-op; a full cache drops new ids and returns false.
func (c *Cache) Record(id int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[id]; ok {
		return true
	}
	if len(c.ids) >= c.capacity {
		return false
	}
	c.ids[id] = struct{}{}
	return true
}

// Len returns the number of recorded ids.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

// Cap returns the capacity.
func (c *Cache) Cap() int {
	return c.capacity
}
