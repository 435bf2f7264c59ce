package cache

import (
	"sync"

	"github.com/overlaykit/markers/pkg/core"
)

// EntityCache holds the last known world origin of every entity the host reported.
// Lookups happen on every marker creation, so reads never touch storage.
type EntityCache struct {
	m        sync.Mutex
	Entities map[int]core.WorldVector
}

func NewEntityCache() *EntityCache {
	return &EntityCache{
		m:        sync.Mutex{},
		Entities: make(map[int]core.WorldVector),
	}
}

func (c *EntityCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Entities = make(map[int]core.WorldVector)
}

// AbsOrigin returns the entity's absolute world origin.
func (c *EntityCache) AbsOrigin(id int) (core.WorldVector, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if p, ok := c.Entities[id]; ok {
		return p, true
	}
	return core.WorldVector{}, false
}

func (c *EntityCache) Set(id int, pos core.WorldVector) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Entities[id] = pos
}

func (c *EntityCache) Delete(id int) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.Entities, id)
}

func (c *EntityCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.Entities)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// Inc increments and returns the new value.
func (c *SafeCounter) Inc() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v++
	return c.v
}
