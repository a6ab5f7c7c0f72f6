package module

import "sync"

// Cache is the arena owning every Module of one load tree. The process-wide
// built-in cache is a Cache as well.
type Cache struct {
	modules map[ID]*Module
	order   []ID
	mu      sync.RWMutex
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		modules: make(map[ID]*Module),
	}
}

// NewTree creates a cache holding a single root module.
func NewTree(rootID ID, exports any) (*Cache, *Module) {
	c := NewCache()
	return c, c.Create(rootID, nil, exports)
}

// Get looks up a module by id.
func (c *Cache) Get(id ID) (*Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[id]
	return m, ok
}

// Create inserts a fresh module under id with its initial exports and
// returns it. A non-nil parent from this cache records the new module as its
// child. An existing record with the same id is replaced.
func (c *Cache) Create(id ID, parent *Module, exports any) *Module {
	m := &Module{
		id:      id,
		cache:   c,
		exports: exports,
		isRoot:  parent == nil,
	}
	if parent != nil {
		m.parent = parent.id
	}

	c.mu.Lock()
	if _, exists := c.modules[id]; !exists {
		c.order = append(c.order, id)
	}
	c.modules[id] = m
	c.mu.Unlock()

	if parent != nil && parent.cache == c {
		parent.addChild(id)
	}
	return m
}

// Evict removes the record for id. It returns false when there was none.
func (c *Cache) Evict(id ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.modules[id]; !ok {
		return false
	}
	delete(c.modules, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Modules returns all records in insertion order.
func (c *Cache) Modules() []*Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Module, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.modules[id])
	}
	return out
}

// Len returns the number of records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.modules)
}
