package module

import (
	"fmt"
	"sync"
)

// ID identifies a module within one cache.
type ID string

// State is a module's position in its lifecycle.
type State int

const (
	StateCreated State = iota
	StateLoading
	StateLoaded
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateLoaded || s == StateFailed
}

// Module is one loaded (or loading) unit.
type Module struct {
	exports  any
	err      error
	cache    *Cache
	id       ID
	filename string
	parent   ID
	children []ID
	waiters  []func()
	state    State
	isRoot   bool
	mu       sync.Mutex
}

// ID returns the module's id.
func (m *Module) ID() ID { return m.id }

// Cache returns the cache that owns m.
func (m *Module) Cache() *Cache { return m.cache }

// Exports returns the current exports value.
func (m *Module) Exports() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exports
}

// SetExports replaces the exports value. Requesters that already hold the
// previous value keep it.
func (m *Module) SetExports(v any) {
	m.mu.Lock()
	m.exports = v
	m.mu.Unlock()
}

// Filename returns the resolved location, or "" before resolution.
func (m *Module) Filename() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filename
}

// SetFilename records the resolved location. It can be set once.
func (m *Module) SetFilename(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.filename != "" && m.filename != name {
		return fmt.Errorf("module %q already bound to %s", m.id, m.filename)
	}
	m.filename = name
	return nil
}

// State returns the lifecycle state.
func (m *Module) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the failure recorded by Fail.
func (m *Module) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Parent returns the requesting module, or nil for a tree root.
func (m *Module) Parent() *Module {
	if m.isRoot || m.cache == nil {
		return nil
	}
	p, _ := m.cache.Get(m.parent)
	return p
}

// Children returns the modules created while m's body ran, in request order.
func (m *Module) Children() []*Module {
	m.mu.Lock()
	ids := make([]ID, len(m.children))
	copy(ids, m.children)
	m.mu.Unlock()

	out := make([]*Module, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.cache.Get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// Start moves a created module to Loading.
func (m *Module) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCreated {
		return false
	}
	m.state = StateLoading
	return true
}

// Finish marks the module Loaded and notifies waiters.
func (m *Module) Finish() bool {
	return m.settle(StateLoaded, nil)
}

// Fail marks the module Failed with err and notifies waiters.
func (m *Module) Fail(err error) bool {
	return m.settle(StateFailed, err)
}

// OnSettled runs fn once the module is Loaded or Failed. It runs fn
// immediately when that already happened.
func (m *Module) OnSettled(fn func()) {
	m.mu.Lock()
	if m.state.Terminal() {
		m.mu.Unlock()
		fn()
		return
	}
	m.waiters = append(m.waiters, fn)
	m.mu.Unlock()
}

func (m *Module) settle(to State, err error) bool {
	m.mu.Lock()
	if m.state.Terminal() {
		m.mu.Unlock()
		return false
	}
	m.state = to
	m.err = err
	waiters := m.waiters
	m.waiters = nil
	m.mu.Unlock()

	for _, fn := range waiters {
		fn()
	}
	return true
}

func (m *Module) addChild(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.children {
		if c == id {
			return
		}
	}
	m.children = append(m.children, id)
}
