package loader

import (
	"sync"

	"github.com/wippyai/module-loader/extension"
	"github.com/wippyai/module-loader/module"
)

// Process is the state shared by every load tree of one process: the
// extension registry, the cache of built-in modules, and the built-in
// definitions themselves.
type Process struct {
	Registry *extension.Registry
	Natives  *module.Cache

	builtins  map[string]string
	internals map[string]func() map[string]any
	mu        sync.RWMutex
}

// NewProcess creates a process context around registry. A nil registry gets
// a fresh one.
func NewProcess(registry *extension.Registry) *Process {
	if registry == nil {
		registry = extension.NewRegistry()
	}
	return &Process{
		Registry:  registry,
		Natives:   module.NewCache(),
		builtins:  make(map[string]string),
		internals: make(map[string]func() map[string]any),
	}
}

// AddBuiltin registers script source shipped with the process under name.
// It is compiled on first request.
func (p *Process) AddBuiltin(name, source string) {
	p.mu.Lock()
	p.builtins[name] = source
	p.mu.Unlock()
}

// AddInternal registers a built-in whose exports are produced by build.
func (p *Process) AddInternal(name string, build func() map[string]any) {
	p.mu.Lock()
	p.internals[name] = build
	p.mu.Unlock()
}

// Builtins lists the names of every built-in, script or internal.
func (p *Process) Builtins() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.builtins)+len(p.internals))
	for name := range p.builtins {
		out = append(out, name)
	}
	for name := range p.internals {
		out = append(out, name)
	}
	return out
}

func (p *Process) builtin(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	src, ok := p.builtins[name]
	return src, ok
}

func (p *Process) internal(name string) (func() map[string]any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	build, ok := p.internals[name]
	return build, ok
}
