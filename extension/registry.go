package extension

import (
	"regexp"
	"sync"

	"github.com/wippyai/module-loader/errors"
)

var validExt = regexp.MustCompile(`^\.\w+$`)

// Result is what a Transform produces: either source text to execute, or a
// value that replaces the module's exports.
type Result struct {
	value  any
	text   string
	source bool
}

// Source returns a Result that continues to execution with text.
func Source(text string) Result {
	return Result{text: text, source: true}
}

// Value returns a Result that becomes the module's exports as is.
func Value(v any) Result {
	return Result{value: v}
}

// IsSource reports whether the result carries source text.
func (r Result) IsSource() bool { return r.source }

// Text returns the source text of a Source result.
func (r Result) Text() string { return r.text }

// Opaque returns the value of a Value result.
func (r Result) Opaque() any { return r.value }

// Transform converts module content before compilation.
type Transform interface {
	Transform(content []byte) (Result, error)
}

// TransformFunc adapts a plain function to Transform.
type TransformFunc func(content []byte) (Result, error)

// Transform calls f(content).
func (f TransformFunc) Transform(content []byte) (Result, error) {
	return f(content)
}

// Registry maps extensions to transforms.
type Registry struct {
	transforms map[string]Transform
	order      []string
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		transforms: make(map[string]Transform),
	}
}

// Register installs t for ext, replacing any earlier transform.
func (r *Registry) Register(ext string, t Transform) error {
	if !validExt.MatchString(ext) {
		return errors.InvalidExtension(ext)
	}
	if !invocable(t) {
		return errors.InvalidTransform(ext)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transforms[ext]; !ok {
		r.order = append(r.order, ext)
	}
	r.transforms[ext] = t
	return nil
}

// Lookup returns the transform registered for ext.
func (r *Registry) Lookup(ext string) (Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transforms[ext]
	return t, ok
}

// Extensions returns the registered extensions in registration order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func invocable(t Transform) bool {
	if t == nil {
		return false
	}
	if f, ok := t.(TransformFunc); ok && f == nil {
		return false
	}
	return true
}
