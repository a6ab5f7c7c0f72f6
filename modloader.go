package modloader

import (
	"context"

	"github.com/wippyai/module-loader/extension"
	"github.com/wippyai/module-loader/module"
)

// FileSystem is the blocking filesystem collaborator.
type FileSystem interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
}

// Fetcher retrieves module source for URL specifiers.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// AddonLoader instantiates a native addon from its bytes and returns the
// values to place on the module's exports.
type AddonLoader interface {
	LoadAddon(ctx context.Context, location string, code []byte) (map[string]any, error)
}

// Host is the script host: it owns the representation of exports values and
// runs module bodies.
type Host interface {
	// NewExports returns a fresh, empty exports object.
	NewExports() any
	// Adopt converts a Go value produced by a transform into the host's
	// representation.
	Adopt(v any) any
	// Populate sets each entry of values on exports in place.
	Populate(exports any, values map[string]any) error
	// Compile wraps source in the five-binding function and parses it.
	Compile(source, filename string) (Program, error)
}

// Program is a compiled module body.
type Program interface {
	// Run invokes the body against frame. The returned error is opaque.
	Run(frame *Frame) error
}

// Frame holds the five bindings a module body sees.
type Frame struct {
	Exports  any
	Require  *Require
	Module   *module.Module
	Filename string
	Dirname  string
}

// Require is the loading function bound to one requesting module.
type Require struct {
	// Sync loads specifier and returns its exports, or fails.
	Sync func(specifier string) (any, error)
	// Async loads specifier and reports through k on the loop goroutine.
	Async func(specifier string, k func(exports any, err error))
	// RegisterExtension installs a transform for every later load.
	RegisterExtension func(ext string, t extension.Transform) error
	// Main is the entry module of the process, nil before bootstrap.
	Main *module.Module
	// Paths is the configured search path.
	Paths []string
}
