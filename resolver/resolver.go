// Package resolver turns specifiers into cache ids and candidate locations.
//
// Resolve is pure: it computes the id and the directories to search without
// any I/O. FindLocation then walks those directories, probing candidates
// through a caller-supplied existence check that either answers inline
// (blocking mode) or later on the event loop (deferred mode). Both modes share
// the same walk, so their candidate order cannot drift apart.
package resolver

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/module-loader/errors"
	"github.com/wippyai/module-loader/extension"
	"github.com/wippyai/module-loader/fetch"
	"github.com/wippyai/module-loader/module"
	"github.com/wippyai/module-loader/pathalg"
)

const (
	// ScriptExt is the extension of plain script modules.
	ScriptExt = ".js"
	// AddonExt is the extension of native WebAssembly addons.
	AddonExt = ".wasm"
)

// ExistsFunc reports through k whether path exists.
type ExistsFunc func(path string, k func(found bool))

// Resolution is the outcome of Resolve.
type Resolution struct {
	// ID is the cache key.
	ID module.ID
	// Specifier is the text the requester wrote.
	Specifier string
	// Dirs are the directories to search, in order.
	Dirs []string
	// Remote marks a URL location; ID is the URL to fetch.
	Remote bool
	// Relative marks a specifier starting with ./ or ../.
	Relative bool
}

// Resolver resolves specifiers against a search path and the extension
// registry.
type Resolver struct {
	registry   *extension.Registry
	searchPath []string
}

// New creates a resolver. searchPath is copied.
func New(registry *extension.Registry, searchPath []string) *Resolver {
	paths := make([]string, len(searchPath))
	copy(paths, searchPath)
	return &Resolver{
		registry:   registry,
		searchPath: paths,
	}
}

// SearchPath returns a copy of the configured search path.
func (r *Resolver) SearchPath() []string {
	out := make([]string, len(r.searchPath))
	copy(out, r.searchPath)
	return out
}

// Resolve computes the id and candidate directories for specifier as
// requested by requester. deferred permits URL specifiers.
func (r *Resolver) Resolve(specifier string, requester *module.Module, deferred bool) (Resolution, error) {
	if fetch.IsURL(specifier) {
		if !deferred {
			return Resolution{}, errors.UnsupportedSpecifier(specifier, "synchronous network require not allowed")
		}
		return Resolution{ID: module.ID(specifier), Specifier: specifier, Remote: true}, nil
	}

	if ext := pathalg.Extname(specifier); ext == ScriptExt || ext == AddonExt {
		return Resolution{}, errors.UnsupportedSpecifier(specifier, "filename extensions are not accepted in module names")
	}

	if isRelative(specifier) {
		return r.resolveRelative(specifier, requester, deferred)
	}

	res := Resolution{
		ID:        module.ID(specifier),
		Specifier: specifier,
		Dirs:      r.SearchPath(),
	}
	if strings.HasPrefix(specifier, "/") {
		res.Dirs = []string{""}
	}
	return res, nil
}

func (r *Resolver) resolveRelative(specifier string, requester *module.Module, deferred bool) (Resolution, error) {
	if requester == nil {
		return Resolution{}, errors.InvalidInput(errors.PhaseResolve, "relative specifier "+specifier+" without a requester")
	}
	parentFile := requester.Filename()
	if parentFile == "" {
		return Resolution{}, errors.InvalidInput(errors.PhaseResolve,
			"relative specifier "+specifier+" from unresolved module "+string(requester.ID()))
	}

	if fetch.IsURL(parentFile) {
		if !deferred {
			return Resolution{}, errors.UnsupportedSpecifier(specifier, "synchronous network require not allowed")
		}
		loc, err := resolveURL(parentFile, specifier)
		if err != nil {
			return Resolution{}, errors.New(errors.PhaseResolve, errors.KindUnsupportedSpecifier).
				Specifier(specifier).Location(parentFile).Cause(err).Build()
		}
		return Resolution{ID: module.ID(loc), Specifier: specifier, Remote: true, Relative: true}, nil
	}

	parentID := string(requester.ID())
	if r.isIndexFile(pathalg.Basename(parentFile, "")) {
		parentID += "/"
	}

	return Resolution{
		ID:        module.ID(pathalg.Join(pathalg.Dirname(parentID), specifier)),
		Specifier: specifier,
		Dirs:      []string{pathalg.Dirname(parentFile)},
		Relative:  true,
	}, nil
}

// Probe lists the candidate locations for target inside dir, in the order
// they are tried.
func (r *Resolver) Probe(target, dir string) []string {
	exts := r.registry.Extensions()
	out := make([]string, 0, 4+2*len(exts))
	out = append(out,
		pathalg.Join(dir, target+ScriptExt),
		pathalg.Join(dir, target+AddonExt),
		pathalg.Join(dir, target, "index"+ScriptExt),
		pathalg.Join(dir, target, "index"+AddonExt),
	)
	for _, ext := range exts {
		out = append(out,
			pathalg.Join(dir, target+ext),
			pathalg.Join(dir, target, "index"+ext),
		)
	}
	return out
}

// FindLocation searches res.Dirs in order and reports the first existing
// candidate to k. Every pattern of one directory is tried before the next
// directory. Exhausting all directories reports a resolution error carrying
// res.Specifier.
func (r *Resolver) FindLocation(res Resolution, exists ExistsFunc, k func(location string, err error)) {
	dirs := res.Dirs

	var tryDir func(i int)
	tryDir = func(i int) {
		if i >= len(dirs) {
			Logger().Debug("module not found",
				zap.String("specifier", res.Specifier),
				zap.Strings("dirs", dirs))
			k("", errors.Resolution(res.Specifier))
			return
		}

		// Probed when the walk reaches the directory, so extensions
		// registered meanwhile take part.
		candidates := r.Probe(res.Specifier, dirs[i])
		Logger().Debug("searching directory",
			zap.String("specifier", res.Specifier),
			zap.String("dir", dirs[i]))

		var tryCandidate func(j int)
		tryCandidate = func(j int) {
			if j >= len(candidates) {
				tryDir(i + 1)
				return
			}
			exists(candidates[j], func(found bool) {
				if found {
					k(candidates[j], nil)
					return
				}
				tryCandidate(j + 1)
			})
		}
		tryCandidate(0)
	}
	tryDir(0)
}

// Find is the blocking form of FindLocation.
func (r *Resolver) Find(res Resolution, exists func(path string) bool) (string, error) {
	var (
		location string
		err      error
	)
	r.FindLocation(res, func(path string, k func(bool)) {
		k(exists(path))
	}, func(l string, e error) {
		location, err = l, e
	})
	return location, err
}

func (r *Resolver) isIndexFile(base string) bool {
	if !strings.HasPrefix(base, "index.") {
		return false
	}
	ext := pathalg.Extname(base)
	if base != "index"+ext {
		return false
	}
	if ext == ScriptExt || ext == AddonExt {
		return true
	}
	_, ok := r.registry.Lookup(ext)
	return ok
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

func resolveURL(base, specifier string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(specifier)
	if err != nil {
		return "", err
	}
	u := b.ResolveReference(ref)
	if pathalg.Extname(u.Path) == "" {
		u.Path += ScriptExt
	}
	return u.String(), nil
}
