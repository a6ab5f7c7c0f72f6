// Package loader resolves, reads, compiles, and caches modules.
//
// The blocking API (Require) and the deferred API (RequireAsync, RunMain)
// run the same load path. They differ only in the strategy used at the three
// suspension points: existence probes, content reads, and URL fetches.
// Blocking mode answers inline. Deferred mode runs the call on a worker and
// resumes on the event loop.
//
// A module record is inserted into its tree's cache before its content is
// read, so a circular request finds the in-progress record and receives its
// exports as they are at that moment.
package loader

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	modloader "github.com/wippyai/module-loader"
	"github.com/wippyai/module-loader/errors"
	"github.com/wippyai/module-loader/eventloop"
	"github.com/wippyai/module-loader/extension"
	"github.com/wippyai/module-loader/fsys"
	"github.com/wippyai/module-loader/module"
	"github.com/wippyai/module-loader/pathalg"
	"github.com/wippyai/module-loader/resolver"
)

// MainID is the id of every tree root started by RunMain.
const MainID module.ID = "."

var errNoFetcher = stderrors.New("no fetcher configured for URL modules")

// Config wires a Loader to its collaborators.
type Config struct {
	Host modloader.Host
	FS   modloader.FileSystem
	// Fetcher serves URL modules in deferred mode. Optional.
	Fetcher modloader.Fetcher
	// Addons instantiates ".wasm" modules. Optional.
	Addons modloader.AddonLoader
	// Loop runs deferred continuations. Without it only Require works.
	Loop       *eventloop.Loop
	SearchPath []string
}

// Loader loads modules for one process.
type Loader struct {
	ctx      context.Context
	proc     *Process
	resolver *resolver.Resolver
	host     modloader.Host
	fs       modloader.FileSystem
	dfs      *fsys.Deferred
	fetcher  modloader.Fetcher
	addons   modloader.AddonLoader
	loop     *eventloop.Loop
	main     *module.Module
	mu       sync.RWMutex
}

// New creates a loader bound to proc.
func New(ctx context.Context, proc *Process, cfg Config) (*Loader, error) {
	if proc == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "process context is required")
	}
	if cfg.Host == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "script host is required")
	}
	if cfg.FS == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "filesystem is required")
	}

	l := &Loader{
		ctx:      ctx,
		proc:     proc,
		resolver: resolver.New(proc.Registry, cfg.SearchPath),
		host:     cfg.Host,
		fs:       cfg.FS,
		fetcher:  cfg.Fetcher,
		addons:   cfg.Addons,
		loop:     cfg.Loop,
	}
	if cfg.Loop != nil {
		l.dfs = fsys.NewDeferred(cfg.FS, cfg.Loop)
	}
	return l, nil
}

// Process returns the process context.
func (l *Loader) Process() *Process { return l.proc }

// SearchPath returns a copy of the search path.
func (l *Loader) SearchPath() []string { return l.resolver.SearchPath() }

// Main returns the entry module, or nil before RunMain.
func (l *Loader) Main() *module.Module {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.main
}

// RegisterExtension installs a transform for every later resolution and
// compilation.
func (l *Loader) RegisterExtension(ext string, t extension.Transform) error {
	if err := l.proc.Registry.Register(ext, t); err != nil {
		return err
	}
	Logger().Debug("extension registered", zap.String("ext", ext))
	return nil
}

// Locate resolves specifier for requester and finds its location without
// loading it. Built-ins locate to their own name.
func (l *Loader) Locate(specifier string, requester *module.Module) (module.ID, string, error) {
	res, err := l.resolver.Resolve(specifier, requester, false)
	if err != nil {
		return "", "", err
	}
	if !res.Relative {
		if _, ok := l.proc.builtin(specifier); ok {
			return res.ID, specifier, nil
		}
		if _, ok := l.proc.internal(specifier); ok {
			return res.ID, specifier, nil
		}
	}
	location, err := l.resolver.Find(res, l.fs.Exists)
	if err != nil {
		return "", "", err
	}
	return res.ID, location, nil
}

// Require loads specifier on behalf of requester and blocks until it is
// loaded, returning its exports.
func (l *Loader) Require(specifier string, requester *module.Module) (any, error) {
	if requester == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "require of "+specifier+" without a requester")
	}
	var (
		exports any
		err     error
	)
	l.load(specifier, requester, blocking{l}, func(m *module.Module, e error) {
		if e != nil {
			err = e
			return
		}
		exports = m.Exports()
	})
	return exports, err
}

// RequireAsync loads specifier on behalf of requester and reports through k.
// A cached module is reported before RequireAsync returns; everything else
// is reported from the loop.
func (l *Loader) RequireAsync(specifier string, requester *module.Module, k func(exports any, err error)) {
	if l.loop == nil {
		k(nil, errors.InvalidInput(errors.PhaseLoad, "deferred require needs an event loop"))
		return
	}
	if requester == nil {
		k(nil, errors.InvalidInput(errors.PhaseLoad, "require of "+specifier+" without a requester"))
		return
	}
	l.load(specifier, requester, deferred{l}, func(m *module.Module, err error) {
		if err != nil {
			k(nil, err)
			return
		}
		k(m.Exports(), nil)
	})
}

// RunMain creates a new tree rooted at MainID, makes it the process main
// module, and loads location into it in deferred mode. The root is returned
// immediately; k fires once it settles.
func (l *Loader) RunMain(location string, k func(root *module.Module, err error)) *module.Module {
	_, root := module.NewTree(MainID, l.host.NewExports())
	l.mu.Lock()
	l.main = root
	l.mu.Unlock()

	if l.loop == nil {
		err := errors.InvalidInput(errors.PhaseLoad, "entry load needs an event loop")
		root.Fail(err)
		k(nil, err)
		return root
	}

	Logger().Debug("main", zap.String("location", location))
	l.loadFile(root, location, deferred{l}, k)
	return root
}

func (l *Loader) load(specifier string, requester *module.Module, s strategy, k func(*module.Module, error)) {
	res, err := l.resolver.Resolve(specifier, requester, s.deferred())
	if err != nil {
		k(nil, err)
		return
	}

	Logger().Debug("require",
		zap.String("specifier", specifier),
		zap.String("id", string(res.ID)),
		zap.String("from", string(requester.ID())),
		zap.Bool("deferred", s.deferred()))

	if m, ok := l.cached(res.ID, requester); ok {
		Logger().Debug("cache hit", zap.String("id", string(res.ID)), zap.Stringer("state", m.State()))
		k(m, nil)
		return
	}

	if !res.Relative && !res.Remote {
		if src, ok := l.proc.builtin(specifier); ok {
			l.loadBuiltin(res.ID, src, s, k)
			return
		}
		if build, ok := l.proc.internal(specifier); ok {
			l.loadInternal(res.ID, build, k)
			return
		}
	}

	if res.Remote {
		m := requester.Cache().Create(res.ID, requester, l.host.NewExports())
		l.loadFile(m, string(res.ID), s, k)
		return
	}

	l.resolver.FindLocation(res, s.exists, func(location string, err error) {
		if err != nil {
			k(nil, err)
			return
		}
		// Another load of the same id may have finished the search first.
		if m, ok := l.cached(res.ID, requester); ok {
			k(m, nil)
			return
		}
		m := requester.Cache().Create(res.ID, requester, l.host.NewExports())
		l.loadFile(m, location, s, k)
	})
}

// cached looks id up in the native cache, then in requester's tree. A failed
// record is evicted so the request loads it again.
func (l *Loader) cached(id module.ID, requester *module.Module) (*module.Module, bool) {
	for _, c := range []*module.Cache{l.proc.Natives, requester.Cache()} {
		m, ok := c.Get(id)
		if !ok {
			continue
		}
		if m.State() == module.StateFailed {
			Logger().Debug("retrying failed module", zap.String("id", string(id)))
			c.Evict(id)
			continue
		}
		return m, true
	}
	return nil, false
}

func (l *Loader) loadBuiltin(id module.ID, source string, s strategy, k func(*module.Module, error)) {
	Logger().Debug("compiling builtin", zap.String("id", string(id)))
	m := l.proc.Natives.Create(id, nil, l.host.NewExports())
	m.Start()
	l.compile(m, []byte(source), string(id), s, k)
}

func (l *Loader) loadInternal(id module.ID, build func() map[string]any, k func(*module.Module, error)) {
	m := l.proc.Natives.Create(id, nil, l.host.NewExports())
	m.Start()
	if err := l.host.Populate(m.Exports(), build()); err != nil {
		l.fail(m, errors.Execution(string(id), err), k)
		return
	}
	m.Finish()
	k(m, nil)
}

func (l *Loader) loadFile(m *module.Module, location string, s strategy, k func(*module.Module, error)) {
	if err := m.SetFilename(location); err != nil {
		l.fail(m, errors.InvalidInput(errors.PhaseLoad, err.Error()), k)
		return
	}
	m.Start()
	Logger().Debug("loading file", zap.String("id", string(m.ID())), zap.String("location", location))

	s.read(location, func(data []byte, err error) {
		if err != nil {
			l.fail(m, errors.Read(location, err), k)
			return
		}
		if pathalg.Extname(location) == resolver.AddonExt {
			l.loadAddon(m, location, data, s, k)
			return
		}
		l.compile(m, data, location, s, k)
	})
}

func (l *Loader) loadAddon(m *module.Module, location string, code []byte, s strategy, k func(*module.Module, error)) {
	if l.addons == nil {
		l.fail(m, errors.New(errors.PhaseNative, errors.KindNativeLoad).
			Location(location).Detail("no addon loader configured").Build(), k)
		return
	}
	values, err := l.addons.LoadAddon(l.ctx, location, code)
	if err == nil {
		err = l.host.Populate(m.Exports(), values)
	}
	if err != nil {
		l.fail(m, errors.NativeLoad(location, err), k)
		return
	}
	l.complete(m, s, k)
}

// compile runs content as the body of m. A transform registered for the
// filename's extension sees the content first; a value result replaces the
// exports and the host is never involved.
func (l *Loader) compile(m *module.Module, content []byte, filename string, s strategy, k func(*module.Module, error)) {
	text := stripDirective(string(content))

	if t, ok := l.proc.Registry.Lookup(pathalg.Extname(filename)); ok {
		r, err := t.Transform([]byte(text))
		if err != nil {
			l.fail(m, errors.Compile(filename, err), k)
			return
		}
		if !r.IsSource() {
			m.SetExports(l.host.Adopt(r.Opaque()))
			l.complete(m, s, k)
			return
		}
		text = r.Text()
	}

	prog, err := l.host.Compile(text, filename)
	if err != nil {
		l.fail(m, errors.Compile(filename, err), k)
		return
	}
	if err := prog.Run(l.frame(m, filename)); err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.Execution(filename, err)
		}
		l.fail(m, err, k)
		return
	}
	l.complete(m, s, k)
}

// complete marks m Loaded. In deferred mode it first waits for every child
// recorded so far to settle.
func (l *Loader) complete(m *module.Module, s strategy, k func(*module.Module, error)) {
	if !s.deferred() {
		m.Finish()
		Logger().Debug("loaded", zap.String("id", string(m.ID())))
		k(m, nil)
		return
	}
	l.waitChildren(m.Children(), func() {
		m.Finish()
		Logger().Debug("loaded", zap.String("id", string(m.ID())))
		k(m, nil)
	})
}

func (l *Loader) waitChildren(children []*module.Module, done func()) {
	remaining := 0
	for _, c := range children {
		if !c.State().Terminal() {
			remaining++
		}
	}
	if remaining == 0 {
		done()
		return
	}

	Logger().Debug("waiting for children", zap.Int("pending", remaining))
	for _, c := range children {
		if c.State().Terminal() {
			continue
		}
		c.OnSettled(func() {
			l.loop.Post(func() {
				remaining--
				if remaining == 0 {
					done()
				}
			})
		})
	}
}

func (l *Loader) fail(m *module.Module, err error, k func(*module.Module, error)) {
	m.Fail(err)
	Logger().Debug("load failed", zap.String("id", string(m.ID())), zap.Error(err))
	k(nil, err)
}

func (l *Loader) frame(m *module.Module, filename string) *modloader.Frame {
	return &modloader.Frame{
		Exports: m.Exports(),
		Require: &modloader.Require{
			Sync: func(specifier string) (any, error) {
				return l.Require(specifier, m)
			},
			Async: func(specifier string, k func(any, error)) {
				l.RequireAsync(specifier, m, k)
			},
			RegisterExtension: l.RegisterExtension,
			Main:              l.Main(),
			Paths:             l.resolver.SearchPath(),
		},
		Module:   m,
		Filename: filename,
		Dirname:  pathalg.Dirname(filename),
	}
}

func stripDirective(text string) string {
	if !strings.HasPrefix(text, "#!") {
		return text
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[i:]
	}
	return ""
}
