package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"

	modloader "github.com/wippyai/module-loader"
	"github.com/wippyai/module-loader/errors"
	"github.com/wippyai/module-loader/eventloop"
	"github.com/wippyai/module-loader/extension"
	"github.com/wippyai/module-loader/fetch"
	"github.com/wippyai/module-loader/fsys"
	"github.com/wippyai/module-loader/jshost"
	"github.com/wippyai/module-loader/loader"
	"github.com/wippyai/module-loader/module"
	"github.com/wippyai/module-loader/native"
	"github.com/wippyai/module-loader/pathalg"
	"github.com/wippyai/module-loader/transform"
)

// Options configures a Runtime. The zero value is usable.
type Options struct {
	// FS backs module lookup and reads. Defaults to the OS filesystem.
	FS afero.Fs
	// SearchPath lists directories for bare specifiers.
	SearchPath []string
	// Fetcher serves URL modules. Defaults to HTTP with HTTPTimeout.
	Fetcher     modloader.Fetcher
	HTTPTimeout time.Duration
	// Stdout and Stderr back console.log and console.error.
	Stdout io.Writer
	Stderr io.Writer
	// Cwd anchors relative entry paths. Defaults to the process directory.
	Cwd string
	// MaxInflight bounds concurrent deferred I/O calls.
	MaxInflight int64
	// DataTransforms registers the json, toml, yaml, hcl and cue transforms.
	DataTransforms bool
	// AddonMemoryLimitPages caps addon memory in 64KB pages.
	AddonMemoryLimitPages uint32
}

// Runtime is one module loader process.
type Runtime struct {
	proc    *loader.Process
	loader  *loader.Loader
	host    *jshost.Host
	addons  *native.Loader
	loop    *eventloop.Loop
	scratch *module.Module
	cwd     string
}

// New builds a runtime from opts.
func New(ctx context.Context, opts Options) (*Runtime, error) {
	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		cwd = wd
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewHTTP(opts.HTTPTimeout)
	}

	var hostOpts []jshost.Option
	if opts.Stdout != nil {
		hostOpts = append(hostOpts, jshost.WithStdout(opts.Stdout))
	}
	if opts.Stderr != nil {
		hostOpts = append(hostOpts, jshost.WithStderr(opts.Stderr))
	}
	host := jshost.New(hostOpts...)

	proc := loader.NewProcess(nil)
	if err := installBuiltins(proc); err != nil {
		return nil, err
	}
	if opts.DataTransforms {
		if err := transform.RegisterDefaults(proc.Registry); err != nil {
			return nil, err
		}
	}

	addons := native.New(ctx, &native.Config{MemoryLimitPages: opts.AddonMemoryLimitPages})
	loop := eventloop.New(opts.MaxInflight)

	l, err := loader.New(ctx, proc, loader.Config{
		Host:       host,
		FS:         fsys.New(fs),
		Fetcher:    fetcher,
		Addons:     addons,
		Loop:       loop,
		SearchPath: opts.SearchPath,
	})
	if err != nil {
		_ = addons.Close(ctx)
		return nil, err
	}

	_, scratch := module.NewTree(loader.MainID, host.NewExports())
	if err := scratch.SetFilename(pathalg.Join(cwd, "[require]")); err != nil {
		return nil, err
	}

	return &Runtime{
		proc:    proc,
		loader:  l,
		host:    host,
		addons:  addons,
		loop:    loop,
		scratch: scratch,
		cwd:     cwd,
	}, nil
}

// Close releases addon instances.
func (r *Runtime) Close(ctx context.Context) error {
	return r.addons.Close(ctx)
}

// EntryLocation anchors entry at the working directory unless it is absolute
// or a URL.
func (r *Runtime) EntryLocation(entry string) string {
	if strings.HasPrefix(entry, "/") || fetch.IsURL(entry) {
		return entry
	}
	return pathalg.Join(r.cwd, entry)
}

// RunMain loads entry as the main module and runs the event loop until every
// deferred load has settled. The first failure is returned: the entry's own
// load error, a cancelled ctx, or an error thrown by a require.async
// callback.
func (r *Runtime) RunMain(ctx context.Context, entry string) (*module.Module, error) {
	var mainErr error
	root := r.loader.RunMain(r.EntryLocation(entry), func(_ *module.Module, err error) {
		mainErr = err
	})
	if err := r.drain(ctx); err != nil {
		return root, err
	}
	if mainErr != nil {
		return root, mainErr
	}
	return root, nil
}

// Require loads specifier on behalf of the main module, or relative to the
// working directory before RunMain, then drains deferred work it started.
func (r *Runtime) Require(ctx context.Context, specifier string) (any, error) {
	exports, err := r.loader.Require(specifier, r.requester())
	if err != nil {
		return nil, err
	}
	if err := r.drain(ctx); err != nil {
		return exports, err
	}
	return exports, nil
}

// Locate reports the id and location specifier would load from, without
// loading it.
func (r *Runtime) Locate(specifier string) (module.ID, string, error) {
	return r.loader.Locate(specifier, r.requester())
}

// RegisterExtension installs a transform for every later load.
func (r *Runtime) RegisterExtension(ext string, t extension.Transform) error {
	return r.loader.RegisterExtension(ext, t)
}

// Main returns the entry module, or nil before RunMain.
func (r *Runtime) Main() *module.Module {
	return r.loader.Main()
}

// Modules lists the records of the main tree (or the working-directory tree
// before RunMain) followed by the loaded built-ins.
func (r *Runtime) Modules() []*module.Module {
	out := r.requester().Cache().Modules()
	return append(out, r.proc.Natives.Modules()...)
}

// Builtins lists the built-in module names.
func (r *Runtime) Builtins() []string {
	return r.proc.Builtins()
}

// SearchPath returns the configured search path.
func (r *Runtime) SearchPath() []string {
	return r.loader.SearchPath()
}

// Inspect renders an exports value for display.
func (r *Runtime) Inspect(v any) string {
	return r.host.Inspect(v)
}

func (r *Runtime) requester() *module.Module {
	if m := r.loader.Main(); m != nil {
		return m
	}
	return r.scratch
}

func (r *Runtime) drain(ctx context.Context) error {
	if err := r.loop.Run(ctx); err != nil {
		return errors.New(errors.PhaseLoad, errors.KindExecution).
			Detail("event loop stopped").Cause(err).Build()
	}
	if uncaught := r.host.Uncaught(); len(uncaught) > 0 {
		return uncaught[0]
	}
	return nil
}
