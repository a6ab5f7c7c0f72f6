package jshost

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dop251/goja"

	modloader "github.com/wippyai/module-loader"
	"github.com/wippyai/module-loader/extension"
	"github.com/wippyai/module-loader/module"
)

const (
	wrapperHead = "(function (exports, require, module, __filename, __dirname) { "
	wrapperTail = "\n});"
)

// Option configures a Host.
type Option func(*Host)

// WithStdout sets the writer behind console.log.
func WithStdout(w io.Writer) Option {
	return func(h *Host) { h.stdout = w }
}

// WithStderr sets the writer behind console.error.
func WithStderr(w io.Writer) Option {
	return func(h *Host) { h.stderr = w }
}

// Host implements modloader.Host on goja.
type Host struct {
	vm       *goja.Runtime
	modules  map[*module.Module]*goja.Object
	stdout   io.Writer
	stderr   io.Writer
	uncaught []error
}

// New creates a host with a fresh runtime.
func New(opts ...Option) *Host {
	h := &Host{
		vm:      goja.New(),
		modules: make(map[*module.Module]*goja.Object),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.installConsole()
	return h
}

// Runtime exposes the underlying goja runtime.
func (h *Host) Runtime() *goja.Runtime { return h.vm }

// Uncaught returns and clears the errors thrown by require.async callbacks,
// which have no caller to receive them.
func (h *Host) Uncaught() []error {
	out := h.uncaught
	h.uncaught = nil
	return out
}

func (h *Host) NewExports() any { return h.vm.NewObject() }

func (h *Host) Adopt(v any) any {
	if gv, ok := v.(goja.Value); ok {
		return gv
	}
	return h.vm.ToValue(v)
}

func (h *Host) Populate(exports any, values map[string]any) error {
	obj, ok := exports.(*goja.Object)
	if !ok {
		return fmt.Errorf("exports is %T, not an object", exports)
	}
	for name, v := range values {
		if err := obj.Set(name, h.value(v)); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

func (h *Host) Compile(source, filename string) (modloader.Program, error) {
	prog, err := goja.Compile(filename, wrapperHead+source+wrapperTail, false)
	if err != nil {
		return nil, err
	}
	return &program{h: h, prog: prog}, nil
}

// Inspect renders v for display: JSON where possible, otherwise its string
// form.
func (h *Host) Inspect(v any) string {
	val := h.value(v)
	if stringify, ok := goja.AssertFunction(h.vm.Get("JSON").ToObject(h.vm).Get("stringify")); ok {
		if out, err := stringify(goja.Undefined(), val); err == nil && !goja.IsUndefined(out) {
			return out.String()
		}
	}
	return val.String()
}

type program struct {
	h    *Host
	prog *goja.Program
}

func (p *program) Run(f *modloader.Frame) error {
	h := p.h
	wrapped, err := h.vm.RunProgram(p.prog)
	if err != nil {
		return unwrap(err)
	}
	fn, ok := goja.AssertFunction(wrapped)
	if !ok {
		return fmt.Errorf("%s: module wrapper is not a function", f.Filename)
	}

	exports := h.value(f.Exports)
	_, err = fn(exports,
		exports,
		h.requireFunc(f.Require),
		h.moduleObject(f.Module),
		h.vm.ToValue(f.Filename),
		h.vm.ToValue(f.Dirname),
	)
	if err != nil {
		return unwrap(err)
	}
	return nil
}

func (h *Host) value(v any) goja.Value {
	switch x := v.(type) {
	case nil:
		return goja.Undefined()
	case goja.Value:
		return x
	}
	return h.vm.ToValue(v)
}

func (h *Host) throw(err error) {
	panic(h.vm.NewGoError(err))
}

func (h *Host) requireFunc(req *modloader.Require) goja.Value {
	vm := h.vm
	fn := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		v, err := req.Sync(call.Argument(0).String())
		if err != nil {
			h.throw(err)
		}
		return h.value(v)
	}).(*goja.Object)

	_ = fn.Set("async", func(call goja.FunctionCall) goja.Value {
		cb, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("require.async: callback must be a function"))
		}
		req.Async(call.Argument(0).String(), func(v any, err error) {
			errVal := goja.Null()
			if err != nil {
				errVal = vm.NewGoError(err)
			}
			if _, cbErr := cb(goja.Undefined(), errVal, h.value(v)); cbErr != nil {
				h.uncaught = append(h.uncaught, unwrap(cbErr))
			}
		})
		return goja.Undefined()
	})

	_ = fn.Set("registerExtension", func(call goja.FunctionCall) goja.Value {
		ext := call.Argument(0).String()
		var t extension.Transform
		if f, ok := goja.AssertFunction(call.Argument(1)); ok {
			t = h.scriptTransform(f)
		}
		if err := req.RegisterExtension(ext, t); err != nil {
			h.throw(err)
		}
		return goja.Undefined()
	})

	paths := make([]any, len(req.Paths))
	for i, p := range req.Paths {
		paths[i] = p
	}
	_ = fn.Set("paths", vm.NewArray(paths...))

	if req.Main != nil {
		_ = fn.Set("main", h.moduleObject(req.Main))
	} else {
		_ = fn.Set("main", goja.Null())
	}
	return fn
}

// scriptTransform adapts a script function. A string result is source,
// anything else is the exports value.
func (h *Host) scriptTransform(f goja.Callable) extension.Transform {
	return extension.TransformFunc(func(content []byte) (extension.Result, error) {
		v, err := f(goja.Undefined(), h.vm.ToValue(string(content)))
		if err != nil {
			return extension.Result{}, unwrap(err)
		}
		if s, ok := v.Export().(string); ok {
			return extension.Source(s), nil
		}
		return extension.Value(v), nil
	})
}

func (h *Host) moduleObject(m *module.Module) goja.Value {
	if m == nil {
		return goja.Null()
	}
	if obj, ok := h.modules[m]; ok {
		return obj
	}
	obj := h.vm.NewDynamicObject(&record{h: h, m: m, extra: make(map[string]goja.Value)})
	h.modules[m] = obj
	return obj
}

func (h *Host) installConsole() {
	console := h.vm.NewObject()
	_ = console.Set("log", h.printer(func() io.Writer { return h.stdout }))
	_ = console.Set("error", h.printer(func() io.Writer { return h.stderr }))
	_ = h.vm.Set("console", console)
}

func (h *Host) printer(w func() io.Writer) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = a.String()
		}
		fmt.Fprintln(w(), strings.Join(parts, " "))
		return goja.Undefined()
	}
}

// unwrap recovers a Go error carried by a GoError exception.
func unwrap(err error) error {
	var ex *goja.Exception
	if !stderrors.As(err, &ex) {
		return err
	}
	obj, ok := ex.Value().(*goja.Object)
	if !ok {
		return err
	}
	if inner := obj.Get("value"); inner != nil {
		if goErr, ok := inner.Export().(error); ok {
			return goErr
		}
	}
	return err
}
