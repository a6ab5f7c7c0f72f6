package jshost

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/spf13/afero"

	"github.com/wippyai/module-loader/errors"
	"github.com/wippyai/module-loader/eventloop"
	"github.com/wippyai/module-loader/fsys"
	"github.com/wippyai/module-loader/loader"
	"github.com/wippyai/module-loader/module"
)

type env struct {
	host   *Host
	loader *loader.Loader
	loop   *eventloop.Loop
	root   *module.Module
	out    *bytes.Buffer
}

func setup(t *testing.T, files map[string]string) *env {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(mem, name, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	out := &bytes.Buffer{}
	h := New(WithStdout(out), WithStderr(out))
	loop := eventloop.New(4)
	l, err := loader.New(context.Background(), loader.NewProcess(nil), loader.Config{
		Host:       h,
		FS:         fsys.New(mem),
		Loop:       loop,
		SearchPath: []string{"/lib"},
	})
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	_, root := module.NewTree(loader.MainID, h.NewExports())
	if err := root.SetFilename("/app/main.js"); err != nil {
		t.Fatal(err)
	}
	return &env{host: h, loader: l, loop: loop, root: root, out: out}
}

func (e *env) require(t *testing.T, specifier string) goja.Value {
	t.Helper()
	v, err := e.loader.Require(specifier, e.root)
	if err != nil {
		t.Fatalf("require %s: %v", specifier, err)
	}
	return e.host.value(v)
}

func (e *env) get(v goja.Value, key string) any {
	got := v.ToObject(e.host.vm).Get(key)
	if got == nil {
		return nil
	}
	return got.Export()
}

func TestHost_Circular(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/a.js": `exports.done = false; var b = require("./b"); exports.done = true;`,
		"/app/b.js": `var a = require("./a"); exports.sawADoneAtLoad = a.done;`,
	})

	a := e.require(t, "./a")
	b := e.require(t, "./b")
	if e.get(a, "done") != true {
		t.Errorf("a.done = %v", e.get(a, "done"))
	}
	if e.get(b, "sawADoneAtLoad") != false {
		t.Errorf("b.sawADoneAtLoad = %v", e.get(b, "sawADoneAtLoad"))
	}
}

func TestHost_Identity(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/a.js":    `exports.n = (exports.n || 0) + 1;`,
		"/app/user.js": `exports.same = require("./a") === require("./a"); exports.n = require("./a").n;`,
	})

	u := e.require(t, "./user")
	if e.get(u, "same") != true {
		t.Error("repeated requires returned different objects")
	}
	if e.get(u, "n") != int64(1) {
		t.Errorf("a ran %v times", e.get(u, "n"))
	}
}

func TestHost_ModuleExportsAssignment(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/fn.js":  `module.exports = function () { return 42; };`,
		"/app/use.js": `exports.answer = require("./fn")();`,
	})

	if got := e.get(e.require(t, "./use"), "answer"); got != int64(42) {
		t.Errorf("answer = %v", got)
	}
}

func TestHost_ModuleRecord(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/lib/info.js": `
exports.id = module.id;
exports.filename = __filename;
exports.dirname = __dirname;
exports.loaded = module.loaded;
exports.parent = module.parent.id;
exports.self = this === exports;
exports.sameModule = module.filename === __filename;
`,
	})

	info := e.require(t, "./lib/info")
	want := map[string]any{
		"id":         "lib/info",
		"filename":   "/app/lib/info.js",
		"dirname":    "/app/lib",
		"loaded":     false,
		"parent":     ".",
		"self":       true,
		"sameModule": true,
	}
	for k, v := range want {
		if got := e.get(info, k); got != v {
			t.Errorf("%s = %v, want %v", k, got, v)
		}
	}
}

func TestHost_Errors(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/syntax.js": `var = ;`,
		"/app/throws.js": `throw new Error("boom");`,
		"/app/outer.js":  `require("./inner");`,
		"/app/inner.js":  `require("does-not-exist");`,
		"/app/caught.js": `try { require("nope"); } catch (e) { exports.msg = e.message; }`,
	})

	tests := []struct {
		specifier string
		kind      errors.Kind
	}{
		{"./syntax", errors.KindCompile},
		{"./throws", errors.KindExecution},
		{"./outer", errors.KindResolution},
	}
	for _, tt := range tests {
		t.Run(tt.specifier, func(t *testing.T) {
			_, err := e.loader.Require(tt.specifier, e.root)
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
		})
	}

	msg, _ := e.get(e.require(t, "./caught"), "msg").(string)
	if !strings.Contains(msg, `"nope"`) {
		t.Errorf("caught message = %q", msg)
	}
}

func TestHost_RegisterExtension(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/setup.js": `
require.registerExtension(".up", function (s) { return "module.exports = " + JSON.stringify(s.toUpperCase()); });
require.registerExtension(".len", function (s) { return { length: s.length }; });
`,
		"/app/greeting.up": "hi",
		"/app/data.len":    "abcd",
		"/app/bad.js":      `require.registerExtension("up", function () {});`,
	})

	e.require(t, "./setup")
	if got := e.require(t, "./greeting").Export(); got != "HI" {
		t.Errorf("greeting = %v", got)
	}
	if got := e.get(e.require(t, "./data"), "length"); got != int64(4) {
		t.Errorf("data.length = %v", got)
	}

	if _, err := e.loader.Require("./bad", e.root); !errors.IsKind(err, errors.KindInvalidExtension) {
		t.Errorf("bad extension: %v", err)
	}
}

func TestHost_RequireProperties(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/props.js": `
exports.paths = require.paths.join(":");
exports.hasAsync = typeof require.async === "function";
exports.main = require.main === null;
`,
	})

	p := e.require(t, "./props")
	if e.get(p, "paths") != "/lib" || e.get(p, "hasAsync") != true || e.get(p, "main") != true {
		t.Errorf("props = %v", p.Export())
	}
}

func TestHost_AsyncRequire(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/main.js": `
require.async("./dep", function (err, dep) {
	console.log("dep says", dep.word, require.main === module);
});
require.async("./missing", function (err) {
	console.log("missing:", err !== null);
});
`,
		"/app/dep.js": `exports.word = "hello";`,
	})

	var mainErr error
	e.loader.RunMain("/app/main.js", func(_ *module.Module, err error) { mainErr = err })
	if err := e.loop.Run(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if mainErr != nil {
		t.Fatalf("main: %v", mainErr)
	}

	out := e.out.String()
	if !strings.Contains(out, "dep says hello true") || !strings.Contains(out, "missing: true") {
		t.Errorf("output = %q", out)
	}
	if uncaught := e.host.Uncaught(); len(uncaught) != 0 {
		t.Errorf("uncaught = %v", uncaught)
	}
}

func TestHost_UncaughtAsyncError(t *testing.T) {
	e := setup(t, map[string]string{
		"/app/main.js": `require.async("./dep", function () { throw new Error("late"); });`,
		"/app/dep.js":  ``,
	})

	e.loader.RunMain("/app/main.js", func(*module.Module, error) {})
	if err := e.loop.Run(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if n := len(e.host.Uncaught()); n != 1 {
		t.Errorf("uncaught errors = %d", n)
	}
	if n := len(e.host.Uncaught()); n != 0 {
		t.Errorf("Uncaught should clear, still %d", n)
	}
}

func TestHost_Populate(t *testing.T) {
	h := New()
	exports := h.NewExports()
	err := h.Populate(exports, map[string]any{
		"double": func(x float64) float64 { return 2 * x },
		"name":   "addon",
	})
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if err := h.vm.Set("addon", exports); err != nil {
		t.Fatal(err)
	}
	v, err := h.vm.RunString(`addon.name + ":" + addon.double(21)`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.String() != "addon:42" {
		t.Errorf("got %s", v)
	}

	if err := h.Populate("not an object", nil); err == nil {
		t.Error("populating a non-object should fail")
	}
}

func TestHost_Inspect(t *testing.T) {
	h := New()
	tests := []struct {
		in   any
		want string
	}{
		{nil, "undefined"},
		{h.Adopt(map[string]any{"a": 1}), `{"a":1}`},
	}
	for _, tt := range tests {
		if got := h.Inspect(tt.in); got != tt.want {
			t.Errorf("Inspect(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
