package runtime

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/wippyai/module-loader/errors"
	"github.com/wippyai/module-loader/extension"
	"github.com/wippyai/module-loader/module"
)

// add(i32, i32) i32, exported as "add".
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func newRuntime(t *testing.T, files map[string]string) (*Runtime, *bytes.Buffer) {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(mem, name, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	out := &bytes.Buffer{}
	ctx := context.Background()
	rt, err := New(ctx, Options{
		FS:             mem,
		SearchPath:     []string{"/mods"},
		Stdout:         out,
		Stderr:         out,
		Cwd:            "/app",
		DataTransforms: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })
	return rt, out
}

func TestRunMain(t *testing.T) {
	rt, out := newRuntime(t, map[string]string{
		"/app/main.js": `#!/usr/bin/env modload
var util = require("./lib/util");
var greet = require("greet");
var config = require("./config");
var assert = require("assert");
var EventEmitter = require("events").EventEmitter;

assert.strictEqual(util.twice(4), 8);
assert.equal(config.name, "demo");

var bus = new EventEmitter();
bus.on("hello", function (who) { console.log(greet.greet(who)); });
bus.emit("hello", "world");

exports.ok = true;
`,
		"/app/lib/util.js": `exports.twice = function (n) { return n * 2; };`,
		"/mods/greet.js":   `exports.greet = function (who) { return "hello, " + who; };`,
		"/app/config.json": `{"name": "demo"}`,
	})

	root, err := rt.RunMain(context.Background(), "main.js")
	if err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if root.ID() != "." || root.Filename() != "/app/main.js" || root.State() != module.StateLoaded {
		t.Errorf("root = %s %s %s", root.ID(), root.Filename(), root.State())
	}
	if rt.Main() != root {
		t.Error("Main should be the root")
	}
	if got := strings.TrimSpace(out.String()); got != "hello, world" {
		t.Errorf("output = %q", got)
	}
	if got := rt.Inspect(root.Exports()); got != `{"ok":true}` {
		t.Errorf("exports = %s", got)
	}
}

func TestRunMain_Circular(t *testing.T) {
	rt, out := newRuntime(t, map[string]string{
		"/app/main.js": `var a = require("./a"); var b = require("./b"); console.log(a.done, b.sawADoneAtLoad);`,
		"/app/a.js":    `exports.done = false; var b = require("./b"); exports.done = true;`,
		"/app/b.js":    `var a = require("./a"); exports.sawADoneAtLoad = a.done;`,
	})

	if _, err := rt.RunMain(context.Background(), "/app/main.js"); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "true false" {
		t.Errorf("output = %q", got)
	}
}

func TestRunMain_Addon(t *testing.T) {
	rt, out := newRuntime(t, map[string]string{
		"/app/main.js":   `var math = require("./math"); console.log(math.add(2, 3));`,
		"/app/math.wasm": string(addWasm),
	})

	if _, err := rt.RunMain(context.Background(), "main.js"); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "5" {
		t.Errorf("output = %q", got)
	}
}

func TestRunMain_PathModule(t *testing.T) {
	rt, out := newRuntime(t, map[string]string{
		"/app/main.js": `
var path = require("path");
console.log(path.join("a", "./b", "../c"));
console.log(path.dirname(__filename), path.basename(__filename, ".js"), path.extname(__filename));
console.log(path.normalizeArray(["a", "..", ""]).length);
`,
	})

	if _, err := rt.RunMain(context.Background(), "main.js"); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	want := "a/c\n/app main .js\n0\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunMain_Failures(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		entry string
		kind  errors.Kind
	}{
		{"missing entry", nil, "nope.js", errors.KindRead},
		{"throwing entry", map[string]string{"/app/main.js": `throw new Error("x");`}, "main.js", errors.KindExecution},
		{"missing dependency", map[string]string{"/app/main.js": `require("./gone");`}, "main.js", errors.KindResolution},
		{"syntax", map[string]string{"/app/main.js": `function (`}, "main.js", errors.KindCompile},
		{"bad data", map[string]string{"/app/main.js": `require("./cfg");`, "/app/cfg.json": `{`}, "main.js", errors.KindCompile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newRuntime(t, tt.files)
			root, err := rt.RunMain(context.Background(), tt.entry)
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
			if root.State() != module.StateFailed {
				t.Errorf("root state = %s", root.State())
			}
		})
	}
}

func TestRunMain_UncaughtAsync(t *testing.T) {
	rt, _ := newRuntime(t, map[string]string{
		"/app/main.js": `require.async("./dep", function () { throw new Error("late failure"); });`,
		"/app/dep.js":  ``,
	})

	_, err := rt.RunMain(context.Background(), "main.js")
	if err == nil || !strings.Contains(err.Error(), "late failure") {
		t.Errorf("err = %v", err)
	}
}

func TestRunMain_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/app/main.js":
			w.Write([]byte(`require.async("../shared/dep", function (err, dep) { console.log(err === null, dep.name); });`))
		case "/shared/dep.js":
			w.Write([]byte(`exports.name = "remote";`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	rt, out := newRuntime(t, nil)
	if _, err := rt.RunMain(context.Background(), srv.URL+"/app/main.js"); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "true remote" {
		t.Errorf("output = %q", got)
	}
}

func TestRequire_BeforeMain(t *testing.T) {
	rt, _ := newRuntime(t, map[string]string{
		"/app/notes.txt": "remember",
		"/app/data.yaml": "items:\n  - one\n",
	})
	err := rt.RegisterExtension(".txt", extension.TransformFunc(func(b []byte) (extension.Result, error) {
		return extension.Value(strings.ToUpper(string(b))), nil
	}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	v, err := rt.Require(context.Background(), "./notes")
	if err != nil {
		t.Fatalf("require: %v", err)
	}
	if got := rt.Inspect(v); got != `"REMEMBER"` {
		t.Errorf("notes = %s", got)
	}

	v, err = rt.Require(context.Background(), "./data")
	if err != nil {
		t.Fatalf("require data: %v", err)
	}
	if got := rt.Inspect(v); got != `{"items":["one"]}` {
		t.Errorf("data = %s", got)
	}

	ids := make(map[module.ID]bool)
	for _, m := range rt.Modules() {
		ids[m.ID()] = true
	}
	if !ids["notes"] || !ids["data"] {
		t.Errorf("modules = %v", ids)
	}
}

func TestEntryLocation(t *testing.T) {
	rt, _ := newRuntime(t, nil)
	tests := []struct{ in, want string }{
		{"main.js", "/app/main.js"},
		{"./sub/../main.js", "/app/main.js"},
		{"/abs/main.js", "/abs/main.js"},
		{"http://h/main.js", "http://h/main.js"},
	}
	for _, tt := range tests {
		if got := rt.EntryLocation(tt.in); got != tt.want {
			t.Errorf("EntryLocation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
