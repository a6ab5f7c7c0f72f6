package pathalg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeArray(t *testing.T) {
	tests := []struct {
		name       string
		parts      []string
		keepBlanks bool
		want       []string
	}{
		{"pop then trailing blank", []string{"a", "..", ""}, false, []string{}},
		{"leading dotdot kept", []string{"..", "a"}, false, []string{"..", "a"}},
		{"double dotdot kept", []string{"..", "..", "a"}, false, []string{"..", "..", "a"}},
		{"dot dropped after segment", []string{"a", ".", "b"}, false, []string{"a", "b"}},
		{"leading dot replaced", []string{".", "b"}, false, []string{"b"}},
		{"leading dot before dotdot", []string{".", "..", "c"}, false, []string{"..", "c"}},
		{"inner blanks dropped", []string{"a", "", "b"}, false, []string{"a", "b"}},
		{"inner blanks kept", []string{"a", "", "b"}, true, []string{"a", "", "b"}},
		{"absolute", []string{"", "x", "..", "lib"}, false, []string{"", "lib"}},
		{"root dotdot kept", []string{"", ".."}, false, []string{"", ".."}},
		{"trailing separator", []string{"a", "b", ""}, false, []string{"a", "b", ""}},
		{"root", []string{"", ""}, false, []string{"", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeArray(tt.parts, tt.keepBlanks)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeArray(%q) mismatch (-want +got):\n%s", tt.parts, diff)
			}
		})
	}
}

func TestNormalizeJoin(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Normalize(Join("a", "./b", "../c"), false), "a/c"},
		{Join("/x", "./b.js"), "/x/b.js"},
		{Join("/x", "../lib/c.js"), "/lib/c.js"},
		{Join("", "/abs/foo.js"), "/abs/foo.js"},
		{Join(".", "./b"), "b"},
		{Join(".", "../lib/c"), "../lib/c"},
		{Join("lib/", "./x"), "lib/x"},
		{Join("/x", "id", "index.js"), "/x/id/index.js"},
		{Normalize("a//b", false), "a/b"},
		{Normalize("a//b", true), "a//b"},
		{Normalize("a/b/", false), "a/b/"},
	}

	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("case %d: got %q, want %q", i, tt.got, tt.want)
		}
	}
}

func TestDirname(t *testing.T) {
	tests := map[string]string{
		"lib/util.js": "lib",
		"/a/b/c.js":   "/a/b",
		"main.js":     ".",
		"/main.js":    "/",
		"":            ".",
		"lib/":        "lib",
	}
	for in, want := range tests {
		if got := Dirname(in); got != want {
			t.Errorf("Dirname(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBasename(t *testing.T) {
	tests := []struct {
		path, ext, want string
	}{
		{"/a/b/index.js", "", "index.js"},
		{"/a/b/index.js", ".js", "index"},
		{"/a/b/index.js", ".wasm", "index.js"},
		{"plain", "", "plain"},
		{"dir/", "", ""},
	}
	for _, tt := range tests {
		if got := Basename(tt.path, tt.ext); got != tt.want {
			t.Errorf("Basename(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}

func TestExtname(t *testing.T) {
	tests := map[string]string{
		"a/b.js":          ".js",
		"a/b.tar.gz":      ".gz",
		"a.b/c":           "",
		"noext":           "",
		"https://h/x.txt": ".txt",
		".hidden":         ".hidden",
	}
	for in, want := range tests {
		if got := Extname(in); got != want {
			t.Errorf("Extname(%q) = %q, want %q", in, got, want)
		}
	}
}
