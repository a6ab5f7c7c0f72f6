package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/module-loader/extension"
)

func TestDataTransforms(t *testing.T) {
	tests := []struct {
		name    string
		fn      extension.TransformFunc
		content string
		want    any
	}{
		{
			name:    "json",
			fn:      JSON,
			content: `{"name": "app", "ports": [80, 443], "debug": true}`,
			want:    map[string]any{"name": "app", "ports": []any{80.0, 443.0}, "debug": true},
		},
		{
			name:    "toml",
			fn:      TOML,
			content: "name = \"app\"\n[server]\nport = 8080\n",
			want:    map[string]any{"name": "app", "server": map[string]any{"port": int64(8080)}},
		},
		{
			name:    "yaml",
			fn:      YAML,
			content: "name: app\ntags:\n  - a\n  - b\n",
			want:    map[string]any{"name": "app", "tags": []any{"a", "b"}},
		},
		{
			name:    "hcl",
			fn:      HCL,
			content: "name = \"app\"\nports = [80, 1 + 442]\nlimits = { cpu = 2 }\n",
			want: map[string]any{
				"name":   "app",
				"ports":  []any{80.0, 443.0},
				"limits": map[string]any{"cpu": 2.0},
			},
		},
		{
			name:    "cue",
			fn:      CUE,
			content: "name: \"app\"\nenv: \"prod\" + \"-eu\"\nenabled: true\n",
			want:    map[string]any{"name": "app", "env": "prod-eu", "enabled": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.fn([]byte(tt.content))
			if err != nil {
				t.Fatalf("transform: %v", err)
			}
			if r.IsSource() {
				t.Fatal("data transforms must yield values")
			}
			if diff := cmp.Diff(tt.want, r.Opaque()); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDataTransforms_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		fn      extension.TransformFunc
		content string
	}{
		{"json", JSON, `{"unterminated": `},
		{"toml", TOML, "= nope"},
		{"yaml", YAML, "a: [b"},
		{"hcl", HCL, "block {\n}\n"},
		{"hcl variable", HCL, "x = var.missing\n"},
		{"cue", CUE, "x: int\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn([]byte(tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRegisterDefaults(t *testing.T) {
	reg := extension.NewRegistry()
	if err := RegisterDefaults(reg); err != nil {
		t.Fatalf("RegisterDefaults: %v", err)
	}
	want := []string{".json", ".toml", ".yaml", ".yml", ".hcl", ".cue"}
	if diff := cmp.Diff(want, reg.Extensions()); diff != "" {
		t.Errorf("extensions mismatch (-want +got):\n%s", diff)
	}
}
