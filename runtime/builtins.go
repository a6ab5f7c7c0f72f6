package runtime

import (
	"embed"
	"fmt"

	"github.com/wippyai/module-loader/loader"
	"github.com/wippyai/module-loader/pathalg"
)

//go:embed lib/*.js
var lib embed.FS

var scriptBuiltins = []string{"events", "assert"}

func installBuiltins(proc *loader.Process) error {
	for _, name := range scriptBuiltins {
		src, err := lib.ReadFile("lib/" + name + ".js")
		if err != nil {
			return fmt.Errorf("builtin %s: %w", name, err)
		}
		proc.AddBuiltin(name, string(src))
	}
	proc.AddInternal("path", pathModule)
	return nil
}

func pathModule() map[string]any {
	return map[string]any{
		"join": func(parts ...string) string {
			return pathalg.Join(parts...)
		},
		"normalize": func(p string, keepBlanks ...bool) string {
			return pathalg.Normalize(p, len(keepBlanks) > 0 && keepBlanks[0])
		},
		"normalizeArray": func(parts []string, keepBlanks ...bool) []any {
			out := pathalg.NormalizeArray(parts, len(keepBlanks) > 0 && keepBlanks[0])
			items := make([]any, len(out))
			for i, s := range out {
				items[i] = s
			}
			return items
		},
		"dirname": pathalg.Dirname,
		"basename": func(p string, ext ...string) string {
			if len(ext) > 0 {
				return pathalg.Basename(p, ext[0])
			}
			return pathalg.Basename(p, "")
		},
		"extname": pathalg.Extname,
	}
}
