// Package transform provides value transforms that turn data files into
// modules. A file with a registered data extension is decoded and the
// decoded value becomes the module's exports; no script runs.
//
//	.json  encoding/json
//	.toml  github.com/pelletier/go-toml/v2
//	.yaml  gopkg.in/yaml.v3 (also .yml)
//	.hcl   top-level attributes, github.com/hashicorp/hcl/v2
//	.cue   concrete values, cuelang.org/go
package transform
