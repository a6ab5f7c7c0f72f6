// Package native loads WebAssembly addons.
//
// An addon is a core WebAssembly module found at a ".wasm" location. Each of
// its exported functions becomes an exports entry callable with numeric
// arguments. Modules importing wasi_snapshot_preview1 get the WASI host
// module instantiated once per Loader.
//
// Numeric values cross the boundary as float64:
//
//	i32, i64  truncated on the way in, sign-extended on the way out
//	f32, f64  converted
//
// A function with no results returns nil, one result returns the number, and
// several results return a []any.
package native
