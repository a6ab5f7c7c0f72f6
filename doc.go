// Package modloader is a module resolution and loading engine.
//
// Given a specifier written by a requesting module, the loader locates a
// concrete source location, loads it exactly once per load tree, executes it
// inside an isolated five-binding frame, and returns its exports. It handles
// repeated and circular requests, blocking and deferred loading, built-in
// modules, native WebAssembly addons, and pluggable source transforms.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	modloader/         Root package with the collaborator interfaces
//	├── runtime/       High-level API: bootstrap, built-ins, wiring
//	├── loader/        Cache lookup, load orchestration, compiler and frames
//	├── resolver/      Specifier resolution and search-path probing
//	├── module/        Module records and the per-tree cache arena
//	├── extension/     Extension registry and the Transform capability
//	├── pathalg/       Pure "/" path algebra
//	├── jshost/        JavaScript script host (goja)
//	├── native/        WebAssembly addon loader (wazero)
//	├── transform/     Data-file transforms (json, toml, yaml, hcl, cue)
//	├── fsys/          Filesystem collaborator (afero)
//	├── fetch/         Network collaborator for URL specifiers
//	├── eventloop/     Single-goroutine continuation queue for deferred loads
//	├── config/        Environment-derived configuration (viper)
//	├── errors/        Structured error taxonomy
//	└── cmd/modload/   CLI: run, resolve, interactive inspector
//
// # Quick Start
//
// Run an entry module:
//
//	rt, err := runtime.New(ctx, runtime.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	main, err := rt.RunMain(ctx, "app/main.js")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(main.State()) // loaded
//
// Module bodies see exports, require, module, __filename and __dirname:
//
//	var util = require("./util");        // blocking
//	require.async("config", function (err, cfg) { ... });
//	exports.answer = util.answer();
//
// # Resolution
//
// Relative specifiers ("./x", "../x") resolve against the requesting file's
// directory; bare specifiers search the configured path in order. Inside one
// directory the candidates are tried as:
//
//	dir/id.js, dir/id.wasm, dir/id/index.js, dir/id/index.wasm,
//	then dir/id<ext> and dir/id/index<ext> for each registered extension
//
// # Thread Safety
//
// Registry, Cache and Module are safe for concurrent use. The script host is
// not: every module body runs on the goroutine that drives the event loop.
//
// # Circular Requires
//
// A module is cached before its body runs. A circular requester receives the
// in-progress exports object; if the loading module later replaces
// module.exports wholesale, that earlier reference goes stale.
package modloader
