// Package runtime assembles a complete module loader process: the goja
// script host, the afero filesystem, the HTTP fetcher for URL modules, the
// wazero addon loader, the event loop, and the built-in modules.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.Options{
//	    SearchPath: cfg.SearchPath(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	main, err := rt.RunMain(ctx, "app.js")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(rt.Inspect(main.Exports()))
//
// # Built-in Modules
//
//	events  EventEmitter, compiled from embedded source on first use
//	assert  assertion helpers, compiled from embedded source on first use
//	path    join, normalize, normalizeArray, dirname, basename, extname
//
// Built-ins are shared by every tree of one Runtime.
//
// # Data Modules
//
// With Options.DataTransforms, ".json", ".toml", ".yaml", ".yml", ".hcl"
// and ".cue" files are loadable and export their decoded value.
//
// A Runtime is not safe for concurrent use.
package runtime
