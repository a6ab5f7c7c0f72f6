// Package pathalg implements the loader's path algebra: pure string
// operations over "/"-delimited paths.
//
// The functions never touch the filesystem and never consult the host
// platform's separator. Their normalization rules differ from path.Clean in
// ways the resolver depends on:
//
//   - a ".." that cannot pop a real segment is kept literally
//   - a leading "." is retained until a following segment replaces it
//   - the leading and trailing blank segments survive unless keepBlanks
//     collapses nothing (they encode "/a" and "a/")
//
// Examples:
//
//	pathalg.Join("a", "./b", "../c")   // "a/c"
//	pathalg.Join("/x", "../lib/c.js")  // "/lib/c.js"
//	pathalg.Normalize("../a", false)   // "../a"
//	pathalg.Dirname("lib/util.js")     // "lib"
//	pathalg.Extname("lib/util.js")     // ".js"
package pathalg
