// Package jshost runs module bodies on a goja runtime.
//
// Source is wrapped as
//
//	(function (exports, require, module, __filename, __dirname) { ... });
//
// and invoked with exports as this. The module binding is a live view of the
// module record: reading module.exports returns the record's current exports
// and assigning it writes through. require is the loader's blocking form and
// carries async, paths, main, and registerExtension.
//
// Errors raised by the loader travel through script frames as GoError values
// and come back out of Run unchanged, so a failure three requires deep keeps
// its kind.
//
// A Host owns one goja.Runtime and is not safe for concurrent use. Drive it
// from the event loop goroutine only.
package jshost
