// Package module holds the loader's data model: the Module record and the
// Cache arena that owns every record of one load tree.
//
// # Ownership
//
// A Cache owns its records. A Module's parent and children are stored as ids
// and resolved through the owning cache, so circular requires never form
// ownership cycles and dropping the cache drops the whole tree.
//
// # Lifecycle
//
// State only moves forward:
//
//	Created -> Loading -> Loaded
//	                   -> Failed
//
// Loaded and Failed are terminal for a record. Callers waiting on a record use
// OnSettled, which fires once the record reaches either terminal state.
//
// # Thread Safety
//
// Cache and Module are safe for concurrent use. The loader itself mutates
// them from a single goroutine.
package module
