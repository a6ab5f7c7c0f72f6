// Package errors provides structured error types for the module loader.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Every failure a load can produce maps onto one Kind:
//
//	KindResolution           no candidate location exists for a specifier
//	KindUnsupportedSpecifier explicit extension, or a URL on the blocking path
//	KindRead                 the filesystem or network collaborator failed
//	KindCompile              the script host rejected the wrapped source
//	KindExecution            the module body raised while running
//	KindNativeLoad           a native addon failed to load
//	KindInvalidExtension     registerExtension got a malformed extension
//	KindInvalidTransform     registerExtension got a nil transform
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindResolution).
//		Specifier("does-not-exist").
//		Detail("searched %d directories", 3).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Resolution("does-not-exist")
//	err := errors.Read("/srv/app/lib.js", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// KindOf digs through wrapping and through script-host exceptions that carry
// a loader error, so a failure raised deep inside nested loads keeps its kind.
package errors
