// Package extension implements the process-wide extension registry.
//
// A registry maps an extension string such as ".coffee" to a Transform that
// turns raw module content into either source text for the script host or an
// opaque value that becomes the module's exports directly:
//
//	reg := extension.NewRegistry()
//	err := reg.Register(".txt", extension.TransformFunc(func(b []byte) (extension.Result, error) {
//	    return extension.Value(strings.ToUpper(string(b))), nil
//	}))
//
// The resolver walks Extensions() in registration order when building probe
// candidates, and the compiler calls Lookup with the resolved file's
// extension. Registering an extension a second time replaces its transform
// but keeps its original probe position.
//
// Registry is safe for concurrent use.
package extension
