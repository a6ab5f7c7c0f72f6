package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve  Phase = "resolve"  // specifier to location
	PhaseRead     Phase = "read"     // content acquisition
	PhaseCompile  Phase = "compile"  // transform and parse
	PhaseExecute  Phase = "execute"  // module body
	PhaseNative   Phase = "native"   // addon instantiation
	PhaseRegister Phase = "register" // extension registration
	PhaseLoad     Phase = "load"     // loader orchestration
)

// Kind categorizes the error
type Kind string

const (
	KindResolution           Kind = "resolution"
	KindUnsupportedSpecifier Kind = "unsupported_specifier"
	KindRead                 Kind = "read"
	KindCompile              Kind = "compile"
	KindExecution            Kind = "execution"
	KindNativeLoad           Kind = "native_load"
	KindInvalidExtension     Kind = "invalid_extension"
	KindInvalidTransform     Kind = "invalid_transform"
	KindInvalidInput         Kind = "invalid_input"
	KindNotFound             Kind = "not_found"
)

// Error is the structured error type used throughout the loader
type Error struct {
	Cause     error
	Phase     Phase
	Kind      Kind
	Specifier string
	Location  string
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Specifier != "" {
		b.WriteString(" ")
		b.WriteString(fmt.Sprintf("%q", e.Specifier))
	}

	if e.Location != "" {
		b.WriteString(" at ")
		b.WriteString(e.Location)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Specifier sets the specifier text as the requester wrote it
func (b *Builder) Specifier(s string) *Builder {
	b.err.Specifier = s
	return b
}

// Location sets the concrete location involved
func (b *Builder) Location(loc string) *Builder {
	b.err.Location = loc
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// As finds the first loader error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the first loader error in err's chain, or "".
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries a loader error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Convenience constructors, one per taxonomy entry

// Resolution creates a not-found error carrying the original specifier
func Resolution(specifier string) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindResolution,
		Specifier: specifier,
		Detail:    "cannot find module",
	}
}

// UnsupportedSpecifier creates an error for a specifier the loader refuses
func UnsupportedSpecifier(specifier, why string) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindUnsupportedSpecifier,
		Specifier: specifier,
		Detail:    why,
	}
}

// Read creates a content acquisition error
func Read(location string, cause error) *Error {
	return &Error{
		Phase:    PhaseRead,
		Kind:     KindRead,
		Location: location,
		Detail:   "read module source",
		Cause:    cause,
	}
}

// Compile creates a compile error for source the host could not accept
func Compile(location string, cause error) *Error {
	return &Error{
		Phase:    PhaseCompile,
		Kind:     KindCompile,
		Location: location,
		Detail:   "compile module",
		Cause:    cause,
	}
}

// Execution creates an error for a module body that raised
func Execution(location string, cause error) *Error {
	return &Error{
		Phase:    PhaseExecute,
		Kind:     KindExecution,
		Location: location,
		Detail:   "execute module",
		Cause:    cause,
	}
}

// NativeLoad creates an addon loading error
func NativeLoad(location string, cause error) *Error {
	return &Error{
		Phase:    PhaseNative,
		Kind:     KindNativeLoad,
		Location: location,
		Detail:   "load native addon",
		Cause:    cause,
	}
}

// InvalidExtension creates a registration error for a malformed extension
func InvalidExtension(ext string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindInvalidExtension,
		Detail: fmt.Sprintf("%q is not a valid extension string", ext),
	}
}

// InvalidTransform creates a registration error for an unusable transform
func InvalidTransform(ext string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindInvalidTransform,
		Detail: fmt.Sprintf("transform for %q is not invocable", ext),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}
