package dynlib

import "errors"

// Sentinel errors for handle lifetime misuse.
var (
	// ErrReleased is returned when a handle is used after its last
	// reference was released.
	ErrReleased = errors.New("dynlib: library already released")

	// ErrUnsupported is returned on platforms without dynamic loader
	// support compiled in.
	ErrUnsupported = errors.New("dynlib: dynamic loading not supported on this platform")
)

// LoadError reports a failure to load an artifact as a native image.
// Detail carries the underlying loader diagnostic verbatim.
type LoadError struct {
	Path   string
	Detail string
}

func (e *LoadError) Error() string {
	return "dynlib: load " + e.Path + ": " + e.Detail
}

// SymbolError reports a failed entry-point lookup in an otherwise
// successfully loaded artifact.
type SymbolError struct {
	Symbol string
	Detail string
}

func (e *SymbolError) Error() string {
	return "dynlib: symbol " + e.Symbol + ": " + e.Detail
}
