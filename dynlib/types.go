package dynlib

import "unsafe"

// Kind enumerates the argument and return kinds an exported kernel
// entry point may use. It is the checked half of the call signature:
// kinds select the native calling convention slot, but whether they
// match the artifact's real signature is the caller's responsibility.
type Kind int

const (
	Void Kind = iota
	Int32
	Int64
	Float32
	Float64
	Pointer
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Pointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Arg is one typed argument to an exported entry point.
type Arg struct {
	Kind  Kind
	Int   int64
	Float float64
	Ptr   unsafe.Pointer
}

// Int32Arg wraps a 32-bit integer argument.
func Int32Arg(v int32) Arg { return Arg{Kind: Int32, Int: int64(v)} }

// Int64Arg wraps a 64-bit integer argument.
func Int64Arg(v int64) Arg { return Arg{Kind: Int64, Int: v} }

// Float32Arg wraps a single-precision argument.
func Float32Arg(v float32) Arg { return Arg{Kind: Float32, Float: float64(v)} }

// Float64Arg wraps a double-precision argument.
func Float64Arg(v float64) Arg { return Arg{Kind: Float64, Float: v} }

// PtrArg wraps a pointer argument. The pointee must stay valid for the
// duration of the call; it must not be Go-managed memory the collector
// may move.
func PtrArg(p unsafe.Pointer) Arg { return Arg{Kind: Pointer, Ptr: p} }

// Result holds the returned value of an invocation. Only the field
// matching Kind is meaningful.
type Result struct {
	Kind  Kind
	Int   int64
	Float float64
	Ptr   unsafe.Pointer
}
