//go:build linux && cgo

package dynlib

/*
#cgo LDFLAGS: -ldl
#cgo pkg-config: libffi
#include <ffi.h>
#include <dlfcn.h>
#include <stdlib.h>

static void* kc_dlopen(const char* path) {
	return dlopen(path, RTLD_LAZY | RTLD_LOCAL);
}
static const char* kc_dlerror(void) {
	return dlerror();
}
static int kc_dlclose(void* h) {
	return dlclose(h);
}

// Clear dlerror, call dlsym, and return the error (if any) alongside the symbol.
static void* kc_dlsym_clear(void* h, const char* name, char** err) {
	dlerror(); // clear
	void* p = dlsym(h, name);
	char* e = dlerror();
	if (e) { if (err) *err = e; return NULL; }
	if (err) *err = NULL;
	return p;
}

// Wrap ffi_prep_cif so the ABI enum never crosses into Go.
static int kc_prep_cif(ffi_cif* cif, unsigned int nargs, ffi_type* rtype, ffi_type** atypes) {
	return ffi_prep_cif(cif, FFI_DEFAULT_ABI, nargs, rtype, atypes);
}

// The cif is allocated on the C heap. ffi_prep_cif stores the type
// vector into it and ffi_call reads both, so neither may live in
// Go-managed memory.
static ffi_cif* kc_alloc_cif(void) {
	return (ffi_cif*)calloc(1, sizeof(ffi_cif));
}

// ffi_call wrapper: accept a generic void* fn and a void** argv vector.
// This avoids cgo's function-pointer type constraints at the call site.
static void kc_ffi_call(ffi_cif* cif, void* fn, void* rvalue, void** avalue) {
	ffi_call(cif, (void (*)(void))fn, rvalue, avalue);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// wordSize is the storage slot size for one argument or return value.
// Every supported kind fits in one 8-byte slot.
const wordSize = 8

// Library is a loaded kernel artifact.
//
// Contract:
// - Concurrency: safe for concurrent use; symbol resolution and the
//   refcount are guarded internally. Concurrent Calls are as safe as
//   the artifact's own entry points.
// - Ownership: the creator holds one reference. Release drops it;
//   dlclose runs exactly once, when the count reaches zero.
type Library struct {
	mu     sync.Mutex
	handle unsafe.Pointer
	path   string
	refs   int
}

// Open loads the artifact at path as a native shared library.
// The returned Library holds one reference.
func Open(path string) (*Library, error) {
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))

	h := C.kc_dlopen(cs)
	if h == nil {
		return nil, &LoadError{Path: path, Detail: dlerr()}
	}
	return &Library{handle: unsafe.Pointer(h), path: path, refs: 1}, nil
}

// dlerr returns the last dlerror as a Go string, or a fallback label.
func dlerr() string {
	errC := C.kc_dlerror()
	if errC != nil {
		return C.GoString(errC)
	}
	return "unknown dlerror"
}

// Path returns the filesystem path the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Retain adds a reference. It fails once the last reference has been
// released; a released image cannot come back.
func (l *Library) Retain() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refs == 0 {
		return ErrReleased
	}
	l.refs++
	return nil
}

// Release drops a reference. When the count reaches zero the image is
// unloaded; further Release calls return ErrReleased rather than
// double-closing.
func (l *Library) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refs == 0 {
		return ErrReleased
	}
	l.refs--
	if l.refs > 0 {
		return nil
	}
	h := l.handle
	l.handle = nil
	if h == nil {
		return nil
	}
	if int(C.kc_dlclose(h)) != 0 {
		return &LoadError{Path: l.path, Detail: dlerr()}
	}
	return nil
}

// Symbol resolves an exported entry point by name.
// Stale loader diagnostics are cleared before each lookup so errors
// never bleed between calls.
func (l *Library) Symbol(name string) (unsafe.Pointer, error) {
	l.mu.Lock()
	h := l.handle
	l.mu.Unlock()
	if h == nil {
		return nil, ErrReleased
	}

	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))

	var cerr *C.char
	p := C.kc_dlsym_clear(h, cs, &cerr)
	if cerr != nil {
		return nil, &SymbolError{Symbol: name, Detail: C.GoString(cerr)}
	}
	return unsafe.Pointer(p), nil
}

// ffiType maps a Kind to its libffi type descriptor.
func ffiType(k Kind) *C.ffi_type {
	switch k {
	case Void:
		return &C.ffi_type_void
	case Int32:
		return &C.ffi_type_sint32
	case Int64:
		return &C.ffi_type_sint64
	case Float32:
		return &C.ffi_type_float
	case Float64:
		return &C.ffi_type_double
	case Pointer:
		return &C.ffi_type_pointer
	default:
		return nil
	}
}

// Call resolves name and invokes it with the declared signature.
//
// Precondition: ret and args must match the artifact's actual exported
// signature. The kinds select calling-convention slots correctly, but
// nothing verifies them against the artifact; a mismatch is undefined
// behavior. Pointer arguments cross into native code as raw addresses
// and must reference C-allocated or pinned memory.
func (l *Library) Call(name string, ret Kind, args ...Arg) (Result, error) {
	fn, err := l.Symbol(name)
	if err != nil {
		return Result{}, err
	}

	rtype := ffiType(ret)
	if rtype == nil {
		return Result{}, &SymbolError{Symbol: name, Detail: "unsupported return kind " + ret.String()}
	}

	n := len(args)

	// Everything libffi sees lives on the C heap: the cif (which keeps
	// the type vector reachable after prep), the type vector itself,
	// the argv vector, and the argument storage slots. Go memory in
	// any of these trips the cgo pointer check.
	cif := C.kc_alloc_cif()
	if cif == nil {
		return Result{}, &SymbolError{Symbol: name, Detail: "cif allocation failed"}
	}
	defer C.free(unsafe.Pointer(cif))

	ptrSize := C.size_t(unsafe.Sizeof(uintptr(0)))
	var atypes **C.ffi_type
	var avalues unsafe.Pointer
	var storage unsafe.Pointer
	if n > 0 {
		atypes = (**C.ffi_type)(C.calloc(C.size_t(n), ptrSize))
		defer C.free(unsafe.Pointer(atypes))
		avalues = C.calloc(C.size_t(n), ptrSize)
		defer C.free(avalues)
		storage = C.calloc(C.size_t(n), wordSize)
		defer C.free(storage)

		typv := unsafe.Slice(atypes, n)
		argv := unsafe.Slice((*unsafe.Pointer)(avalues), n)
		for i, a := range args {
			t := ffiType(a.Kind)
			if t == nil || a.Kind == Void {
				return Result{}, &SymbolError{Symbol: name, Detail: "unsupported argument kind " + a.Kind.String()}
			}
			typv[i] = t

			slot := unsafe.Add(storage, i*wordSize)
			switch a.Kind {
			case Int32:
				*(*int32)(slot) = int32(a.Int)
			case Int64:
				*(*int64)(slot) = a.Int
			case Float32:
				*(*float32)(slot) = float32(a.Float)
			case Float64:
				*(*float64)(slot) = a.Float
			case Pointer:
				*(*unsafe.Pointer)(slot) = a.Ptr
			}
			argv[i] = slot
		}
	}

	if C.kc_prep_cif(cif, C.uint(n), rtype, atypes) != 0 {
		return Result{}, &SymbolError{Symbol: name, Detail: "ffi_prep_cif failed"}
	}

	// Return storage is one C word as well; libffi widens small
	// integer returns into it.
	rvalue := C.calloc(1, wordSize)
	defer C.free(rvalue)

	C.kc_ffi_call(cif, fn, rvalue, (*unsafe.Pointer)(avalues))

	res := Result{Kind: ret}
	switch ret {
	case Int32:
		res.Int = int64(*(*int32)(rvalue))
	case Int64:
		res.Int = *(*int64)(rvalue)
	case Float32:
		res.Float = float64(*(*float32)(rvalue))
	case Float64:
		res.Float = *(*float64)(rvalue)
	case Pointer:
		res.Ptr = *(*unsafe.Pointer)(rvalue)
	}
	return res, nil
}
