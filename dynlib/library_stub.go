//go:build !linux || !cgo

package dynlib

import "unsafe"

// Library is a loaded kernel artifact. On platforms without dynamic
// loader support every operation fails with ErrUnsupported.
type Library struct {
	path string
}

// Open always fails on this platform.
func Open(path string) (*Library, error) {
	return nil, ErrUnsupported
}

// Path returns the filesystem path the library was loaded from.
func (l *Library) Path() string { return l.path }

// Retain always fails on this platform.
func (l *Library) Retain() error { return ErrUnsupported }

// Release always fails on this platform.
func (l *Library) Release() error { return ErrUnsupported }

// Symbol always fails on this platform.
func (l *Library) Symbol(name string) (unsafe.Pointer, error) {
	return nil, ErrUnsupported
}

// Call always fails on this platform.
func (l *Library) Call(name string, ret Kind, args ...Arg) (Result, error) {
	return Result{}, ErrUnsupported
}
