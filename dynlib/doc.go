// Package dynlib loads compiled kernel artifacts as native shared
// libraries and invokes their exported entry points.
//
// Invocation is typed only as far as the enumerated argument kinds go:
// the caller's declared signature is trusted to match what the artifact
// actually exports. A mismatch is undefined behavior, not a checked
// error. Handles are reference counted; the underlying image is
// unloaded exactly once, when the last reference is released.
package dynlib
