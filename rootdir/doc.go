// Package rootdir resolves the per-process filesystem root under which
// built kernel artifacts are stored.
//
// The root is computed at most once per Resolver from environment
// configuration and is immutable afterwards. A host normally constructs
// one Resolver at startup and shares it.
package rootdir
