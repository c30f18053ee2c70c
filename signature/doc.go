// Package signature derives canonical kernel function names from an
// operation base name and its ordered argument tokens.
//
// Names are deterministic across processes: tokens are joined with a
// fixed delimiter, lower-cased, and digested. Computed names are
// memoized in a bounded cache so repeated construction is O(1).
package signature
