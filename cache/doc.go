// Package cache provides the capacity-bounded LRU mapping used to keep
// loaded kernel handles and memoized function names.
//
// It provides a generic LRU with an unbounded mode, an eviction callback
// for releasing evicted values, and environment-driven sizing.
package cache
