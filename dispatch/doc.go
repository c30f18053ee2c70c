// Package dispatch maps canonical kernel identifiers to loaded native
// artifacts, loading each artifact at most once and bounding the number
// of simultaneously loaded handles with LRU eviction.
//
// The Dispatcher is the composition root: the host constructs one at
// startup and shares it between worker threads. There is no hidden
// global state.
package dispatch
