// Package observe provides observability primitives for kernel dispatch.
//
// It is a pure instrumentation library: no loading, no invocation, no I/O
// beyond exporter setup. The dispatcher wires an Observer in and reports
// cache traffic, artifact loads, and kernel invocations through it.
package observe
