// Package builder is the seam between the dispatch cache and the
// external kernel build pipeline.
//
// The cache itself never triggers a build; it only consumes artifact
// files. Hosts that want build-on-miss wrap a Dispatcher and a Builder
// in an Orchestrator, which checks IsBuilt, invokes the builder when
// needed, and retries the invocation after a rebuild.
package builder
