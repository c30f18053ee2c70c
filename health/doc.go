// Package health provides readiness checks for the dispatch cache:
// whether the artifact root resolves, whether the build tree is
// reachable, and how full the handle cache is.
//
// Checks compose through an Aggregator so a host can surface a single
// overall status.
package health
