package health

import (
	"context"
	"fmt"
	"os"

	"github.com/jonwraymond/kerncache/dispatch"
	"github.com/jonwraymond/kerncache/rootdir"
)

// RootChecker verifies the artifact root resolves and exists on disk.
type RootChecker struct {
	resolver *rootdir.Resolver
}

// NewRootChecker creates a checker for the given resolver.
func NewRootChecker(resolver *rootdir.Resolver) *RootChecker {
	return &RootChecker{resolver: resolver}
}

// Name returns the name of this checker.
func (c *RootChecker) Name() string { return "artifact-root" }

// Check resolves the root and stats it. An unresolvable root is
// unhealthy; a resolved root that does not exist yet is degraded, since
// the first build creates it.
func (c *RootChecker) Check(ctx context.Context) Result {
	root, err := c.resolver.Root()
	if err != nil {
		return Unhealthy("artifact root not resolvable", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return Degraded(fmt.Sprintf("artifact root %s does not exist yet", root))
		}
		return Unhealthy(fmt.Sprintf("artifact root %s not accessible", root), err)
	}
	if !info.IsDir() {
		return Unhealthy(fmt.Sprintf("artifact root %s is not a directory", root), nil)
	}

	return Healthy("artifact root accessible").WithDetails(map[string]any{
		"root": root,
	})
}

// ArtifactChecker verifies the build output directory is reachable.
type ArtifactChecker struct {
	resolver *rootdir.Resolver
}

// NewArtifactChecker creates a checker for the given resolver.
func NewArtifactChecker(resolver *rootdir.Resolver) *ArtifactChecker {
	return &ArtifactChecker{resolver: resolver}
}

// Name returns the name of this checker.
func (c *ArtifactChecker) Name() string { return "artifact-store" }

// Check stats the build root. A missing directory is degraded, not
// unhealthy: no kernel has been built yet and the first build creates it.
func (c *ArtifactChecker) Check(ctx context.Context) Result {
	dir, err := c.resolver.BuildRoot()
	if err != nil {
		return Unhealthy("build root not resolvable", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Degraded(fmt.Sprintf("build root %s does not exist yet", dir))
		}
		return Unhealthy(fmt.Sprintf("build root %s not readable", dir), err)
	}

	kernels := 0
	for _, e := range entries {
		if e.IsDir() {
			kernels++
		}
	}
	return Healthy("build root reachable").WithDetails(map[string]any{
		"dir":     dir,
		"kernels": kernels,
	})
}

// CacheChecker reports handle cache occupancy from a Dispatcher.
type CacheChecker struct {
	dispatcher *dispatch.Dispatcher
}

// NewCacheChecker creates a checker for the given dispatcher.
func NewCacheChecker(d *dispatch.Dispatcher) *CacheChecker {
	return &CacheChecker{dispatcher: d}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string { return "handle-cache" }

// Check snapshots the cache. A bounded cache running at capacity is
// degraded: every new kernel evicts and unloads another.
func (c *CacheChecker) Check(ctx context.Context) Result {
	stats := c.dispatcher.Stats()

	details := map[string]any{
		"entries":   stats.Entries,
		"capacity":  stats.Capacity,
		"evictions": stats.Evictions,
		"loads":     stats.Loads,
	}

	if stats.Capacity > 0 && stats.Entries >= stats.Capacity {
		return Degraded("handle cache at capacity, loads are evicting").WithDetails(details)
	}
	return Healthy("handle cache within capacity").WithDetails(details)
}

// Ensure checkers implement Checker
var (
	_ Checker = (*RootChecker)(nil)
	_ Checker = (*ArtifactChecker)(nil)
	_ Checker = (*CacheChecker)(nil)
)
