package cache

import (
	"os"
	"strconv"
)

// Unbounded is the capacity value that disables eviction.
const Unbounded = -1

// SizeFromEnv reads a cache capacity from the named environment variable.
// An unset variable or one that does not parse as an integer yields
// Unbounded, so a misconfigured limit degrades to caching everything
// rather than caching nothing.
func SizeFromEnv(key string) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return Unbounded
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Unbounded
	}
	return n
}
