package rootdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Environment variables consulted when resolving the root.
const (
	// EnvRootDir overrides the resolved base directory. The value may
	// reference other environment variables as ${VAR}.
	EnvRootDir = "KERNCACHE_ROOT_DIR"

	// EnvHome is the fallback base when EnvRootDir is unset.
	EnvHome = "HOME"
)

// Subdir is the fixed directory name appended to the resolved base.
const Subdir = ".kerncache"

// artifactName is the file each built kernel subfolder must contain.
const artifactName = "lib.so"

// ErrRootUnresolved is returned when neither the override nor the home
// fallback is set. The root is never silently defaulted to an empty path.
var ErrRootUnresolved = errors.New("rootdir: neither " + EnvRootDir + " nor " + EnvHome + " is set")

// Resolver computes the artifact root exactly once, on first use.
//
// Contract:
// - Concurrency: safe for concurrent first use; racing callers block
//   until the single resolution completes.
// - Errors: a resolution failure is memoized like a success; the
//   environment is never re-read.
type Resolver struct {
	once sync.Once
	root string
	err  error
}

// NewResolver creates an unresolved Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Root returns the artifact root, resolving it on first call.
//
// Resolution reads EnvRootDir, falls back to EnvHome, and joins the
// result with Subdir. ${VAR} references inside the override value are
// expanded strictly: a reference to an unset variable is an error.
func (r *Resolver) Root() (string, error) {
	r.once.Do(func() {
		r.root, r.err = resolve()
	})
	return r.root, r.err
}

func resolve() (string, error) {
	base, ok := os.LookupEnv(EnvRootDir)
	if !ok || base == "" {
		base, ok = os.LookupEnv(EnvHome)
		if !ok || base == "" {
			return "", ErrRootUnresolved
		}
		return filepath.Join(base, Subdir), nil
	}

	expanded, err := ExpandEnvStrict(base)
	if err != nil {
		return "", fmt.Errorf("rootdir: expanding %s: %w", EnvRootDir, err)
	}
	return filepath.Join(expanded, Subdir), nil
}

// BuildRoot returns the directory all kernel builds land under:
// {root}/build.
func (r *Resolver) BuildRoot() (string, error) {
	root, err := r.Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "build"), nil
}

// BuildDir returns the build directory for a kernel subfolder.
func (r *Resolver) BuildDir(subfolder string) (string, error) {
	base, err := r.BuildRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, subfolder), nil
}

// ArtifactPath returns the expected artifact file for a kernel subfolder:
// {root}/build/{subfolder}/lib.so.
func (r *Resolver) ArtifactPath(subfolder string) (string, error) {
	dir, err := r.BuildDir(subfolder)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, artifactName), nil
}
