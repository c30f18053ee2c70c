package dispatch

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/kerncache/cache"
	"github.com/jonwraymond/kerncache/dynlib"
	"github.com/jonwraymond/kerncache/observe"
	"github.com/jonwraymond/kerncache/rootdir"
	"github.com/jonwraymond/kerncache/signature"
)

// EnvMaxCacheSize bounds the handle and name caches. Unset or
// unparsable means unbounded.
const EnvMaxCacheSize = "KERNCACHE_MAX_CACHE_SIZE"

// ErrNilHandle is returned when a loader produces a nil handle without
// an error.
var ErrNilHandle = errors.New("dispatch: loader returned nil handle")

// Handle is a loaded artifact as the dispatcher sees it.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: the dispatcher retains a handle for the duration of each
//   invocation and releases it afterwards; eviction drops the cache's
//   own reference. The image is unloaded when the last reference goes.
type Handle interface {
	// Call invokes the named entry point with the declared signature.
	Call(name string, ret dynlib.Kind, args ...dynlib.Arg) (dynlib.Result, error)

	// Retain adds a reference; it fails once the handle is fully released.
	Retain() error

	// Release drops a reference, unloading the image at zero.
	Release() error

	// Path returns the filesystem path the handle was loaded from.
	Path() string
}

// LoadFunc loads the artifact at path. The returned handle carries one
// reference owned by the cache entry it is inserted under.
type LoadFunc func(path string) (Handle, error)

// defaultLoad loads through the native dynamic loader.
func defaultLoad(path string) (Handle, error) {
	return dynlib.Open(path)
}

// Options configures a Dispatcher. The zero value is usable: cache
// sizes come from EnvMaxCacheSize, loading uses the native loader, and
// telemetry is off.
type Options struct {
	// CacheSize bounds the handle cache and the name memoization cache.
	// 0 reads EnvMaxCacheSize; negative is explicitly unbounded.
	CacheSize int

	// Digest overrides the name digest. Nil means MD5.
	Digest signature.Digest

	// Load overrides artifact loading (used by hosts embedding their
	// own loader and by tests). Nil means dynlib.Open.
	Load LoadFunc

	// Root overrides the artifact root resolver. Nil constructs one.
	Root *rootdir.Resolver

	// Logger, Tracer and Metrics default to no-ops when nil.
	Logger  observe.Logger
	Tracer  observe.Tracer
	Metrics observe.Metrics
}

// Dispatcher loads kernels once and reuses the loaded handles.
//
// Contract:
// - Concurrency: safe for concurrent use. The handle cache is guarded
//   by one mutex held across each get-or-insert sequence; concurrent
//   first requests for the same identifier perform a single load.
// - Errors: load and resolution failures propagate synchronously to
//   the Invoke caller and are never retried here.
type Dispatcher struct {
	mu      sync.Mutex
	handles *cache.LRU[string, Handle]

	group   singleflight.Group
	namer   *signature.Namer
	root    *rootdir.Resolver
	load    LoadFunc
	logger  observe.Logger
	tracer  observe.Tracer
	metrics observe.Metrics

	loads uint64 // total underlying load operations
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	size := opts.CacheSize
	if size == 0 {
		size = cache.SizeFromEnv(EnvMaxCacheSize)
	}

	load := opts.Load
	if load == nil {
		load = defaultLoad
	}
	root := opts.Root
	if root == nil {
		root = rootdir.NewResolver()
	}

	logger, tracer, metrics := opts.Logger, opts.Tracer, opts.Metrics
	if logger == nil || tracer == nil || metrics == nil {
		nt, nm, nl := observe.NoopInstruments()
		if tracer == nil {
			tracer = nt
		}
		if metrics == nil {
			metrics = nm
		}
		if logger == nil {
			logger = nl
		}
	}

	d := &Dispatcher{
		handles: cache.NewLRU[string, Handle](size),
		namer:   signature.NewNamer(size, opts.Digest),
		root:    root,
		load:    load,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
	}
	d.handles.SetOnEvict(func(funcID string, h Handle) {
		// The cache's reference goes away immediately; in-flight
		// invocations keep the image alive through their own.
		if err := h.Release(); err != nil {
			d.logger.Warn(context.Background(), "evicted handle release failed",
				observe.Field{Key: "func_id", Value: funcID},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		d.metrics.RecordEviction(context.Background(), funcID)
	})
	return d
}

// FuncName returns the canonical identifier for base applied to tokens.
func (d *Dispatcher) FuncName(base string, tokens []string) string {
	return d.namer.Name(base, tokens)
}

// IsBuilt reports whether the artifact for subfolder exists on disk.
// It is a pure existence check: neither the answer nor the stat result
// is cached, so a freshly built artifact is visible immediately.
func (d *Dispatcher) IsBuilt(subfolder string) (bool, error) {
	path, err := d.root.ArtifactPath(subfolder)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Invoke resolves funcID to a loaded handle, loading the artifact from
// {root}/build/{subfolder}/lib.so on a miss, and calls the entry point
// named funcID with the declared signature.
//
// Loading a new kernel may evict and unload an unrelated handle when
// the cache is full: callers must not hold symbol pointers across
// Invoke calls for other identifiers.
func (d *Dispatcher) Invoke(ctx context.Context, funcID, subfolder string, ret dynlib.Kind, args ...dynlib.Arg) (dynlib.Result, error) {
	meta := observe.KernelMeta{FuncID: funcID, Subfolder: subfolder}
	ctx, span := d.tracer.StartSpan(ctx, meta)
	start := time.Now()

	h, hit, err := d.acquire(ctx, funcID, subfolder)
	if err != nil {
		d.metrics.RecordInvoke(ctx, meta, time.Since(start), hit, err)
		d.tracer.EndSpan(span, err)
		d.logger.WithKernel(meta).Error(ctx, "kernel dispatch failed",
			observe.Field{Key: "error", Value: err.Error()})
		return dynlib.Result{}, err
	}
	defer h.Release()

	res, err := h.Call(funcID, ret, args...)

	duration := time.Since(start)
	d.metrics.RecordInvoke(ctx, meta, duration, hit, err)
	d.tracer.EndSpan(span, err)

	log := d.logger.WithKernel(meta)
	if err != nil {
		log.Error(ctx, "kernel invocation failed",
			observe.Field{Key: "error", Value: err.Error()})
	} else {
		log.Debug(ctx, "kernel invoked",
			observe.Field{Key: "cache_hit", Value: hit},
			observe.Field{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		)
	}
	return res, err
}

// acquire returns a retained handle for funcID, loading it on a miss.
// The caller must Release the handle when the invocation completes.
func (d *Dispatcher) acquire(ctx context.Context, funcID, subfolder string) (Handle, bool, error) {
	d.mu.Lock()
	if h, ok := d.handles.Get(funcID); ok {
		err := h.Retain()
		d.mu.Unlock()
		if err != nil {
			return nil, true, err
		}
		return h, true, nil
	}
	d.mu.Unlock()

	// Concurrent first requests for the same identifier share one load.
	_, err, _ := d.group.Do(funcID, func() (any, error) {
		return nil, d.loadInto(ctx, funcID, subfolder)
	})
	if err != nil {
		return nil, false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if h, ok := d.handles.Get(funcID); ok {
		if err := h.Retain(); err != nil {
			return nil, false, err
		}
		return h, false, nil
	}

	// The entry was evicted between the load and this fetch (a very
	// small cache under concurrent traffic). Load again inline: the
	// duplicate load is wasted work, not a correctness problem.
	if err := d.loadIntoLocked(ctx, funcID, subfolder); err != nil {
		return nil, false, err
	}
	h, ok := d.handles.Get(funcID)
	if !ok {
		return nil, false, ErrNilHandle
	}
	if err := h.Retain(); err != nil {
		return nil, false, err
	}
	return h, false, nil
}

// loadInto loads the artifact for funcID and inserts it into the cache.
func (d *Dispatcher) loadInto(ctx context.Context, funcID, subfolder string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.handles.Get(funcID); ok {
		return nil // lost a benign race; the handle is already cached
	}
	return d.loadIntoLocked(ctx, funcID, subfolder)
}

func (d *Dispatcher) loadIntoLocked(ctx context.Context, funcID, subfolder string) error {
	path, err := d.root.ArtifactPath(subfolder)
	if err != nil {
		return err
	}

	meta := observe.KernelMeta{FuncID: funcID, Subfolder: subfolder}
	start := time.Now()
	h, err := d.load(path)
	d.metrics.RecordLoad(ctx, meta, time.Since(start), err)
	if err != nil {
		return err
	}
	if h == nil {
		return ErrNilHandle
	}
	d.loads++

	d.logger.WithKernel(meta).Info(ctx, "artifact loaded",
		observe.Field{Key: "path", Value: path})

	// The cache entry takes over the loader's reference.
	d.handles.Put(funcID, h)
	return nil
}

// Stats reports cache occupancy for health checks and tests.
type Stats struct {
	Entries   int
	Capacity  int
	Evictions uint64
	Loads     uint64
}

// Stats returns a snapshot of the handle cache.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Entries:   d.handles.Len(),
		Capacity:  d.handles.Capacity(),
		Evictions: d.handles.Evictions(),
		Loads:     d.loads,
	}
}

// Root returns the dispatcher's artifact root resolver.
func (d *Dispatcher) Root() *rootdir.Resolver {
	return d.root
}

// Close releases the cache's reference on every loaded handle and
// empties the cache. Handles retained by in-flight invocations stay
// loaded until those calls finish. Meant for process shutdown.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, funcID := range d.handles.Keys() {
		if h, ok := d.handles.Get(funcID); ok {
			if err := h.Release(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	d.handles.Clear()
	return errors.Join(errs...)
}
