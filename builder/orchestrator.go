package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/kerncache/dynlib"
	"github.com/jonwraymond/kerncache/observe"
	"github.com/jonwraymond/kerncache/rootdir"
)

// Invoker is the dispatch-cache surface the orchestrator drives.
type Invoker interface {
	// IsBuilt reports whether the artifact for subfolder exists.
	IsBuilt(subfolder string) (bool, error)

	// Invoke dispatches funcID against the artifact in subfolder.
	Invoke(ctx context.Context, funcID, subfolder string, ret dynlib.Kind, args ...dynlib.Arg) (dynlib.Result, error)
}

// Orchestrator combines build-on-miss with dispatch. One Run call
// checks the artifact, builds it if absent, invokes the kernel, and
// retries with a rebuild when the invocation fails in a way a rebuild
// can fix (load and symbol resolution errors).
type Orchestrator struct {
	builder Builder
	invoker Invoker
	retry   *Retry
	logger  observe.Logger
}

// NewOrchestrator creates an Orchestrator. A nil logger is a no-op.
func NewOrchestrator(b Builder, inv Invoker, retryCfg RetryConfig, logger observe.Logger) *Orchestrator {
	if logger == nil {
		_, _, logger = observe.NoopInstruments()
	}
	if retryCfg.RetryIf == nil {
		retryCfg.RetryIf = rebuildMayFix
	}
	return &Orchestrator{
		builder: b,
		invoker: inv,
		retry:   NewRetry(retryCfg),
		logger:  logger,
	}
}

// rebuildMayFix reports whether retrying after a rebuild could succeed.
// Configuration errors cannot be built away.
func rebuildMayFix(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, rootdir.ErrRootUnresolved) {
		return false
	}
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return false
	}
	var loadErr *dynlib.LoadError
	var symErr *dynlib.SymbolError
	return errors.As(err, &loadErr) || errors.As(err, &symErr)
}

// Run dispatches funcID, building the artifact first when it is absent.
func (o *Orchestrator) Run(ctx context.Context, funcID, subfolder string, ret dynlib.Kind, args ...dynlib.Arg) (dynlib.Result, error) {
	var res dynlib.Result
	rebuild := false

	err := o.retry.Execute(ctx, func(ctx context.Context) error {
		built, err := o.invoker.IsBuilt(subfolder)
		if err != nil {
			return err
		}
		if !built || rebuild {
			o.logger.Info(ctx, "building artifact",
				observe.Field{Key: "subfolder", Value: subfolder},
				observe.Field{Key: "rebuild", Value: rebuild})
			if err := o.builder.EnsureBuilt(ctx, subfolder); err != nil {
				return fmt.Errorf("building %s: %w", subfolder, err)
			}
		}

		res, err = o.invoker.Invoke(ctx, funcID, subfolder, ret, args...)
		// A load or resolution failure against an existing artifact
		// means the artifact itself is bad; rebuild before retrying.
		rebuild = rebuildMayFix(err)
		return err
	})
	return res, err
}
