package builder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/kerncache/dynlib"
	"github.com/jonwraymond/kerncache/rootdir"
)

// fakeInvoker scripts IsBuilt/Invoke behavior per attempt.
type fakeInvoker struct {
	built      bool
	invokeErrs []error // consumed one per Invoke; empty means success
	invokes    int
	isBuiltErr error
}

func (f *fakeInvoker) IsBuilt(string) (bool, error) {
	return f.built, f.isBuiltErr
}

func (f *fakeInvoker) Invoke(_ context.Context, _, _ string, ret dynlib.Kind, _ ...dynlib.Arg) (dynlib.Result, error) {
	f.invokes++
	if len(f.invokeErrs) > 0 {
		err := f.invokeErrs[0]
		f.invokeErrs = f.invokeErrs[1:]
		if err != nil {
			return dynlib.Result{}, err
		}
	}
	return dynlib.Result{Kind: ret, Int: 7}, nil
}

// fakeBuilder records builds and flips the invoker's built flag.
type fakeBuilder struct {
	builds int
	err    error
	inv    *fakeInvoker
}

func (f *fakeBuilder) EnsureBuilt(context.Context, string) error {
	f.builds++
	if f.err != nil {
		return f.err
	}
	if f.inv != nil {
		f.inv.built = true
	}
	return nil
}

func fastRetry(max int) RetryConfig {
	return RetryConfig{MaxAttempts: max, InitialDelay: time.Millisecond}
}

func TestOrchestrator_BuildsOnMiss(t *testing.T) {
	inv := &fakeInvoker{built: false}
	b := &fakeBuilder{inv: inv}
	o := NewOrchestrator(b, inv, fastRetry(2), nil)

	res, err := o.Run(context.Background(), "gemm_abc", "gemm_fp16", dynlib.Int32)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Int != 7 {
		t.Errorf("result = %d, want 7", res.Int)
	}
	if b.builds != 1 {
		t.Errorf("builds = %d, want 1", b.builds)
	}
	if inv.invokes != 1 {
		t.Errorf("invokes = %d, want 1", inv.invokes)
	}
}

func TestOrchestrator_SkipsBuildWhenBuilt(t *testing.T) {
	inv := &fakeInvoker{built: true}
	b := &fakeBuilder{inv: inv}
	o := NewOrchestrator(b, inv, fastRetry(2), nil)

	if _, err := o.Run(context.Background(), "gemm_abc", "gemm_fp16", dynlib.Void); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if b.builds != 0 {
		t.Errorf("builds = %d, want 0", b.builds)
	}
}

func TestOrchestrator_RebuildsAfterLoadError(t *testing.T) {
	inv := &fakeInvoker{
		built: true,
		invokeErrs: []error{
			&dynlib.LoadError{Path: "lib.so", Detail: "truncated image"},
			nil,
		},
	}
	b := &fakeBuilder{inv: inv}
	o := NewOrchestrator(b, inv, fastRetry(2), nil)

	if _, err := o.Run(context.Background(), "gemm_abc", "gemm_fp16", dynlib.Void); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if b.builds != 1 {
		t.Errorf("builds = %d, want 1 (rebuild after bad artifact)", b.builds)
	}
	if inv.invokes != 2 {
		t.Errorf("invokes = %d, want 2", inv.invokes)
	}
}

func TestOrchestrator_ConfigErrorDoesNotRetry(t *testing.T) {
	inv := &fakeInvoker{isBuiltErr: rootdir.ErrRootUnresolved}
	b := &fakeBuilder{inv: inv}
	o := NewOrchestrator(b, inv, fastRetry(5), nil)

	_, err := o.Run(context.Background(), "gemm_abc", "gemm_fp16", dynlib.Void)
	if !errors.Is(err, rootdir.ErrRootUnresolved) {
		t.Fatalf("Run error = %v, want ErrRootUnresolved", err)
	}
	if b.builds != 0 {
		t.Errorf("builds = %d, want 0", b.builds)
	}
}

func TestOrchestrator_BuildFailurePropagates(t *testing.T) {
	inv := &fakeInvoker{built: false}
	b := &fakeBuilder{err: &BuildError{Subfolder: "gemm_fp16", ExitCode: 2}}
	o := NewOrchestrator(b, inv, fastRetry(3), nil)

	_, err := o.Run(context.Background(), "gemm_abc", "gemm_fp16", dynlib.Void)
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("Run error = %v, want *BuildError", err)
	}
	if b.builds != 1 {
		t.Errorf("builds = %d, want 1 (build failures do not retry)", b.builds)
	}
	if inv.invokes != 0 {
		t.Errorf("invokes = %d, want 0", inv.invokes)
	}
}
