package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/kerncache/rootdir"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestRootChecker(t *testing.T) {
	t.Run("unresolvable", func(t *testing.T) {
		t.Setenv(rootdir.EnvRootDir, "")
		t.Setenv(rootdir.EnvHome, "")

		res := NewRootChecker(rootdir.NewResolver()).Check(context.Background())
		if res.Status != StatusUnhealthy {
			t.Errorf("Status = %v, want unhealthy", res.Status)
		}
		if res.Error == nil {
			t.Error("Result should carry the resolution error")
		}
	})

	t.Run("missing root is degraded", func(t *testing.T) {
		t.Setenv(rootdir.EnvRootDir, filepath.Join(t.TempDir(), "never-created"))

		res := NewRootChecker(rootdir.NewResolver()).Check(context.Background())
		if res.Status != StatusDegraded {
			t.Errorf("Status = %v, want degraded", res.Status)
		}
	})

	t.Run("existing root is healthy", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(rootdir.EnvRootDir, dir)

		if err := os.MkdirAll(filepath.Join(dir, rootdir.Subdir), 0o755); err != nil {
			t.Fatal(err)
		}

		res := NewRootChecker(rootdir.NewResolver()).Check(context.Background())
		if res.Status != StatusHealthy {
			t.Errorf("Status = %v, want healthy (%s)", res.Status, res.Message)
		}
		if res.Details["root"] == nil {
			t.Error("Details should include the resolved root")
		}
	})
}

func TestArtifactChecker(t *testing.T) {
	t.Run("unresolvable", func(t *testing.T) {
		t.Setenv(rootdir.EnvRootDir, "")
		t.Setenv(rootdir.EnvHome, "")

		res := NewArtifactChecker(rootdir.NewResolver()).Check(context.Background())
		if res.Status != StatusUnhealthy {
			t.Errorf("Status = %v, want unhealthy", res.Status)
		}
	})

	t.Run("missing build root is degraded", func(t *testing.T) {
		t.Setenv(rootdir.EnvRootDir, t.TempDir())

		res := NewArtifactChecker(rootdir.NewResolver()).Check(context.Background())
		if res.Status != StatusDegraded {
			t.Errorf("Status = %v, want degraded", res.Status)
		}
	})

	t.Run("counts built kernels", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(rootdir.EnvRootDir, dir)

		buildRoot := filepath.Join(dir, rootdir.Subdir, "build")
		for _, sub := range []string{"gemm_fp16", "softmax_bf16"} {
			if err := os.MkdirAll(filepath.Join(buildRoot, sub), 0o755); err != nil {
				t.Fatal(err)
			}
		}

		res := NewArtifactChecker(rootdir.NewResolver()).Check(context.Background())
		if res.Status != StatusHealthy {
			t.Fatalf("Status = %v, want healthy (%s)", res.Status, res.Message)
		}
		if got := res.Details["kernels"]; got != 2 {
			t.Errorf("Details[kernels] = %v, want 2", got)
		}
	})
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register(NewCheckerFunc("ok", func(context.Context) Result {
		return Healthy("fine")
	}))
	agg.Register(NewCheckerFunc("warn", func(context.Context) Result {
		return Degraded("wobbly")
	}))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results["ok"].Status != StatusHealthy {
		t.Errorf("ok status = %v", results["ok"].Status)
	}
	if OverallStatus(results) != StatusDegraded {
		t.Errorf("OverallStatus = %v, want degraded", OverallStatus(results))
	}
}

func TestAggregator_OverallStatusUnhealthyWins(t *testing.T) {
	results := map[string]Result{
		"a": Healthy("fine"),
		"b": Degraded("wobbly"),
		"c": Unhealthy("broken", errors.New("nope")),
	}
	if OverallStatus(results) != StatusUnhealthy {
		t.Errorf("OverallStatus = %v, want unhealthy", OverallStatus(results))
	}
	if OverallStatus(nil) != StatusHealthy {
		t.Error("empty results should be healthy")
	}
}

func TestAggregator_UnknownChecker(t *testing.T) {
	agg := NewAggregator()
	if _, err := agg.Check(context.Background(), "ghost"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 50 * time.Millisecond})
	agg.Register(NewCheckerFunc("slow", func(ctx context.Context) Result {
		select {
		case <-time.After(5 * time.Second):
			return Healthy("too late")
		case <-ctx.Done():
			return Unhealthy("canceled", ctx.Err())
		}
	}))

	results := agg.CheckAll(context.Background())
	if results["slow"].Status != StatusUnhealthy {
		t.Errorf("slow status = %v, want unhealthy", results["slow"].Status)
	}
}
