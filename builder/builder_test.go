package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCommandBuilder_Success(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "built-{subfolder}")

	b := &CommandBuilder{Command: "touch " + marker}
	if err := b.EnsureBuilt(context.Background(), "gemm_fp16"); err != nil {
		t.Fatalf("EnsureBuilt failed: %v", err)
	}

	// The placeholder was rendered into the command before execution.
	if _, err := os.Stat(filepath.Join(dir, "built-gemm_fp16")); err != nil {
		t.Errorf("rendered command did not run: %v", err)
	}
}

func TestCommandBuilder_ExitCode(t *testing.T) {
	b := &CommandBuilder{Command: "echo compile error for {subfolder} >&2; exit 3"}

	err := b.EnsureBuilt(context.Background(), "gemm_fp16")
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("error = %v, want *BuildError", err)
	}
	if buildErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", buildErr.ExitCode)
	}
	if buildErr.Subfolder != "gemm_fp16" {
		t.Errorf("Subfolder = %q", buildErr.Subfolder)
	}
	if buildErr.Output == "" {
		t.Error("Output should carry the build diagnostics")
	}
}

func TestCommandBuilder_Timeout(t *testing.T) {
	b := &CommandBuilder{Command: "sleep 5", Timeout: 50 * time.Millisecond}

	err := b.EnsureBuilt(context.Background(), "gemm_fp16")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	attempts := 0
	r := NewRetry(RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond})

	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	wantErr := errors.New("persistent")
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})

	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute error = %v, want %v", err, wantErr)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_RespectsRetryIf(t *testing.T) {
	attempts := 0
	fatal := errors.New("fatal")
	r := NewRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		RetryIf:      func(err error) bool { return !errors.Is(err, fatal) },
	})

	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("Execute error = %v, want %v", err, fatal)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (fatal errors do not retry)", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetry(RetryConfig{MaxAttempts: 10, InitialDelay: time.Hour})

	go cancel()
	err := r.Execute(ctx, func(context.Context) error {
		return errors.New("always")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute error = %v, want context.Canceled", err)
	}
}
