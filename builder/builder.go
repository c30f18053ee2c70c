package builder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jonwraymond/kerncache/observe"
)

// Builder produces the on-disk artifact for one kernel subfolder.
//
// Contract:
// - Concurrency: implementations must tolerate concurrent calls for
//   different subfolders; calls for the same subfolder may be serialized
//   by the implementation.
// - Errors: a failed build must leave no artifact at the expected path.
type Builder interface {
	// EnsureBuilt blocks until the artifact for subfolder exists or the
	// build fails.
	EnsureBuilt(ctx context.Context, subfolder string) error
}

// BuildError reports a failed build command.
type BuildError struct {
	Subfolder string
	ExitCode  int
	Output    string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("builder: build %s failed with exit code %d", e.Subfolder, e.ExitCode)
}

// SubfolderPlaceholder is replaced with the kernel subfolder in a
// CommandBuilder command template.
const SubfolderPlaceholder = "{subfolder}"

// CommandBuilder shells out to an external build command.
type CommandBuilder struct {
	// Command is the shell command template. Every occurrence of
	// SubfolderPlaceholder is replaced with the kernel subfolder.
	Command string

	// Timeout bounds one build. Zero means no builder-imposed limit;
	// the caller's context still applies.
	Timeout time.Duration

	// Logger defaults to a no-op when nil.
	Logger observe.Logger
}

// EnsureBuilt renders the command template and runs it through the shell,
// capturing combined output for diagnostics.
func (b *CommandBuilder) EnsureBuilt(ctx context.Context, subfolder string) error {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	rendered := strings.ReplaceAll(b.Command, SubfolderPlaceholder, subfolder)
	b.log().Info(ctx, "building kernel",
		observe.Field{Key: "subfolder", Value: subfolder},
		observe.Field{Key: "command", Value: rendered},
	)

	cmd := exec.CommandContext(ctx, "sh", "-c", rendered)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("builder: build %s: %w", subfolder, ctxErr)
	}

	buildErr := &BuildError{Subfolder: subfolder, ExitCode: -1, Output: string(out)}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		buildErr.ExitCode = exitErr.ExitCode()
	}
	b.log().Error(ctx, "kernel build failed",
		observe.Field{Key: "subfolder", Value: subfolder},
		observe.Field{Key: "exit_code", Value: buildErr.ExitCode},
		observe.Field{Key: "output", Value: buildErr.Output},
	)
	return buildErr
}

func (b *CommandBuilder) log() observe.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	_, _, logger := observe.NoopInstruments()
	return logger
}

// Ensure CommandBuilder implements Builder
var _ Builder = (*CommandBuilder)(nil)
