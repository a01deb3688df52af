// pattern: Imperative Shell

// Package gitexec runs the git CLI against a working directory.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"gitok/internal/logging"
)

// Func executes git with args in dir and returns captured stdout.
// Resolvers depend on this type so tests can substitute canned output.
type Func func(ctx context.Context, dir string, args ...string) (string, error)

// ExecutionError reports a git invocation that did not exit cleanly.
// ExitCode is -1 when the process could not be started or was killed.
type ExecutionError struct {
	Dir      string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	cmd := "git " + strings.Join(e.Args, " ")
	if e.Stderr != "" {
		return fmt.Sprintf("%s (in %s): exit %d: %s", cmd, e.Dir, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s (in %s): %v", cmd, e.Dir, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsNotInstalled reports whether err means the git binary could not be found.
func IsNotInstalled(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// Runner spawns git processes.
type Runner struct {
	binary  string
	timeout time.Duration
	logger  *logging.ScopedLogger
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the git executable (default "git").
func WithBinary(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.binary = path
		}
	}
}

// WithTimeout bounds every invocation. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithLogger attaches a logger for command tracing.
func WithLogger(l *logging.ScopedLogger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		binary: "git",
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Binary returns the configured git executable.
func (r *Runner) Binary() string {
	return r.binary
}

// Run executes git with args in dir. Cancelling ctx kills the process.
func (r *Runner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_OPTIONAL_LOCKS=0",
		"GIT_TERMINAL_PROMPT=0",
		"LC_ALL=C",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("git command finished",
		"dir", dir,
		"args", strings.Join(args, " "),
		"duration", time.Since(start),
		"ok", err == nil,
	)

	if err != nil {
		execErr := &ExecutionError{
			Dir:      dir,
			Args:     args,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			execErr.Err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return "", execErr
	}

	return stdout.String(), nil
}

// Func returns r.Run as a Func.
func (r *Runner) Func() Func {
	return r.Run
}
