// Package exttool runs external programs (formatters, type checkers, git)
// with a bounded wall-clock time. A missing program or a timeout is reported
// as a sentinel error so callers can treat the tool as unavailable.
package exttool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrUnavailable means the program is not installed or could not be started.
	ErrUnavailable = errors.New("tool unavailable")
	// ErrTimeout means the program did not finish within the configured timeout.
	ErrTimeout = errors.New("tool timed out")
)

// DefaultTimeout bounds a single subprocess.
const DefaultTimeout = 30 * time.Second

// Result is the captured outcome of a finished program.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports a zero exit status.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Runner starts a program in dir and waits for it. A non-zero exit status is
// not an error: it is reported in Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// Exec runs programs with os/exec.
type Exec struct {
	Timeout time.Duration
	Log     zerolog.Logger
}

// NewExec returns a runner with the given timeout; zero selects DefaultTimeout.
func NewExec(timeout time.Duration, log zerolog.Logger) *Exec {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exec{Timeout: timeout, Log: log}
}

func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		err = fmt.Errorf("%s after %s: %w", name, timeout, ErrTimeout)
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		err = nil
	case err != nil:
		err = fmt.Errorf("%s: %w: %w", name, ErrUnavailable, err)
	}

	e.Log.Debug().
		Str("tool", name).
		Strs("args", args).
		Str("dir", dir).
		Int("exit", res.ExitCode).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("external tool")
	return res, err
}
