package exttool

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requireShell(t)
	r := NewExec(5*time.Second, zerolog.Nop())

	res, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	requireShell(t)
	r := NewExec(5*time.Second, zerolog.Nop())

	res, err := r.Run(context.Background(), "", "sh", "-c", "echo broken; exit 3")
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "broken\n", res.Stdout)
}

func TestRunMissingProgram(t *testing.T) {
	r := NewExec(time.Second, zerolog.Nop())

	_, err := r.Run(context.Background(), "", "claude-guard-no-such-program")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestRunTimeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	r := NewExec(50*time.Millisecond, zerolog.Nop())

	_, err := r.Run(context.Background(), "", "sleep", "5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestNewExecDefaultTimeout(t *testing.T) {
	r := NewExec(0, zerolog.Nop())
	assert.Equal(t, DefaultTimeout, r.Timeout)
}
