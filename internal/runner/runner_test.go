package runner

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesOutput(t *testing.T) {
	r := New()

	res, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(res.Stdout))
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	r := New()

	res, err := r.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, string(res.Stderr), "oops")
}

func TestRun_MissingBinary(t *testing.T) {
	r := New()

	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRun_ContextTimeout(t *testing.T) {
	r := New()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, "sleep", "10")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 5*time.Second, "process should be killed at the deadline")
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"exec.ErrNotFound", exec.ErrNotFound, true},
		{"wrapped not found", &exec.Error{Name: "x", Err: exec.ErrNotFound}, true},
		{"message match", errors.New(`exec: "speedtest": executable file not found in $PATH`), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsPermissionDenied(t *testing.T) {
	denied := Result{
		ExitCode: 1,
		Stderr:   []byte("Got permission denied while trying to connect to the Docker daemon socket"),
	}
	assert.True(t, IsPermissionDenied(denied))

	ok := Result{ExitCode: 0, Stderr: []byte("permission denied")}
	assert.False(t, IsPermissionDenied(ok), "exit 0 is never a permission failure")

	other := Result{ExitCode: 1, Stderr: []byte("no such container")}
	assert.False(t, IsPermissionDenied(other))
}

func TestRunWithSudoRetry(t *testing.T) {
	f := NewFakeRunner()
	f.Script("docker inspect web", Result{
		ExitCode: 1,
		Stderr:   []byte("permission denied"),
	}, nil)
	f.ScriptOutput("sudo docker inspect web", "2024-01-01T00:00:00Z")

	res, err := RunWithSudoRetry(context.Background(), f, "docker", "inspect", "web")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "2024-01-01T00:00:00Z", string(res.Stdout))

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "docker inspect web", calls[0])
	assert.Equal(t, "sudo docker inspect web", calls[1])
}

func TestRunWithSudoRetry_NoRetryOnSuccess(t *testing.T) {
	f := NewFakeRunner()
	f.ScriptOutput("docker inspect web", "ok")

	res, err := RunWithSudoRetry(context.Background(), f, "docker", "inspect", "web")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(res.Stdout))
	assert.Equal(t, 1, f.CallCount())
}

func TestRunWithSudoRetry_NoRetryOnOtherFailure(t *testing.T) {
	f := NewFakeRunner()
	f.Script("docker inspect web", Result{
		ExitCode: 1,
		Stderr:   []byte("Error: No such container: web"),
	}, nil)

	res, err := RunWithSudoRetry(context.Background(), f, "docker", "inspect", "web")
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, 1, f.CallCount())
}

func TestFakeRunner_UnscriptedIsNotFound(t *testing.T) {
	f := NewFakeRunner()

	_, err := f.Run(context.Background(), "speedtest", "--format=json")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
