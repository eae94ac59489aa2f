// Package runner executes external commands (docker, tailscale, speedtest)
// with bounded timeouts and a uniform retry-with-sudo path for permission
// errors. All monitoring code goes through the Runner interface so tests can
// script command output without touching the host.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result holds the outcome of one command invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes a single external command and captures its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

// New returns a Runner backed by os/exec. The context bounds each command;
// on cancellation or deadline the process is killed, not abandoned.
func New() Runner {
	return &execRunner{}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		// A killed process surfaces as ExitError; report the context's
		// error so callers see the timeout instead of a bare exit code.
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.ExitCode = -1
			return res, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Command ran but exited non-zero. Not an execution failure;
			// callers inspect ExitCode and Stderr.
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, err
	}

	return res, nil
}

// IsNotFound reports whether err indicates the binary does not exist.
// A missing binary is a fall-through signal, not a failure: candidate
// command lists try the next entry.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "no such file or directory")
}

// IsPermissionDenied reports whether the command failed with a permission
// error, detected by matching stderr. Docker reports socket permission
// problems this way.
func IsPermissionDenied(res Result) bool {
	return res.ExitCode != 0 &&
		strings.Contains(strings.ToLower(string(res.Stderr)), "permission denied")
}

// RunWithSudoRetry runs the command, and if it fails with a permission
// error, retries exactly once with sudo prepended. The second result wins
// in that case; any other failure is returned as-is.
func RunWithSudoRetry(ctx context.Context, r Runner, name string, args ...string) (Result, error) {
	res, err := r.Run(ctx, name, args...)
	if err != nil {
		return res, err
	}
	if !IsPermissionDenied(res) {
		return res, nil
	}

	sudoArgs := append([]string{name}, args...)
	return r.Run(ctx, "sudo", sudoArgs...)
}
