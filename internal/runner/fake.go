package runner

import (
	"context"
	"strings"
	"sync"
)

// FakeResponse is one scripted response for a FakeRunner.
type FakeResponse struct {
	Result Result
	Err    error
}

// FakeRunner returns scripted responses keyed by the full command line.
// Exported for use in tests across packages.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]FakeResponse
	calls     []string
}

// NewFakeRunner creates an empty fake. Commands without a scripted response
// behave as if the binary were missing.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]FakeResponse),
	}
}

// Script registers a response for the given command line
// (name and args joined with single spaces).
func (f *FakeRunner) Script(cmdline string, res Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = FakeResponse{Result: res, Err: err}
}

// ScriptOutput registers a successful response with the given stdout.
func (f *FakeRunner) ScriptOutput(cmdline, stdout string) {
	f.Script(cmdline, Result{Stdout: []byte(stdout)}, nil)
}

// Run implements Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	f.calls = append(f.calls, cmdline)
	resp, ok := f.responses[cmdline]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	if !ok {
		return Result{ExitCode: -1}, notFoundError{name}
	}
	return resp.Result, resp.Err
}

// Calls returns the command lines executed so far, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many commands were executed.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// notFoundError mimics exec's "executable file not found" failure so that
// IsNotFound matches it.
type notFoundError struct{ name string }

func (e notFoundError) Error() string {
	return "exec: \"" + e.name + "\": executable file not found in $PATH"
}
