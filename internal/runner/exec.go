// Package runner executes per-file tool invocations with bounded concurrency
// and configurable failure containment.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Capture holds everything observed from one process execution.
type Capture struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// StartErr is set when the process could not be started at all
	// (executable missing, permission denied). ExitCode is -1 then.
	StartErr error
}

// ExecRunner abstracts command execution for testability.
type ExecRunner interface {
	// LookPath checks if a binary exists in PATH.
	LookPath(name string) (string, error)

	// Run executes a command, fully capturing stdout and stderr.
	Run(ctx context.Context, name string, args ...string) Capture
}

// RealRunner implements ExecRunner using os/exec.
type RealRunner struct {
	// Timeout for each command execution; zero means no timeout.
	Timeout time.Duration
}

// NewRealRunner creates a runner with the given per-process timeout.
func NewRealRunner(timeout time.Duration) *RealRunner {
	return &RealRunner{Timeout: timeout}
}

// LookPath checks if a binary exists in PATH.
func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes a command and captures its output. A non-zero exit is a data
// outcome, not an error: it is reported through ExitCode.
func (r *RealRunner) Run(ctx context.Context, name string, args ...string) Capture {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	capture := Capture{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch e := err.(type) {
	case nil:
		capture.ExitCode = 0
	case *exec.ExitError:
		capture.ExitCode = e.ExitCode()
	default:
		capture.ExitCode = -1
		capture.StartErr = err
	}
	return capture
}

// MockRunner implements ExecRunner for testing.
type MockRunner struct {
	mu       sync.Mutex
	lookPath map[string]string
	commands map[string]Capture
	delay    time.Duration
	calls    []string
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		lookPath: make(map[string]string),
		commands: make(map[string]Capture),
	}
}

// SetLookPath configures the mock to return a path for the given name.
func (m *MockRunner) SetLookPath(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookPath[name] = path
}

// SetCommand configures the capture returned for a command. The key is either
// the bare tool name or "tool arg1 arg2 ...".
func (m *MockRunner) SetCommand(key string, capture Capture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[key] = capture
}

// SetDelay makes every Run sleep, for exercising the parallel pool.
func (m *MockRunner) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns the "tool arg..." strings of every Run invocation, in call order.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// LookPath implements ExecRunner.
func (m *MockRunner) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path, ok := m.lookPath[name]; ok {
		return path, nil
	}
	return "", exec.ErrNotFound
}

// Run implements ExecRunner.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) Capture {
	m.mu.Lock()
	key := name
	if len(args) > 0 {
		key += " " + strings.Join(args, " ")
	}
	m.calls = append(m.calls, key)
	capture, ok := m.commands[key]
	if !ok {
		capture, ok = m.commands[name]
	}
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}

	if !ok {
		return Capture{ExitCode: -1, StartErr: exec.ErrNotFound}
	}
	return capture
}
