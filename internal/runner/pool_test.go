package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"relint/internal/command"
	"relint/internal/diagnostic"
	"relint/internal/logging"
	"relint/internal/project"
)

func mkInvocations(n int, exitCodes map[int]int) ([]command.Invocation, *MockRunner) {
	mock := NewMockRunner()
	invs := make([]command.Invocation, 0, n)
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("f%d.cpp", i)
		inv := command.Invocation{
			File: project.FileUnit{Path: path, Project: "p"},
			Mode: command.ModeCompile,
			Tool: "clang++",
			Args: []string{path},
		}
		invs = append(invs, inv)
		mock.SetCommand("clang++ "+path, Capture{ExitCode: exitCodes[i]})
	}
	return invs, mock
}

func resultPaths(results []Result) []string {
	paths := make([]string, 0, len(results))
	for _, r := range results {
		paths = append(paths, r.File.Path)
	}
	sort.Strings(paths)
	return paths
}

func TestRunSequentialAllSucceed(t *testing.T) {
	invs, mock := mkInvocations(4, nil)
	pool := NewPool(mock, logging.Nop())

	results := pool.Run(context.Background(), invs, Options{})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	// Sequential mode preserves selection order.
	for i, r := range results {
		if want := fmt.Sprintf("f%d.cpp", i); r.File.Path != want {
			t.Errorf("results[%d] = %s, want %s", i, r.File.Path, want)
		}
	}
}

func TestRunStopsOnFirstFailure(t *testing.T) {
	invs, mock := mkInvocations(5, map[int]int{1: 2})
	pool := NewPool(mock, logging.Nop())

	results := pool.Run(context.Background(), invs, Options{ContinueOnError: false})
	if len(results) != 2 {
		t.Fatalf("expected scheduling to stop after failure, got %d results", len(results))
	}
	if results[1].ExitCode != 2 {
		t.Errorf("failing result exit code = %d, want 2", results[1].ExitCode)
	}
}

func TestRunContinueOnError(t *testing.T) {
	invs, mock := mkInvocations(5, map[int]int{0: 1, 2: 1, 4: 1})
	pool := NewPool(mock, logging.Nop())

	results := pool.Run(context.Background(), invs, Options{ContinueOnError: true})
	if len(results) != 5 {
		t.Fatalf("continueOnError should process all files, got %d results", len(results))
	}
	failed := 0
	for _, r := range results {
		if r.ExitCode != 0 {
			failed++
		}
	}
	if failed != 3 {
		t.Errorf("expected 3 failures recorded as data, got %d", failed)
	}
}

func TestRunParallelResultSetComplete(t *testing.T) {
	invs, mock := mkInvocations(8, nil)
	mock.SetDelay(5 * time.Millisecond)
	pool := NewPool(mock, logging.Nop())

	results := pool.Run(context.Background(), invs, Options{Parallel: true, ContinueOnError: true, Workers: 3})
	if len(results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(results))
	}
	// The result set is completion-order independent: compare as a set.
	want := []string{"f0.cpp", "f1.cpp", "f2.cpp", "f3.cpp", "f4.cpp", "f5.cpp", "f6.cpp", "f7.cpp"}
	got := resultPaths(results)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result set = %v, want %v", got, want)
		}
	}
}

func TestRunParallelBoundedWallTime(t *testing.T) {
	const perFile = 20 * time.Millisecond
	invs, mock := mkInvocations(8, nil)
	mock.SetDelay(perFile)
	pool := NewPool(mock, logging.Nop())

	start := time.Now()
	results := pool.Run(context.Background(), invs, Options{Parallel: true, Workers: 4})
	elapsed := time.Since(start)

	if len(results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(results))
	}
	// ceil(8/4)*20ms = 40ms; allow generous scheduling overhead.
	if elapsed > 10*perFile {
		t.Errorf("parallel run took %v, expected around %v", elapsed, 2*perFile)
	}
}

func TestRunParallelStopIsCooperative(t *testing.T) {
	// Every file fails; with one worker the stop flag must prevent most of
	// the queue from ever starting, while started work still records results.
	exitCodes := make(map[int]int)
	for i := 0; i < 6; i++ {
		exitCodes[i] = 1
	}
	invs, mock := mkInvocations(6, exitCodes)
	pool := NewPool(mock, logging.Nop())

	results := pool.Run(context.Background(), invs, Options{Parallel: true, Workers: 1})
	if len(results) == 0 {
		t.Fatal("the first started invocation must record a result")
	}
	if len(results) == 6 {
		t.Error("stop flag should prevent the full queue from running")
	}
	for _, r := range results {
		if r.ExitCode != 1 {
			t.Errorf("recorded result has exit code %d, want 1", r.ExitCode)
		}
	}
}

func TestRunOneMissingToolSynthesizesSignature(t *testing.T) {
	mock := NewMockRunner() // no commands configured: every Run fails to start
	pool := NewPool(mock, logging.Nop())

	t.Run("compiler", func(t *testing.T) {
		invs := []command.Invocation{{
			File: project.FileUnit{Path: "a.cpp"},
			Mode: command.ModeCompile,
			Tool: "clang++",
		}}
		results := pool.Run(context.Background(), invs, Options{ContinueOnError: true})
		if len(results) != 1 || !results[0].StartFailed {
			t.Fatalf("expected one start-failed result, got %+v", results)
		}
		if !strings.Contains(results[0].Stderr, diagnostic.SignatureCompilerMissing) {
			t.Errorf("stderr should carry the compiler signature, got %q", results[0].Stderr)
		}
	})

	t.Run("linter", func(t *testing.T) {
		invs := []command.Invocation{{
			File: project.FileUnit{Path: "a.cpp"},
			Mode: command.ModeLintFix,
			Tool: "clang-tidy",
		}}
		results := pool.Run(context.Background(), invs, Options{ContinueOnError: true})
		if !strings.Contains(results[0].Stderr, diagnostic.SignatureLinterMissing) {
			t.Errorf("stderr should carry the linter signature, got %q", results[0].Stderr)
		}
	})
}

func TestRunEmptyInvocations(t *testing.T) {
	pool := NewPool(NewMockRunner(), logging.Nop())
	if results := pool.Run(context.Background(), nil, Options{}); results != nil {
		t.Errorf("expected nil results for empty input, got %v", results)
	}
}
