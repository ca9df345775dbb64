package runner

import (
	"context"
	"testing"
	"time"
)

func TestRealRunnerMissingExecutable(t *testing.T) {
	r := NewRealRunner(5 * time.Second)

	if _, err := r.LookPath("relint-no-such-tool-xyz"); err == nil {
		t.Fatal("LookPath should fail for a missing executable")
	}

	capture := r.Run(context.Background(), "relint-no-such-tool-xyz", "-v")
	if capture.StartErr == nil {
		t.Fatal("Run should report a start failure for a missing executable")
	}
	if capture.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 for start failure", capture.ExitCode)
	}
}

func TestMockRunnerKeyedLookup(t *testing.T) {
	m := NewMockRunner()
	m.SetCommand("tool -a file.cpp", Capture{Stdout: "specific"})
	m.SetCommand("tool", Capture{Stdout: "fallback"})

	if got := m.Run(context.Background(), "tool", "-a", "file.cpp"); got.Stdout != "specific" {
		t.Errorf("exact key should win, got %q", got.Stdout)
	}
	if got := m.Run(context.Background(), "tool", "-b"); got.Stdout != "fallback" {
		t.Errorf("bare name should be the fallback, got %q", got.Stdout)
	}
	if got := m.Run(context.Background(), "other"); got.StartErr == nil {
		t.Error("unconfigured command should fail to start")
	}

	calls := m.Calls()
	if len(calls) != 3 || calls[0] != "tool -a file.cpp" {
		t.Errorf("Calls() = %v", calls)
	}
}
