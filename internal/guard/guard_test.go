package guard

import (
	"fmt"
	"reflect"
	"testing"

	relinterr "relint/internal/errors"
	"relint/internal/host"
)

func TestReleaseReversesSuspendOrder(t *testing.T) {
	rec := host.NewRecording()

	parent, err := Acquire(rec, "a.cpp")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"b.cpp", "c.cpp", "d.cpp"} {
		if _, err := parent.AcquireChild(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := parent.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	want := []string{
		"suspend a.cpp", "suspend b.cpp", "suspend c.cpp", "suspend d.cpp",
		"resume d.cpp", "resume c.cpp", "resume b.cpp", "resume a.cpp",
	}
	if got := rec.Ops(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
	if left := rec.Suspended(); len(left) != 0 {
		t.Errorf("paths left suspended: %v", left)
	}
}

func TestDoubleReleaseIsAnError(t *testing.T) {
	rec := host.NewRecording()
	g, err := Acquire(rec, "a.cpp")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}
	err = g.Release()
	if err == nil {
		t.Fatal("second Release() must not be a silent no-op")
	}
	if relinterr.CodeOf(err) != relinterr.GuardImbalance {
		t.Errorf("error code = %v, want GUARD_IMBALANCE", relinterr.CodeOf(err))
	}
	// The notifier must not have seen a second resume.
	if got := rec.Ops(); len(got) != 2 {
		t.Errorf("ops = %v, want exactly one suspend and one resume", got)
	}
}

func TestAcquireChildOnReleasedGuard(t *testing.T) {
	rec := host.NewRecording()
	g, _ := Acquire(rec, "a.cpp")
	_ = g.Release()
	if _, err := g.AcquireChild("b.cpp"); relinterr.CodeOf(err) != relinterr.GuardImbalance {
		t.Errorf("expected GUARD_IMBALANCE, got %v", err)
	}
}

func TestReleaseSkipsIndividuallyReleasedChild(t *testing.T) {
	rec := host.NewRecording()
	parent, _ := Acquire(rec, "a.cpp")
	child, _ := parent.AcquireChild("b.cpp")
	if err := child.Release(); err != nil {
		t.Fatal(err)
	}
	if err := parent.Release(); err != nil {
		t.Fatalf("parent Release() error = %v", err)
	}

	want := []string{"suspend a.cpp", "suspend b.cpp", "resume b.cpp", "resume a.cpp"}
	if got := rec.Ops(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v (each resume exactly once)", got, want)
	}
}

func TestWithReleasesOnSuccess(t *testing.T) {
	rec := host.NewRecording()
	paths := []string{"a.cpp", "b.cpp", "c.cpp"}

	var ranInside bool
	err := With(rec, paths, func() error {
		ranInside = true
		if len(rec.Suspended()) != 3 {
			t.Errorf("all paths should be suspended inside the block, got %v", rec.Suspended())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
	if !ranInside {
		t.Fatal("protected block did not run")
	}

	want := []string{
		"suspend a.cpp", "suspend b.cpp", "suspend c.cpp",
		"resume c.cpp", "resume b.cpp", "resume a.cpp",
	}
	if got := rec.Ops(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestWithReleasesOnError(t *testing.T) {
	rec := host.NewRecording()
	boom := fmt.Errorf("fix batch failed halfway")

	err := With(rec, []string{"a.cpp", "b.cpp"}, func() error {
		return boom
	})
	if err == nil || err.Error() != boom.Error() {
		t.Errorf("With() should surface the block's error, got %v", err)
	}
	if left := rec.Suspended(); len(left) != 0 {
		t.Errorf("paths left suspended after error: %v", left)
	}

	want := []string{"suspend a.cpp", "suspend b.cpp", "resume b.cpp", "resume a.cpp"}
	if got := rec.Ops(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestWithReleasesOnPanic(t *testing.T) {
	rec := host.NewRecording()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		_ = With(rec, []string{"a.cpp"}, func() error {
			panic("rewrite exploded")
		})
	}()

	if left := rec.Suspended(); len(left) != 0 {
		t.Errorf("paths left suspended after panic: %v", left)
	}
}

func TestWithSuspendFailureUnwindsPartialStack(t *testing.T) {
	rec := host.NewRecording()
	rec.FailSuspend = map[string]bool{"c.cpp": true}

	err := With(rec, []string{"a.cpp", "b.cpp", "c.cpp"}, func() error {
		t.Error("protected block must not run when acquisition fails")
		return nil
	})
	if err == nil {
		t.Fatal("expected acquisition error")
	}

	// a and b were suspended before c failed; both must be resumed.
	if left := rec.Suspended(); len(left) != 0 {
		t.Errorf("paths left suspended: %v", left)
	}
	want := []string{"suspend a.cpp", "suspend b.cpp", "resume b.cpp", "resume a.cpp"}
	if got := rec.Ops(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestWithResumeFailureStillUnwindsRest(t *testing.T) {
	rec := host.NewRecording()
	rec.FailResume = map[string]bool{"b.cpp": true}

	err := With(rec, []string{"a.cpp", "b.cpp", "c.cpp"}, func() error { return nil })
	if err == nil {
		t.Fatal("resume failure must surface")
	}

	// c and a still resumed despite b failing.
	want := []string{
		"suspend a.cpp", "suspend b.cpp", "suspend c.cpp",
		"resume c.cpp", "resume a.cpp",
	}
	if got := rec.Ops(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestWithNoPathsRunsUnguarded(t *testing.T) {
	rec := host.NewRecording()
	var ran bool
	if err := With(rec, nil, func() error { ran = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Error("block should run")
	}
	if len(rec.Ops()) != 0 {
		t.Errorf("no notifier calls expected, got %v", rec.Ops())
	}
}
