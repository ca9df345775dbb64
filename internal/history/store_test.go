package history

import (
	"strings"
	"testing"
	"time"

	"relint/internal/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), logging.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndListBatches(t *testing.T) {
	store := openTestStore(t)

	first := BatchRecord{
		ID: "batch-1", Mode: "lint", StartedAt: time.Now().Add(-time.Minute),
		Duration: 1500 * time.Millisecond, FilesTotal: 3, Succeeded: 2, Failed: 1,
	}
	second := BatchRecord{
		ID: "batch-2", Mode: "lint-fix", StartedAt: time.Now(),
		Duration: 700 * time.Millisecond, FilesTotal: 2, Succeeded: 2,
	}
	if err := store.SaveBatch(first, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveBatch(second, nil); err != nil {
		t.Fatal(err)
	}

	batches, err := store.ListBatches(10)
	if err != nil {
		t.Fatalf("ListBatches() error = %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if batches[0].ID != "batch-2" {
		t.Errorf("batches should come newest first, got %s", batches[0].ID)
	}
	if batches[1].Failed != 1 || batches[1].Mode != "lint" {
		t.Errorf("batch fields lost: %+v", batches[1])
	}
}

func TestResultsRoundTripCompressed(t *testing.T) {
	store := openTestStore(t)

	output := strings.Repeat("src/engine.cpp:10:5: warning: something repetitive\n", 200)
	batch := BatchRecord{ID: "b", Mode: "compile", StartedAt: time.Now(), FilesTotal: 1, Succeeded: 1}
	results := []ResultRecord{
		{Path: "src/engine.cpp", ExitCode: 0, Duration: 90 * time.Millisecond, Output: output},
		{Path: "src/util.cpp", ExitCode: 1, Duration: 40 * time.Millisecond, Output: "util.cpp:1:1: error: bad\n"},
	}
	if err := store.SaveBatch(batch, results); err != nil {
		t.Fatal(err)
	}

	got, err := store.Results("b")
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Output != output {
		t.Error("compressed output did not round-trip")
	}
	if got[1].ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", got[1].ExitCode)
	}
}

func TestListBatchesDefaultLimit(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.ListBatches(0); err != nil {
		t.Errorf("zero limit should fall back to a default: %v", err)
	}
}

func TestReset(t *testing.T) {
	store := openTestStore(t)
	batch := BatchRecord{ID: "b", Mode: "lint", StartedAt: time.Now()}
	if err := store.SaveBatch(batch, []ResultRecord{{Path: "a.cpp"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Reset(); err != nil {
		t.Fatal(err)
	}
	batches, err := store.ListBatches(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 0 {
		t.Errorf("expected empty history after reset, got %d", len(batches))
	}
	// Cascade must have removed the results too.
	results, err := store.Results("b")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results should cascade on delete, got %d", len(results))
	}
}
