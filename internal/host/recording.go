package host

import (
	"fmt"
	"sync"
)

// Recording is a notifier that records suspend/resume ordering instead of
// talking to an editor. Used by tests and by dry runs without a host attached.
type Recording struct {
	mu        sync.Mutex
	ops       []string
	suspended map[string]bool

	// FailSuspend and FailResume make the named path's calls fail, for
	// exercising unwind behavior under injected errors.
	FailSuspend map[string]bool
	FailResume  map[string]bool
}

// NewRecording creates an empty recording notifier.
func NewRecording() *Recording {
	return &Recording{suspended: make(map[string]bool)}
}

// Suspend records the call.
func (r *Recording) Suspend(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSuspend[path] {
		return fmt.Errorf("injected suspend failure for %s", path)
	}
	r.ops = append(r.ops, "suspend "+path)
	r.suspended[path] = true
	return nil
}

// Resume records the call.
func (r *Recording) Resume(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailResume[path] {
		return fmt.Errorf("injected resume failure for %s", path)
	}
	r.ops = append(r.ops, "resume "+path)
	delete(r.suspended, path)
	return nil
}

// Ops returns the recorded operations in call order.
func (r *Recording) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

// Suspended returns the paths currently suspended.
func (r *Recording) Suspended() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for p := range r.suspended {
		paths = append(paths, p)
	}
	return paths
}
