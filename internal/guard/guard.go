// Package guard scopes the suspension of the host environment's external-file-
// change notifications around batched in-place rewrites.
//
// A guard is an explicit acquire/release token rather than anything tied to
// destructor timing: the batch driver acquires guards up front, runs the
// protected block, and releases on every exit path. Guard calls are not safe
// for concurrent use within one batch; the batch driver is single-threaded
// with respect to suspend/resume even when the tool run itself was parallel.
package guard

import (
	stderrors "errors"
	"fmt"

	relinterr "relint/internal/errors"
)

// Notifier suspends and resumes the host's change notifications for one path.
type Notifier interface {
	Suspend(path string) error
	Resume(path string) error
}

// Guard is a scoped suspension for one path. A parent guard may own child
// guards, one per additional path of the batch.
type Guard struct {
	notifier Notifier
	path     string
	children []*Guard
	released bool
}

// Acquire suspends notifications for path immediately and returns its guard.
func Acquire(n Notifier, path string) (*Guard, error) {
	if err := n.Suspend(path); err != nil {
		return nil, fmt.Errorf("suspend %s: %w", path, err)
	}
	return &Guard{notifier: n, path: path}, nil
}

// AcquireChild suspends notifications for another path and attaches its guard
// to g, so releasing g unwinds the whole batch.
func (g *Guard) AcquireChild(path string) (*Guard, error) {
	if g.released {
		return nil, relinterr.New(relinterr.GuardImbalance,
			"acquire on released guard for "+g.path)
	}
	child, err := Acquire(g.notifier, path)
	if err != nil {
		return nil, err
	}
	g.children = append(g.children, child)
	return child, nil
}

// Path returns the guarded path.
func (g *Guard) Path() string { return g.path }

// Released reports whether the guard has been released.
func (g *Guard) Released() bool { return g.released }

// Release resumes every owned child in exact reverse acquisition order, then
// resumes this guard's own path. Each guard is released exactly once; a second
// Release is a programming error and returns a GuardImbalance error rather
// than being absorbed silently. Resume failures do not short-circuit the
// unwind — every remaining token is still resumed, and the failures are
// joined into the returned error.
func (g *Guard) Release() error {
	if g.released {
		return relinterr.New(relinterr.GuardImbalance,
			"double release of guard for "+g.path)
	}
	g.released = true

	var errs []error
	for i := len(g.children) - 1; i >= 0; i-- {
		child := g.children[i]
		if child.released {
			// Child was released individually; the parent must not resume
			// it a second time.
			continue
		}
		if err := child.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := g.notifier.Resume(g.path); err != nil {
		errs = append(errs, fmt.Errorf("resume %s: %w", g.path, err))
	}
	return stderrors.Join(errs...)
}

// With suspends notifications for all paths (the first becomes the parent),
// runs fn, and releases the whole stack on every exit path — success, error
// return, or panic. Release errors are joined with fn's error. With no paths,
// fn runs unguarded.
func With(n Notifier, paths []string, fn func() error) (err error) {
	if len(paths) == 0 {
		return fn()
	}

	parent, err := Acquire(n, paths[0])
	if err != nil {
		return err
	}
	defer func() {
		if rerr := parent.Release(); rerr != nil {
			err = stderrors.Join(err, rerr)
		}
	}()

	for _, path := range paths[1:] {
		if _, cerr := parent.AcquireChild(path); cerr != nil {
			return cerr
		}
	}

	return fn()
}
