package runner

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"relint/internal/command"
	"relint/internal/diagnostic"
	"relint/internal/logging"
	"relint/internal/project"
)

// Result is the immutable outcome of one file's tool invocation. Exactly one
// Result is produced per started invocation, regardless of exit code.
type Result struct {
	File        project.FileUnit
	ExitCode    int
	Stdout      string
	Stderr      string
	Duration    time.Duration
	StartFailed bool
}

// Options controls a pool run.
type Options struct {
	// Parallel enables the bounded worker pool; otherwise invocations run
	// one at a time in selection order.
	Parallel bool
	// ContinueOnError keeps scheduling after the first non-zero exit.
	ContinueOnError bool
	// Workers bounds the parallel pool; zero means the logical processor count.
	Workers int
}

// Pool runs invocations against an ExecRunner and aggregates results.
type Pool struct {
	exec   ExecRunner
	logger *logging.Logger
}

// NewPool creates a pool over the given exec runner.
func NewPool(exec ExecRunner, logger *logging.Logger) *Pool {
	return &Pool{exec: exec, logger: logger.WithComponent("runner")}
}

// Run executes one process per invocation. With ContinueOnError unset, the
// first non-zero exit stops scheduling of not-yet-started work; invocations
// already running are allowed to finish and their results are still recorded.
// The stop is cooperative: no running process is ever force-killed. The
// returned slice contains one result per started invocation; files whose
// scheduling never started are simply absent.
func (p *Pool) Run(ctx context.Context, invs []command.Invocation, opts Options) []Result {
	if len(invs) == 0 {
		return nil
	}

	collector := &resultCollector{}
	var stop atomic.Bool

	if !opts.Parallel {
		p.runSequential(ctx, invs, opts, collector, &stop)
		return collector.results()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(invs) {
		workers = len(invs)
	}

	p.logger.Debug("Starting worker pool", map[string]interface{}{
		"workers": workers,
		"files":   len(invs),
	})

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, inv := range invs {
		if stop.Load() {
			break
		}
		inv := inv
		g.Go(func() error {
			// The stop flag may have been raised while this worker waited
			// for a pool slot.
			if stop.Load() {
				return nil
			}
			res := p.runOne(ctx, inv)
			collector.add(res)
			if res.ExitCode != 0 && !opts.ContinueOnError {
				stop.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	return collector.results()
}

func (p *Pool) runSequential(ctx context.Context, invs []command.Invocation, opts Options, collector *resultCollector, stop *atomic.Bool) {
	for _, inv := range invs {
		if stop.Load() {
			return
		}
		res := p.runOne(ctx, inv)
		collector.add(res)
		if res.ExitCode != 0 && !opts.ContinueOnError {
			stop.Store(true)
		}
	}
}

// runOne executes a single invocation, blocking until the process exits.
func (p *Pool) runOne(ctx context.Context, inv command.Invocation) Result {
	start := time.Now()
	capture := p.exec.Run(ctx, inv.Tool, inv.Args...)
	duration := time.Since(start)

	res := Result{
		File:        inv.File,
		ExitCode:    capture.ExitCode,
		Stdout:      capture.Stdout,
		Stderr:      capture.Stderr,
		Duration:    duration,
		StartFailed: capture.StartErr != nil,
	}

	// A process that never started produces the fixed signature line on its
	// stderr, so classification of toolchain problems stays in one place.
	if capture.StartErr != nil {
		sig := diagnostic.SignatureCompilerMissing
		if inv.Mode != command.ModeCompile {
			sig = diagnostic.SignatureLinterMissing
		}
		res.Stderr = sig + "\n" + capture.StartErr.Error()
	}

	p.logger.Debug("Process finished", map[string]interface{}{
		"file":     inv.File.Path,
		"exitCode": res.ExitCode,
		"duration": duration.String(),
	})
	return res
}

// resultCollector is the synchronized append-only result collection shared by
// pool workers. Reads happen only after all workers have joined.
type resultCollector struct {
	mu   sync.Mutex
	list []Result
}

func (c *resultCollector) add(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, r)
}

func (c *resultCollector) results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list
}
