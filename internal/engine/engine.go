// Package engine orchestrates a run: select projects and files, build per-file
// invocations, execute them, classify output, and — for fix-apply batches —
// suspend host notifications around the rewrite.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"relint/internal/command"
	"relint/internal/diagnostic"
	relinterr "relint/internal/errors"
	"relint/internal/guard"
	"relint/internal/history"
	"relint/internal/logging"
	"relint/internal/project"
	"relint/internal/runner"
	"relint/internal/watcher"
)

// Request describes one run over an already-resolved project universe.
type Request struct {
	Universe []project.ProjectRef
	Filter   project.Filter

	Flags        command.FlagSet
	Tools        command.Toolchain
	LintFlags    []string
	LintFixFlags []string

	Parallel        bool
	ContinueOnError bool

	// WatchRoot, when set, enables external-edit detection during a
	// fix-apply batch. Ignored in other modes.
	WatchRoot string
}

// Summary is the complete outcome of one batch. The caller gets counts, never
// a single pass/fail boolean.
type Summary struct {
	ID        string
	Mode      command.Mode
	StartedAt time.Time
	Duration  time.Duration

	FilesTotal   int
	Succeeded    int
	Failed       int
	ConfigErrors int
	// Incomplete counts files whose scheduling never started because the
	// run stopped on a failure. For an aborted fix-apply batch, rewrites
	// already applied are kept; the remainder is incomplete, not failed.
	Incomplete int

	Results     []runner.Result
	Diagnostics []diagnostic.Diagnostic
	// ExternalEdits lists files the watcher saw change underneath the run.
	ExternalEdits []string
}

// Engine wires the pipeline together. Notifier and store are optional: without
// a notifier fix batches run unguarded (no host attached), without a store
// nothing is persisted.
type Engine struct {
	logger   *logging.Logger
	exec     runner.ExecRunner
	notifier guard.Notifier
	store    *history.Store
}

// New creates an engine over the given exec runner.
func New(exec runner.ExecRunner, logger *logging.Logger) *Engine {
	return &Engine{
		logger: logger.WithComponent("engine"),
		exec:   exec,
	}
}

// WithNotifier attaches the host notifier used to guard fix-apply batches.
func (e *Engine) WithNotifier(n guard.Notifier) *Engine {
	e.notifier = n
	return e
}

// WithStore attaches the run-history store.
func (e *Engine) WithStore(s *history.Store) *Engine {
	e.store = s
	return e
}

// Run executes one batch and returns its summary. Per-file failures are data
// in the summary; the returned error covers engine-level problems only
// (invalid patterns, guard imbalance, nothing selected).
func (e *Engine) Run(ctx context.Context, req Request) (*Summary, error) {
	mode := command.ResolveMode(len(req.LintFlags) > 0, len(req.LintFixFlags) > 0)

	selector, err := project.NewSelector(req.Filter)
	if err != nil {
		return nil, err
	}
	selected := selector.Select(req.Universe)
	files := project.Flatten(selected)
	if len(files) == 0 {
		return nil, relinterr.New(relinterr.NoFilesSelected,
			"include/ignore filters matched no files")
	}

	tools := req.Tools
	if tools.Compiler == "" && tools.Linter == "" {
		tools = command.DefaultToolchain()
	}
	builder := &command.Builder{
		Flags:        req.Flags,
		Tools:        tools,
		LintFlags:    req.LintFlags,
		LintFixFlags: req.LintFixFlags,
	}
	invocations := builder.BuildAll(files, mode)

	summary := &Summary{
		ID:         uuid.NewString(),
		Mode:       mode,
		StartedAt:  time.Now(),
		FilesTotal: len(files),
	}

	e.logger.Info("Batch started", map[string]interface{}{
		"batchId":  summary.ID,
		"mode":     mode.String(),
		"files":    len(files),
		"projects": len(selected),
		"parallel": req.Parallel,
	})

	pool := runner.NewPool(e.exec, e.logger)
	opts := runner.Options{Parallel: req.Parallel, ContinueOnError: req.ContinueOnError}

	if mode == command.ModeLintFix {
		err = e.runFixBatch(ctx, req, files, invocations, pool, opts, summary)
	} else {
		summary.Results = pool.Run(ctx, invocations, opts)
	}
	if err != nil {
		return nil, err
	}

	summary.Duration = time.Since(summary.StartedAt)
	e.classify(summary)
	e.persist(summary)

	e.logger.Info("Batch finished", map[string]interface{}{
		"batchId":      summary.ID,
		"succeeded":    summary.Succeeded,
		"failed":       summary.Failed,
		"configErrors": summary.ConfigErrors,
		"incomplete":   summary.Incomplete,
		"duration":     summary.Duration.String(),
	})
	return summary, nil
}

// runFixBatch wraps the tool run in the notification guard and, optionally,
// the external-edit watcher. Guards are acquired only once the batch is about
// to rewrite files, and released on every exit path.
func (e *Engine) runFixBatch(ctx context.Context, req Request, files []project.FileUnit,
	invocations []command.Invocation, pool *runner.Pool, opts runner.Options, summary *Summary) error {

	var (
		editsMu sync.Mutex
		edits   []string
	)

	var w *watcher.Watcher
	if req.WatchRoot != "" {
		w = watcher.New(watcher.Config{
			Root:      req.WatchRoot,
			Extension: req.Filter.Extension,
		}, e.logger, func(ev watcher.Event) {
			editsMu.Lock()
			edits = append(edits, ev.Path)
			editsMu.Unlock()
		})
		if err := w.Start(); err != nil {
			// External-edit detection is advisory; the batch still runs.
			e.logger.Warn("Watcher unavailable for fix batch", map[string]interface{}{
				"error": err.Error(),
			})
			w = nil
		}
	}

	run := func() error {
		summary.Results = pool.Run(ctx, invocations, opts)
		return nil
	}

	var err error
	if e.notifier != nil {
		paths := make([]string, 0, len(files))
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		err = guard.With(e.notifier, paths, run)
	} else {
		err = run()
	}

	if w != nil {
		w.Stop()
		editsMu.Lock()
		summary.ExternalEdits = append([]string(nil), edits...)
		editsMu.Unlock()
		for _, path := range summary.ExternalEdits {
			e.logger.Warn("File changed externally during fix batch", map[string]interface{}{
				"path": path,
			})
		}
	}
	return err
}

// classify turns every result's combined output into diagnostics and derives
// the summary counts.
func (e *Engine) classify(summary *Summary) {
	for _, res := range summary.Results {
		c := diagnostic.Classify(combinedOutput(res))
		summary.Diagnostics = append(summary.Diagnostics, c.Diagnostics...)

		switch {
		case c.ConfigFailed:
			summary.ConfigErrors++
		case res.ExitCode == 0:
			summary.Succeeded++
		default:
			summary.Failed++
		}
	}
	summary.Incomplete = summary.FilesTotal - len(summary.Results)
}

func (e *Engine) persist(summary *Summary) {
	if e.store == nil {
		return
	}

	batch := history.BatchRecord{
		ID:           summary.ID,
		Mode:         summary.Mode.String(),
		StartedAt:    summary.StartedAt,
		Duration:     summary.Duration,
		FilesTotal:   summary.FilesTotal,
		Succeeded:    summary.Succeeded,
		Failed:       summary.Failed,
		ConfigErrors: summary.ConfigErrors,
		Incomplete:   summary.Incomplete,
	}
	results := make([]history.ResultRecord, 0, len(summary.Results))
	for _, res := range summary.Results {
		results = append(results, history.ResultRecord{
			Path:     res.File.Path,
			ExitCode: res.ExitCode,
			Duration: res.Duration,
			Output:   combinedOutput(res),
		})
	}

	if err := e.store.SaveBatch(batch, results); err != nil {
		// History is best-effort; a broken store must not fail the batch.
		e.logger.Warn("Failed to persist batch", map[string]interface{}{
			"batchId": summary.ID,
			"error":   err.Error(),
		})
	}
}

func combinedOutput(res runner.Result) string {
	switch {
	case res.Stdout == "":
		return res.Stderr
	case res.Stderr == "":
		return res.Stdout
	default:
		return res.Stdout + "\n" + res.Stderr
	}
}
