package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"relint/internal/command"
	"relint/internal/config"
	"relint/internal/diagnostic"
	"relint/internal/engine"
	"relint/internal/history"
	"relint/internal/host"
	"relint/internal/logging"
	"relint/internal/project"
	"relint/internal/runner"
)

var (
	runProjects        []string
	runIgnoreProjects  []string
	runFiles           []string
	runIgnoreFiles     []string
	runLiteral         bool
	runParallel        bool
	runContinueOnError bool
	runTidy            bool
	runFix             bool
	runTimeout         time.Duration
	runNoGuard         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the compiler or linter over the selected files",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runProjects, "project", nil,
		"Project include filter (repeatable; pattern, or exact name with --literal)")
	runCmd.Flags().StringArrayVar(&runIgnoreProjects, "ignore-project", nil,
		"Project ignore filter (repeatable)")
	runCmd.Flags().StringArrayVar(&runFiles, "file", nil,
		"File name include filter within selected projects (repeatable)")
	runCmd.Flags().StringArrayVar(&runIgnoreFiles, "ignore-file", nil,
		"File name ignore filter (repeatable)")
	runCmd.Flags().BoolVar(&runLiteral, "literal", false,
		"Exact-string matching instead of pattern search")
	runCmd.Flags().BoolVar(&runParallel, "parallel", false,
		"Run one process per logical processor instead of sequentially")
	runCmd.Flags().BoolVar(&runContinueOnError, "continue-on-error", false,
		"Keep scheduling files after the first failure")
	runCmd.Flags().BoolVar(&runTidy, "tidy", false,
		"Lint with the configured linter instead of compiling")
	runCmd.Flags().BoolVar(&runFix, "fix", false,
		"Lint and apply fixes in place (implies --tidy)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0,
		"Per-process timeout (0 disables)")
	runCmd.Flags().BoolVar(&runNoGuard, "no-guard", false,
		"Skip editor notification guarding even when an editor is attached")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	universe, err := project.LoadManifest(resolveManifest(cfg))
	if err != nil {
		return err
	}

	req := buildRequest(cfg, universe)

	e := engine.New(runner.NewRealRunner(runTimeout), logger)
	attachHost(e, cfg, logger)
	if store := openStore(cfg, logger); store != nil {
		defer func() { _ = store.Close() }()
		e.WithStore(store)
	}

	summary, err := e.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	printSummary(summary)
	if summary.Failed > 0 || summary.ConfigErrors > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed+summary.ConfigErrors, summary.FilesTotal)
	}
	return nil
}

// buildRequest merges config-file settings with run flags; flags win.
func buildRequest(cfg *config.Config, universe []project.ProjectRef) engine.Request {
	filter := project.Filter{
		ProjectInclude: firstNonEmpty(runProjects, cfg.Projects.Include),
		ProjectIgnore:  firstNonEmpty(runIgnoreProjects, cfg.Projects.Ignore),
		FileInclude:    firstNonEmpty(runFiles, cfg.Files.Include),
		FileIgnore:     firstNonEmpty(runIgnoreFiles, cfg.Files.Ignore),
		Extension:      cfg.Files.Extension,
		Literal:        runLiteral || cfg.LiteralMatch,
	}

	req := engine.Request{
		Universe: universe,
		Filter:   filter,
		Flags: command.FlagSet{
			Flags:       cfg.Compiler.Flags,
			IncludeDirs: cfg.Compiler.IncludeDirs,
		},
		Tools: command.Toolchain{
			Compiler: cfg.Compiler.Path,
			Linter:   cfg.Linter.Path,
		},
		Parallel:        runParallel || cfg.Parallel,
		ContinueOnError: runContinueOnError || cfg.ContinueOnError,
	}

	if runTidy || runFix {
		req.LintFlags = cfg.Linter.Flags
		if len(req.LintFlags) == 0 {
			req.LintFlags = []string{"-checks=clang-analyzer-*"}
		}
	}
	if runFix {
		req.LintFixFlags = cfg.Linter.FixFlags
		if len(req.LintFixFlags) == 0 {
			req.LintFixFlags = req.LintFlags
		}
		if cfg.Watcher.Enabled {
			root := cfg.Watcher.Root
			if root == "" {
				root = workspaceFlag
			}
			req.WatchRoot = root
		}
	}
	return req
}

func resolveManifest(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Manifest) {
		return cfg.Manifest
	}
	return filepath.Join(workspaceFlag, cfg.Manifest)
}

// attachHost connects to the hosting editor when one is reachable. Fix
// batches then guard its change notifications; without an editor the run
// proceeds unguarded.
func attachHost(e *engine.Engine, cfg *config.Config, logger *logging.Logger) {
	if runNoGuard {
		return
	}
	nv, err := host.DialNvim(cfg.Editor.Address, logger)
	if err != nil {
		logger.Debug("No editor attached", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	e.WithNotifier(nv)
}

func openStore(cfg *config.Config, logger *logging.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	dir := cfg.History.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspaceFlag, dir)
	}
	store, err := history.Open(dir, logger)
	if err != nil {
		logger.Warn("Run history unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return store
}

func printSummary(summary *engine.Summary) {
	for _, d := range summary.Diagnostics {
		printDiagnostic(d)
	}
	for _, path := range summary.ExternalEdits {
		fmt.Fprintf(os.Stderr, "[%s] warning: %s was edited externally during the fix batch\n",
			diagnostic.Origin, path)
	}
	fmt.Printf("[%s] %s: %d files, %d succeeded, %d failed, %d configuration errors, %d incomplete (%s)\n",
		diagnostic.Origin, summary.Mode, summary.FilesTotal, summary.Succeeded,
		summary.Failed, summary.ConfigErrors, summary.Incomplete, summary.Duration.Round(time.Millisecond))
}

// printDiagnostic writes one diagnostic line with the fixed origin tag, so
// merged output streams stay attributable.
func printDiagnostic(d diagnostic.Diagnostic) {
	switch {
	case d.Severity == diagnostic.SeverityConfig:
		fmt.Printf("[%s] configuration error: %s\n", d.Origin, d.Message)
	case d.File != "":
		fmt.Printf("[%s] %s:%d:%d: %s: %s\n", d.Origin, d.File, d.Line, d.Column, d.Severity, d.Message)
	default:
		fmt.Printf("[%s] %s: %s\n", d.Origin, d.Severity, d.Message)
	}
}

func firstNonEmpty(flag, conf []string) []string {
	if len(flag) > 0 {
		return flag
	}
	return conf
}
