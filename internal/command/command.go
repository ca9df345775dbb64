// Package command builds per-file tool invocations from the run's flag
// configuration.
package command

import (
	"relint/internal/project"
)

// Mode selects which tool a run invokes and whether fixes are applied.
type Mode int

const (
	// ModeCompile invokes the compiler per file.
	ModeCompile Mode = iota
	// ModeLint invokes the linter per file without touching sources.
	ModeLint
	// ModeLintFix invokes the linter with in-place fix application.
	ModeLintFix
)

// String returns a string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeCompile:
		return "compile"
	case ModeLint:
		return "lint"
	case ModeLintFix:
		return "lint-fix"
	default:
		return "unknown"
	}
}

// ResolveMode picks the run mode from which flag sets are configured.
// Lint-fix always wins when both lint and lint-fix flags are present.
func ResolveMode(lintConfigured, lintFixConfigured bool) Mode {
	switch {
	case lintFixConfigured:
		return ModeLintFix
	case lintConfigured:
		return ModeLint
	default:
		return ModeCompile
	}
}

// FlagSet is the ordered compile flag configuration, immutable per run.
type FlagSet struct {
	Flags       []string
	IncludeDirs []string
}

// Toolchain names the external executables a run invokes.
type Toolchain struct {
	Compiler string
	Linter   string
}

// DefaultToolchain returns the stock clang toolchain.
func DefaultToolchain() Toolchain {
	return Toolchain{Compiler: "clang++", Linter: "clang-tidy"}
}

// FixFlag is the apply-changes token appended in lint-fix mode.
const FixFlag = "-fix"

// Invocation is one ready-to-run tool command for a single file.
type Invocation struct {
	File project.FileUnit
	Mode Mode
	Tool string
	Args []string
}

// Builder turns files into invocations under one run's configuration.
type Builder struct {
	Flags        FlagSet
	Tools        Toolchain
	LintFlags    []string
	LintFixFlags []string
}

// Build produces the ordered argument vector for one file: base flags, one -I
// flag per include directory, the mode's extra flags, the file path, and the
// apply-changes flag for lint-fix. Every token stays an opaque string — flag
// values may contain shell-significant characters, so tokens are passed
// individually and never joined into one command string.
func (b *Builder) Build(f project.FileUnit, mode Mode) Invocation {
	args := make([]string, 0, len(b.Flags.Flags)+len(b.Flags.IncludeDirs)+len(b.LintFixFlags)+2)
	args = append(args, b.Flags.Flags...)
	for _, dir := range b.Flags.IncludeDirs {
		args = append(args, "-I"+dir)
	}

	tool := b.Tools.Compiler
	switch mode {
	case ModeLint:
		tool = b.Tools.Linter
		args = append(args, b.LintFlags...)
	case ModeLintFix:
		tool = b.Tools.Linter
		// Lint-fix precedence: its flag set replaces the plain lint flags.
		args = append(args, b.LintFixFlags...)
	}

	args = append(args, f.Path)
	if mode == ModeLintFix {
		args = append(args, FixFlag)
	}

	return Invocation{File: f, Mode: mode, Tool: tool, Args: args}
}

// BuildAll builds one invocation per file, preserving file order.
func (b *Builder) BuildAll(files []project.FileUnit, mode Mode) []Invocation {
	invs := make([]Invocation, 0, len(files))
	for _, f := range files {
		invs = append(invs, b.Build(f, mode))
	}
	return invs
}
