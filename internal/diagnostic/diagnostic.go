// Package diagnostic classifies raw tool output into structured diagnostics.
package diagnostic

// Severity represents the severity of a diagnostic
type Severity string

const (
	// SeverityError for compiler/linter errors
	SeverityError Severity = "error"
	// SeverityWarning for compiler/linter warnings
	SeverityWarning Severity = "warning"
	// SeverityInfo for notes and unrecognized output lines
	SeverityInfo Severity = "info"
	// SeverityConfig for toolchain misconfiguration, distinct from code diagnostics
	SeverityConfig Severity = "configuration-error"
)

// Origin tags every diagnostic this engine produces, so merged output streams
// stay attributable to their source.
const Origin = "relint"

// Fixed signature lines the runner emits when a tool executable cannot be
// started. The classifier matches on containment, so the signatures also fire
// when a shell wraps them in its own error text.
const (
	// SignatureCompilerMissing marks a compiler executable absent from PATH.
	SignatureCompilerMissing = "relint: compiler executable not found in PATH"
	// SignatureLinterMissing marks a linter executable the system does not recognize.
	SignatureLinterMissing = "relint: linter executable not recognized"
)

// RemediationText is the canned message surfaced for either signature.
const RemediationText = "toolchain not found: install LLVM/Clang, make sure " +
	"clang++ and clang-tidy are on PATH (or set compiler.path and linter.path " +
	"in .relint/config.yaml), then run 'relint doctor' to verify the setup"

// Diagnostic is one structured finding extracted from tool output. Immutable
// once produced.
type Diagnostic struct {
	Severity Severity
	File     string // empty for configuration errors
	Line     int
	Column   int
	Message  string
	Origin   string
}
