// Package errors defines stable error codes and remediation suggestions for
// relint failure modes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ToolchainMissing indicates the compiler or linter executable is not on PATH
	ToolchainMissing ErrorCode = "TOOLCHAIN_MISSING"
	// GuardImbalance indicates a guard release without a matching acquisition,
	// or a double release. A programming error, never absorbed silently.
	GuardImbalance ErrorCode = "GUARD_IMBALANCE"
	// InvalidPattern indicates an include/ignore expression failed to compile
	InvalidPattern ErrorCode = "INVALID_PATTERN"
	// WatcherFailed indicates the filesystem watcher could not be started
	WatcherFailed ErrorCode = "WATCHER_FAILED"
	// HostUnavailable indicates the editor RPC endpoint is not reachable
	HostUnavailable ErrorCode = "HOST_UNAVAILABLE"
	// HistoryUnavailable indicates the run-history database cannot be opened
	HistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// NoFilesSelected indicates the include/ignore filters matched nothing
	NoFilesSelected ErrorCode = "NO_FILES_SELECTED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	Tool        string        `json:"tool,omitempty"`
}

// Error represents a relint error with code, message, and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error with the fixes registered for the code.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Wrap creates a new Error wrapping an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	e := New(code, message)
	e.cause = cause
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the ErrorCode from err, or InternalError if err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ToolchainMissing: {
		{
			Type:        InstallTool,
			Tool:        "llvm",
			Description: "Install LLVM/Clang so clang++ and clang-tidy are available",
		},
		{
			Type:        RunCommand,
			Command:     "relint doctor",
			Safe:        true,
			Description: "Verify toolchain executables are resolvable",
		},
	},
	HostUnavailable: {
		{
			Type:        RunCommand,
			Command:     "echo $NVIM",
			Safe:        true,
			Description: "Check that the editor exposes its RPC socket",
		},
	},
	HistoryUnavailable: {
		{
			Type:        RunCommand,
			Command:     "relint history --reset",
			Description: "Recreate the run-history database",
		},
	},
	NoFilesSelected: {
		{
			Type:        RunCommand,
			Command:     "relint run --project '.*' ",
			Safe:        true,
			Description: "Loosen the project include filter",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
