package errors

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter converts errors to CLI exit codes and user-facing messages.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return a.exitCodeFromClassified(classified)
	}
	return 1
}

func (a *CLIErrorAdapter) exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryConfig, CategoryValidation, CategoryNotFound:
		return 2
	case CategoryNormalize, CategoryStructure, CategoryManifest, CategoryEntryPoint, CategoryAssembly:
		return 3
	case CategorySubmission:
		return 4
	case CategoryNetwork:
		return 5
	case CategoryStorage, CategoryRuntime, CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for CLI display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return a.formatVerbose(classified)
	}
	return a.formatUserFriendly(classified)
}

func (a *CLIErrorAdapter) formatUserFriendly(err *ClassifiedError) string {
	switch err.Category() {
	case CategoryConfig:
		return "Configuration error: " + err.Message()
	case CategoryValidation:
		return "Invalid input: " + err.Message()
	case CategoryNotFound:
		return "Not found: " + err.Message()
	case CategoryStructure:
		return "Could not repair code structure: " + err.Message()
	case CategoryManifest:
		return "Could not resolve imports: " + err.Message()
	case CategoryEntryPoint:
		return "Could not determine entry component: " + err.Message()
	case CategorySubmission:
		return "Sandbox service rejected the project: " + err.Message()
	case CategoryNetwork:
		return "Network error: " + err.Message()
	default:
		return "Error: " + err.Message()
	}
}

func (a *CLIErrorAdapter) formatVerbose(err *ClassifiedError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error [%s:%s]: %s", err.Category(), err.Severity(), err.Message())
	if ctx := err.Context(); len(ctx) > 0 {
		b.WriteString("\nContext:")
		for k, v := range ctx {
			fmt.Fprintf(&b, "\n  %s: %v", k, v)
		}
	}
	if cause := err.Cause(); cause != nil {
		fmt.Fprintf(&b, "\nCaused by: %v", cause)
	}
	return b.String()
}

// HandleError processes an error and exits with the appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	exitCode := a.ExitCodeFor(err)
	if classified, ok := AsClassified(err); ok {
		a.logger.Error("command failed",
			slog.String("category", string(classified.Category())),
			slog.String("severity", string(classified.Severity())),
			slog.Int("exit_code", exitCode),
			slog.String("error", err.Error()))
	} else {
		a.logger.Error("command failed", slog.Int("exit_code", exitCode), slog.String("error", err.Error()))
	}
	fmt.Fprintln(os.Stderr, a.FormatError(err))
	os.Exit(exitCode)
}
