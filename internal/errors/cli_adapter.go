package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the litho command line.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var le *LithoError
	if errors.As(err, &le) {
		return a.exitCodeFromLitho(le)
	}

	return 1
}

// exitCodeFromLitho maps LithoError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromLitho(err *LithoError) int {
	switch err.Category {
	case CategoryUsage:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryHook, CategoryRouting, CategoryRender:
		return 11 // Pipeline error
	case CategoryOutput, CategoryHistory:
		return 8 // Storage error
	case CategoryDaemon:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var le *LithoError
	if errors.As(err, &le) {
		return a.formatLitho(le)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatLitho formats a LithoError for display.
func (a *CLIErrorAdapter) formatLitho(err *LithoError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryUsage:
		if err.Cause != nil {
			return fmt.Sprintf("%s: %v", err.Message, err.Cause)
		}
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	var le *LithoError
	if errors.As(err, &le) {
		return le.Category == CategoryInternal || le.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	var le *LithoError
	if errors.As(err, &le) {
		level := a.slogLevelFromSeverity(le.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(le.Category)),
		}
		for k, v := range le.Context {
			attrs = append(attrs, slog.Any(k, v))
		}

		a.logger.LogAttrs(nil, level, le.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts LithoError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
