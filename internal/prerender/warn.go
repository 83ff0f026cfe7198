package prerender

import (
	"fmt"
	"log/slog"
	"sync"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/util/sets"
)

// Warner emits non-fatal warnings at most once per distinct message. It is
// safe for use from concurrent fan-out units.
type Warner struct {
	mu     sync.Mutex
	seen   sets.Set[string]
	logger *slog.Logger
	report *RunReport
}

// NewWarner creates a Warner that logs through logger and records each
// distinct warning on the report.
func NewWarner(logger *slog.Logger, report *RunReport) *Warner {
	return &Warner{
		seen:   sets.New[string](),
		logger: logger,
		report: report,
	}
}

// Warnf records a usage warning unless the same message was already emitted.
func (w *Warner) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen.Has(msg) {
		return
	}
	w.seen.Add(msg)
	w.logger.Warn(msg)
	if w.report != nil {
		w.report.AddWarning(lerrors.New(lerrors.CategoryUsage, lerrors.SeverityWarning, msg))
	}
}

// Count returns the number of distinct warnings emitted so far.
func (w *Warner) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seen.Len()
}
