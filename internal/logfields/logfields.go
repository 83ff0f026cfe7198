package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyURL        = "url"
	KeyPageID     = "page_id"
	KeyPath       = "path"
	KeyFile       = "file"
	KeySourceFile = "source_file"
	KeyOutcome    = "outcome"
	KeyCount      = "count"
	KeyParallel   = "parallel"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule_name"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func PageID(id string) slog.Attr      { return slog.String(KeyPageID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func SourceFile(f string) slog.Attr   { return slog.String(KeySourceFile, f) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Parallel(n int) slog.Attr        { return slog.Int(KeyParallel, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
