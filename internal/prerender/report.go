package prerender

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/litho/internal/metrics"
	"git.home.luguber.info/inful/litho/internal/version"
)

// Outcome is the typed enumeration of final run result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// RunReport captures high-level metrics about one prerender run.
type RunReport struct {
	SchemaVersion int
	RunID         string
	Start         time.Time
	End           time.Time
	Outcome       Outcome
	Errors        []error // fatal errors causing run abortion (at most one today)
	Warnings      []error // non-fatal issues (missing coverage, broken links, deprecations)

	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount

	Pages        int // inventory size
	Contexts     int // URL contexts accumulated by hooks and discovery
	Rendered     int // documents produced (including the 404 fallback)
	Excluded     int // pages opted out via doNotPrerender
	FilesWritten int // files persisted to storage or handed to the sink

	Partial           bool
	SourceFingerprint string
	LithoVersion      string
}

// NewRunReport constructs a report for an inventory of the given size.
func NewRunReport(pages int) *RunReport {
	return &RunReport{
		SchemaVersion:   1,
		RunID:           uuid.NewString(),
		Pages:           pages,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
		LithoVersion:    version.Version,
	}
}

// Finish sets the end time of the report.
func (r *RunReport) Finish() { r.End = time.Now() }

// Duration returns the wall-clock time of the run so far.
func (r *RunReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// RecordStageResult updates report counters and emits metrics (if recorder non-nil).
func (r *RunReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if r.StageCounts == nil {
		r.StageCounts = make(map[StageName]StageCount)
	}
	sc := r.StageCounts[stage]
	switch res {
	case StageResultSuccess:
		sc.Success++
	case StageResultWarning:
		sc.Warning++
	case StageResultFatal:
		sc.Fatal++
	case StageResultCanceled:
		sc.Canceled++
	}
	r.StageCounts[stage] = sc
	if recorder != nil {
		recorder.IncStageResult(string(stage), metrics.ResultLabel(res))
	}
}

// AddWarning appends a deduplicated warning produced during a stage fan-out.
func (r *RunReport) AddWarning(err error) { r.Warnings = append(r.Warnings, err) }

// DeriveOutcome sets the Outcome field based on recorded errors and warnings.
func (r *RunReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("pages=%d contexts=%d rendered=%d excluded=%d files=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Pages, r.Contexts, r.Rendered, r.Excluded, r.FilesWritten,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), string(r.Outcome))
}

// Persist writes the report atomically into the provided directory.
func (r *RunReport) Persist(dir string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	jb, err := json.MarshalIndent(r.Sanitized(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(dir, "litho-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	summaryPath := filepath.Join(dir, "litho-report.txt")
	tmpTxt := summaryPath + ".tmp"
	if err := os.WriteFile(tmpTxt, []byte(r.Summary()+"\n"), 0o600); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}

// Sanitized returns a copy with error fields converted to strings for JSON
// friendliness.
func (r *RunReport) Sanitized() *RunReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	if r.StageDurations == nil {
		r.StageDurations = map[string]time.Duration{}
	}

	s := &RunReportSerializable{
		SchemaVersion:     r.SchemaVersion,
		RunID:             r.RunID,
		Start:             r.Start,
		End:               r.End,
		Outcome:           string(r.Outcome),
		Errors:            make([]string, len(r.Errors)),
		Warnings:          make([]string, len(r.Warnings)),
		StageDurations:    r.StageDurations,
		StageErrorKinds:   sek,
		StageCounts:       stageCounts,
		Pages:             r.Pages,
		Contexts:          r.Contexts,
		Rendered:          r.Rendered,
		Excluded:          r.Excluded,
		FilesWritten:      r.FilesWritten,
		Partial:           r.Partial,
		SourceFingerprint: r.SourceFingerprint,
		LithoVersion:      r.LithoVersion,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// RunReportSerializable mirrors RunReport but with string errors for JSON output.
type RunReportSerializable struct {
	SchemaVersion     int                      `json:"schema_version"`
	RunID             string                   `json:"run_id"`
	Start             time.Time                `json:"start"`
	End               time.Time                `json:"end"`
	Outcome           string                   `json:"outcome"`
	Errors            []string                 `json:"errors"`
	Warnings          []string                 `json:"warnings"`
	StageDurations    map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds   map[string]string        `json:"stage_error_kinds"`
	StageCounts       map[string]StageCount    `json:"stage_counts"`
	Pages             int                      `json:"pages"`
	Contexts          int                      `json:"contexts"`
	Rendered          int                      `json:"rendered"`
	Excluded          int                      `json:"excluded"`
	FilesWritten      int                      `json:"files_written"`
	Partial           bool                     `json:"partial,omitempty"`
	SourceFingerprint string                   `json:"source_fingerprint,omitempty"`
	LithoVersion      string                   `json:"litho_version,omitempty"`
}
