package prerender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/litho/internal/logfields"
)

// Stage is a discrete unit of work in a prerender run.
type Stage func(ctx context.Context, st *RunState) error

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageInvokeHooks    StageName = "invoke_hooks"
	StageStaticRoutes   StageName = "static_routes"
	StageGlobalHook     StageName = "global_hook"
	StageRenderPages    StageName = "render_pages"
	StageFallback404    StageName = "fallback_404"
	StageWriteOutput    StageName = "write_output"
	StageVerifyLinks    StageName = "verify_links"
	StageVerifyCoverage StageName = "verify_coverage"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 8)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a defensive copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled error. Warning stage errors are recorded and the
// next stage runs. No stage starts before the previous one has fully drained
// its fan-out, so stages never overlap.
func runStages(ctx context.Context, st *RunState, stages []StageDef) error {
	for _, sd := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(sd.Name, ctx.Err())
			st.Report.Errors = append(st.Report.Errors, se)
			st.Report.StageErrorKinds[sd.Name] = se.Kind
			st.Report.RecordStageResult(sd.Name, StageResultCanceled, st.Recorder)
			return se
		default:
		}

		t0 := time.Now()
		err := sd.Fn(ctx, st)
		dur := time.Since(t0)
		st.Report.StageDurations[string(sd.Name)] = dur
		st.Recorder.ObserveStageDuration(string(sd.Name), dur)

		if err == nil {
			st.Report.RecordStageResult(sd.Name, StageResultSuccess, st.Recorder)
			st.Logger.Debug("stage complete", logfields.Stage(string(sd.Name)), logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		se := classifyStageError(sd.Name, err)
		st.Report.StageErrorKinds[sd.Name] = se.Kind
		switch se.Kind {
		case StageErrorWarning:
			st.Report.Warnings = append(st.Report.Warnings, se)
			st.Report.RecordStageResult(sd.Name, StageResultWarning, st.Recorder)
			st.Logger.Warn("stage finished with warnings", logfields.Stage(string(sd.Name)), logfields.Error(se.Err))
			continue
		case StageErrorCanceled:
			st.Report.Errors = append(st.Report.Errors, se)
			st.Report.RecordStageResult(sd.Name, StageResultCanceled, st.Recorder)
			return se
		default:
			st.Report.Errors = append(st.Report.Errors, se)
			st.Report.RecordStageResult(sd.Name, StageResultFatal, st.Recorder)
			return se
		}
	}
	return nil
}

// classifyStageError normalizes any stage return into a StageError. Context
// cancellation surfaced through a fan-out unit becomes a canceled error;
// everything else unclassified is fatal.
func classifyStageError(stage StageName, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCanceledStageError(stage, err)
	}
	return NewFatalStageError(stage, err)
}
