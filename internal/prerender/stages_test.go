package prerender

import (
	"context"
	"errors"
	"testing"
	"time"

	"git.home.luguber.info/inful/litho/internal/site"
)

// fake stage functions for testing classification.
func failingFatalStage(_ context.Context, _ *RunState) error {
	return NewFatalStageError(StageName("fatal_stage"), errors.New("boom"))
}

func failingWarnStage(_ context.Context, _ *RunState) error {
	return NewWarnStageError(StageName("warn_stage"), errors.New("soft"))
}

func newTestRunState(t *testing.T) *RunState {
	t.Helper()
	opts := Options{Inventory: site.NewInventory(), Renderer: &stubRenderer{}, Logger: quietLogger()}
	opts.applyDefaults()
	report := NewRunReport(0)
	return newRunState(&opts, report, NewWarner(opts.Logger, report))
}

func TestRunStages_ErrorClassification(t *testing.T) {
	st := newTestRunState(t)
	stages := []StageDef{{StageName("warn_stage"), failingWarnStage}, {StageName("fatal_stage"), failingFatalStage}}

	err := runStages(context.Background(), st, stages)
	if err == nil {
		t.Fatalf("expected fatal error")
	}
	if len(st.Report.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(st.Report.Warnings))
	}
	if len(st.Report.Errors) != 1 {
		t.Fatalf("expected 1 fatal error, got %d", len(st.Report.Errors))
	}
	if st.Report.StageErrorKinds[StageName("warn_stage")] != StageErrorWarning {
		t.Fatalf("expected warning kind recorded")
	}
	if st.Report.StageErrorKinds[StageName("fatal_stage")] != StageErrorFatal {
		t.Fatalf("fatal_stage kind mismatch")
	}
	if st.Report.StageCounts[StageName("warn_stage")].Warning != 1 {
		t.Fatalf("expected warn stage count recorded")
	}
	if st.Report.StageCounts[StageName("fatal_stage")].Fatal != 1 {
		t.Fatalf("expected fatal stage count recorded")
	}
}

func TestRunStages_Canceled(t *testing.T) {
	st := newTestRunState(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runStages(ctx, st, []StageDef{{StageInvokeHooks, stageInvokeHooks}})
	if err == nil {
		t.Fatalf("expected canceled error")
	}
	if len(st.Report.Errors) != 1 {
		t.Fatalf("expected 1 canceled error recorded, got %d", len(st.Report.Errors))
	}
	if st.Report.StageErrorKinds[StageInvokeHooks] != StageErrorCanceled {
		t.Fatalf("expected canceled kind for invoke_hooks")
	}
}

func TestRunStages_TimingRecordedOnWarning(t *testing.T) {
	st := newTestRunState(t)
	stages := []StageDef{{StageName("warn_stage"), failingWarnStage}}
	if err := runStages(context.Background(), st, stages); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.Report.StageDurations["warn_stage"]; !ok {
		t.Fatalf("expected timing recorded for warn_stage")
	}
	if st.Report.StageDurations["warn_stage"] < 0 || st.Report.StageDurations["warn_stage"] > time.Second {
		t.Fatalf("unexpected duration range: %v", st.Report.StageDurations["warn_stage"])
	}
}

func TestClassifyStageError(t *testing.T) {
	se := classifyStageError(StageRenderPages, errors.New("boom"))
	if se.Kind != StageErrorFatal {
		t.Fatalf("unknown errors must classify fatal, got %s", se.Kind)
	}
	se = classifyStageError(StageRenderPages, context.Canceled)
	if se.Kind != StageErrorCanceled {
		t.Fatalf("context.Canceled must classify canceled, got %s", se.Kind)
	}
	wrapped := NewWarnStageError(StageVerifyLinks, errors.New("soft"))
	if got := classifyStageError(StageVerifyLinks, wrapped); got != wrapped {
		t.Fatalf("existing stage errors must pass through unchanged")
	}
}

func TestPipelineBuilder(t *testing.T) {
	noop := func(context.Context, *RunState) error { return nil }
	defs := NewPipeline().
		Add(StageInvokeHooks, noop).
		AddIf(false, StageVerifyLinks, noop).
		AddIf(true, StageVerifyCoverage, noop).
		Build()
	if len(defs) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(defs))
	}
	if defs[0].Name != StageInvokeHooks || defs[1].Name != StageVerifyCoverage {
		t.Fatalf("unexpected order: %v, %v", defs[0].Name, defs[1].Name)
	}
}

func TestStageError_ErrorString(t *testing.T) {
	se := NewFatalStageError(StageRenderPages, errors.New("boom"))
	want := "fatal stage render_pages: boom"
	if se.Error() != want {
		t.Fatalf("got %q want %q", se.Error(), want)
	}
	if !errors.Is(se, se.Err) {
		t.Fatalf("StageError must unwrap to its cause")
	}
}
