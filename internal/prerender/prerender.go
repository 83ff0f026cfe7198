// Package prerender implements the static prerendering pipeline: a fixed
// sequence of stages that invoke page hooks, discover static routes, apply
// the global before-hook, route and render every accumulated URL, fall back
// to a static 404 document, write the output, and verify that the result
// covers the page inventory.
package prerender

import (
	"context"
	"log/slog"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/metrics"
	"git.home.luguber.info/inful/litho/internal/render"
	"git.home.luguber.info/inful/litho/internal/routing"
	"git.home.luguber.info/inful/litho/internal/site"
)

// Options configures one pipeline run. Inventory and Renderer are required;
// everything else has a usable zero value.
type Options struct {
	// Inventory is the complete set of known pages. Never mutated by the run.
	Inventory *site.Inventory
	// Renderer produces document bodies for routed contexts.
	Renderer render.Renderer
	// Resolver maps URLs to pages. Defaults to the inventory's route table.
	Resolver routing.Resolver
	// InitialContext is merged into the global context before any stage runs.
	InitialContext map[string]any
	// Parallel bounds concurrent units per fan-out phase; <= 0 means one per CPU.
	Parallel int
	// OutputRoot is the directory document files are written under.
	OutputRoot string
	// ReportDir receives the run report; empty disables report persistence.
	ReportDir string
	// Partial suppresses missing-coverage warnings.
	Partial bool
	// NoExtraDir writes url.html instead of url/index.html.
	NoExtraDir bool
	// BaseURL classifies absolute links as internal during link verification.
	BaseURL string
	// LinkCheck enables the link verification stage.
	LinkCheck bool
	// Sink, when set, receives output files instead of the filesystem.
	Sink DocumentSink
	// SourceFingerprint identifies the page sources this run rendered.
	SourceFingerprint string

	Logger   *slog.Logger
	Recorder metrics.Recorder
}

func (o *Options) validate() error {
	if o.Inventory == nil {
		return lerrors.NewUsageError("prerender requires a page inventory")
	}
	if o.Renderer == nil {
		return lerrors.NewUsageError("prerender requires a renderer")
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Recorder == nil {
		o.Recorder = metrics.NoopRecorder{}
	}
	if o.Resolver == nil {
		o.Resolver = routing.NewResolver(o.Inventory)
	}
}

// Run executes the full pipeline. The returned report is non-nil whenever the
// stages started, including failed and canceled runs.
func Run(ctx context.Context, opts Options) (*RunReport, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	report := NewRunReport(opts.Inventory.Len())
	report.Partial = opts.Partial
	report.SourceFingerprint = opts.SourceFingerprint
	warner := NewWarner(opts.Logger, report)
	st := newRunState(&opts, report, warner)

	pool := st.newPool()
	opts.Recorder.SetRenderConcurrency(pool.Parallel())
	opts.Logger.Info("prerender run starting",
		logfields.RunID(report.RunID),
		logfields.Count(opts.Inventory.Len()),
		logfields.Parallel(pool.Parallel()))

	stages := NewPipeline().
		Add(StageInvokeHooks, stageInvokeHooks).
		Add(StageStaticRoutes, stageStaticRoutes).
		Add(StageGlobalHook, stageGlobalHook).
		Add(StageRenderPages, stageRenderPages).
		Add(StageFallback404, stageFallback404).
		Add(StageWriteOutput, stageWriteOutput).
		AddIf(opts.LinkCheck, StageVerifyLinks, stageVerifyLinks).
		Add(StageVerifyCoverage, stageVerifyCoverage).
		Build()

	runErr := runStages(ctx, st, stages)

	report.Contexts = st.Store.Len()
	report.Rendered = st.renderedCount()
	report.Excluded = len(st.exclusionEntries())
	st.mu.Lock()
	report.FilesWritten = st.filesWritten
	st.mu.Unlock()
	report.Finish()
	report.DeriveOutcome()

	opts.Recorder.ObserveRunDuration(report.Duration())
	opts.Recorder.IncRunOutcome(string(report.Outcome))
	opts.Recorder.AddPagesRendered(report.Rendered)
	opts.Recorder.AddWarnings(len(report.Warnings))

	if opts.ReportDir != "" {
		if err := report.Persist(opts.ReportDir); err != nil {
			opts.Logger.Warn("failed to persist run report", logfields.Error(err))
		}
	}

	if runErr != nil {
		opts.Logger.Error("prerender run failed",
			logfields.RunID(report.RunID),
			logfields.Outcome(string(report.Outcome)),
			logfields.Error(runErr))
		return report, runErr
	}
	opts.Logger.Info("prerender run complete",
		logfields.RunID(report.RunID),
		logfields.Outcome(string(report.Outcome)),
		logfields.Count(report.Rendered),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, nil
}
