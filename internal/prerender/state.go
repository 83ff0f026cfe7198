package prerender

import (
	"context"
	"log/slog"
	"sync"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/metrics"
	"git.home.luguber.info/inful/litho/internal/routing"
	"git.home.luguber.info/inful/litho/internal/site"
	"git.home.luguber.info/inful/litho/internal/taskpool"
)

// RunState carries mutable state shared by the pipeline stages of one run.
// Stages execute sequentially; the mutex only guards fields that fan-out
// units append to concurrently within a single stage.
type RunState struct {
	Opts      *Options
	Inventory *site.Inventory
	Store     *site.ContextStore
	Global    map[string]any
	Resolver  routing.Resolver
	Writer    *Writer
	Report    *RunReport
	Recorder  metrics.Recorder
	Logger    *slog.Logger
	Warner    *Warner

	mu              sync.Mutex
	exclusions      []site.ExclusionEntry
	docs            []*site.RenderedDocument
	renderedPageIDs map[string]*site.RenderContext
	filesWritten    int
}

func newRunState(opts *Options, report *RunReport, warner *Warner) *RunState {
	return &RunState{
		Opts:            opts,
		Inventory:       opts.Inventory,
		Store:           site.NewContextStore(),
		Global:          site.CloneGlobal(opts.InitialContext),
		Resolver:        opts.Resolver,
		Writer:          NewWriter(opts.OutputRoot, opts.Sink, opts.Logger),
		Report:          report,
		Recorder:        opts.Recorder,
		Logger:          opts.Logger,
		Warner:          warner,
		renderedPageIDs: make(map[string]*site.RenderContext),
	}
}

// newPool returns a fresh bounded runner for one fan-out phase. Each phase
// gets its own pool so that a drained pool is never reused.
func (st *RunState) newPool() *taskpool.Pool {
	return taskpool.New(st.Opts.Parallel)
}

func (st *RunState) addExclusion(e site.ExclusionEntry) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.exclusions = append(st.exclusions, e)
}

func (st *RunState) exclusionEntries() []site.ExclusionEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]site.ExclusionEntry, len(st.exclusions))
	copy(out, st.exclusions)
	return out
}

func (st *RunState) excludedSet() map[string]site.ExclusionEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	set := make(map[string]site.ExclusionEntry, len(st.exclusions))
	for _, e := range st.exclusions {
		set[e.PageID] = e
	}
	return set
}

func (st *RunState) appendDocument(doc *site.RenderedDocument) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.docs = append(st.docs, doc)
}

func (st *RunState) documents() []*site.RenderedDocument {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*site.RenderedDocument, len(st.docs))
	copy(out, st.docs)
	return out
}

func (st *RunState) hasDocumentForURL(url string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, d := range st.docs {
		if d.URL == url {
			return true
		}
	}
	return false
}

func (st *RunState) recordRendered(pageID string, rc *site.RenderContext) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.renderedPageIDs[pageID] = rc
}

func (st *RunState) renderedContext(pageID string) (*site.RenderContext, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	rc, ok := st.renderedPageIDs[pageID]
	return rc, ok
}

func (st *RunState) renderedCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.docs)
}

func (st *RunState) addFilesWritten(n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.filesWritten += n
}

// loadPageData runs the page's server-data loader against the context and
// marks the context loaded so later stages do not run the loader twice.
func (st *RunState) loadPageData(ctx context.Context, page *site.Page, rc *site.RenderContext) error {
	exports, err := page.Load(ctx)
	if err != nil {
		return lerrors.NewHookFault(err, page.FilePath())
	}
	if exports.Data != nil {
		fields, err := exports.Data(ctx, rc)
		if err != nil {
			return lerrors.NewHookFault(err, page.FilePath())
		}
		rc.MergeData(fields)
	}
	rc.MarkDataLoaded()
	return nil
}
