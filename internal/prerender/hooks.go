package prerender

import (
	"context"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/site"
)

// stageInvokeHooks runs every hook-declaring page's prerender hook through
// the bounded runner. Pages flagged doNotPrerender join the exclusion set
// instead. A failing hook aborts the run once the fan-out has drained; the
// runner does not cancel in-flight siblings.
func stageInvokeHooks(ctx context.Context, st *RunState) error {
	pool := st.newPool()
	for _, page := range st.Inventory.Pages() {
		if page.Kind() == site.KindError || !page.DeclaresHooks() {
			continue
		}
		pool.Submit(ctx, func(ctx context.Context) error {
			return st.invokePageHooks(ctx, page)
		})
	}
	if err := pool.Wait(); err != nil {
		return err
	}

	for _, dup := range st.Store.Duplicates() {
		st.Warner.Warnf("URL %s was returned by both %s and %s; the later contribution's data wins on conflicting keys",
			dup.URL, dup.FirstSource, dup.SecondSource)
	}
	st.Logger.Debug("hook invocation complete",
		logfields.Count(st.Store.Len()),
		logfields.Outcome("contexts"))
	return nil
}

func (st *RunState) invokePageHooks(ctx context.Context, page *site.Page) error {
	exports, err := page.Load(ctx)
	if err != nil {
		return lerrors.NewHookFault(err, page.FilePath())
	}
	if exports.DoNotPrerender {
		st.addExclusion(site.ExclusionEntry{PageID: page.ID(), SourceFilePath: page.FilePath()})
		st.Logger.Debug("page excluded from prerendering",
			logfields.PageID(page.ID()), logfields.SourceFile(page.FilePath()))
		return nil
	}
	if exports.Prerender == nil {
		return nil
	}

	raw, err := exports.Prerender(ctx, site.CloneGlobal(st.Global))
	if err != nil {
		return lerrors.NewHookFault(err, page.FilePath())
	}
	specs, err := NormalizeHookResult(raw, page.FilePath())
	if err != nil {
		return err
	}
	for _, spec := range specs {
		st.Store.Contribute(spec.URL, page.FilePath(), spec.PageContext)
	}
	return nil
}
