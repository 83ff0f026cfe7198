package prerender

import (
	"context"
	"maps"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/site"
)

// stageRenderPages routes and renders every context accumulated by the hook
// and discovery stages. Routing faults and render faults abort the run; a URL
// no route matches is a usage error naming the hook that contributed it.
func stageRenderPages(ctx context.Context, st *RunState) error {
	pool := st.newPool()
	for _, rc := range st.Store.Snapshot() {
		pool.Submit(ctx, func(ctx context.Context) error {
			return st.renderContext(ctx, rc)
		})
	}
	if err := pool.Wait(); err != nil {
		return err
	}
	st.Logger.Info("pages rendered", logfields.Count(st.renderedCount()))
	return nil
}

func (st *RunState) renderContext(ctx context.Context, rc *site.RenderContext) error {
	match, err := st.Resolver.Resolve(ctx, rc.URL)
	if err != nil {
		return lerrors.RoutingFault(rc.URL, err)
	}
	if match == nil {
		if rc.SourceHookFile != "" {
			return lerrors.NewUsageError(
				"no page route matches URL %q returned by the prerender hook in %s",
				rc.URL, rc.SourceHookFile)
		}
		return lerrors.NewUsageError("no page route matches URL %q", rc.URL)
	}

	rc.PageID = match.PageID
	if len(match.Params) > 0 {
		if rc.RouteParams == nil {
			rc.RouteParams = maps.Clone(match.Params)
		} else {
			maps.Copy(rc.RouteParams, match.Params)
		}
	}

	page, ok := st.Inventory.Get(match.PageID)
	if !ok {
		return lerrors.Newf(lerrors.CategoryInternal, lerrors.SeverityFatal,
			"resolver produced unknown page id %s for URL %s", match.PageID, rc.URL)
	}
	if !rc.DataLoaded() {
		if err := st.loadPageData(ctx, page, rc); err != nil {
			return err
		}
	}

	result, err := st.Opts.Renderer.RenderPage(ctx, page, rc, site.CloneGlobal(st.Global))
	if err != nil {
		return lerrors.RenderFault(rc.URL, err)
	}
	st.appendDocument(&site.RenderedDocument{
		URL:               rc.URL,
		Context:           rc,
		Body:              result.Body,
		SerializedContext: result.SerializedContext,
		SuppressNesting:   st.Opts.NoExtraDir,
		PageID:            page.ID(),
	})
	st.recordRendered(page.ID(), rc)
	st.Logger.Debug("page rendered", logfields.URL(rc.URL), logfields.PageID(page.ID()))
	return nil
}
