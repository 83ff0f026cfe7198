package prerender

import (
	"context"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/site"
)

// stageFallback404 asks the renderer for a static 404 document unless one was
// already rendered for /404. The fallback document carries no page id and no
// serialized context, and is always written as a single file.
func stageFallback404(ctx context.Context, st *RunState) error {
	if st.hasDocumentForURL("/404") {
		return nil
	}
	result, rc, err := st.Opts.Renderer.RenderStatic404(ctx, st.Inventory.ErrorPage(), site.CloneGlobal(st.Global))
	if err != nil {
		return lerrors.RenderFault("/404", err)
	}
	if result == nil {
		st.Logger.Debug("no 404 fallback produced")
		return nil
	}
	st.appendDocument(&site.RenderedDocument{
		URL:             "/404",
		Context:         rc,
		Body:            result.Body,
		SuppressNesting: true,
	})
	return nil
}
