package prerender

import (
	"context"

	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/site"
)

// stageStaticRoutes creates a render context for every page whose route is a
// literal, parameter-free path, unless the page is excluded or a hook already
// contributed its URL. The page's server data loads eagerly so the routing
// stage can skip it. Pages routed by a function or a parameterized template
// are only reachable through a hook-returned URL.
func stageStaticRoutes(ctx context.Context, st *RunState) error {
	excluded := st.excludedSet()
	pool := st.newPool()
	discovered := 0
	for _, page := range st.Inventory.Pages() {
		if page.Kind() == site.KindError {
			continue
		}
		url, ok := page.StaticRoute()
		if !ok {
			continue
		}
		if _, skip := excluded[page.ID()]; skip {
			continue
		}
		if st.Store.Has(url) {
			continue
		}
		discovered++
		pool.Submit(ctx, func(ctx context.Context) error {
			rc, created := st.Store.Ensure(url)
			if !created {
				return nil
			}
			return st.loadPageData(ctx, page, rc)
		})
	}
	if err := pool.Wait(); err != nil {
		return err
	}
	st.Logger.Debug("static routes discovered", logfields.Count(discovered))
	return nil
}
