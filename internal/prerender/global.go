package prerender

import (
	"context"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/site"
)

// stageGlobalHook finds the inventory's onBeforePrerender hook, if any, and
// applies the delta it returns to the shared global context. At most one page
// may declare the hook. The stage runs serially, after static discovery and
// before any routing, so every render observes its effect.
func stageGlobalHook(ctx context.Context, st *RunState) error {
	var hookPage *site.Page
	var hook site.GlobalHook
	for _, page := range st.Inventory.Pages() {
		if page.Kind() == site.KindError || !page.DeclaresHooks() {
			continue
		}
		exports, err := page.Load(ctx)
		if err != nil {
			return lerrors.NewHookFault(err, page.FilePath())
		}
		if exports.OnBeforePrerender == nil {
			continue
		}
		if hookPage != nil {
			return lerrors.NewUsageError(
				"onBeforePrerender is defined in both %s and %s; only one page may declare the global hook",
				hookPage.FilePath(), page.FilePath())
		}
		hookPage = page
		hook = exports.OnBeforePrerender
	}
	if hookPage == nil {
		return nil
	}

	raw, err := hook(ctx, site.CloneGlobal(st.Global))
	if err != nil {
		return lerrors.NewHookFault(err, hookPage.FilePath())
	}
	delta, err := NormalizeGlobalResult(raw, hookPage.FilePath())
	if err != nil {
		return err
	}
	for k, v := range delta {
		st.Global[k] = v
	}
	if len(delta) > 0 {
		st.Logger.Debug("global context extended",
			logfields.SourceFile(hookPage.FilePath()), logfields.Count(len(delta)))
	}
	return nil
}
