package prerender

import (
	"context"
	"fmt"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/site"
)

// stageVerifyCoverage compares the rendered set, the exclusion set, and the
// full inventory. A page both excluded and rendered is a contradiction and
// fails the run. Pages covered by neither are warned about once each, unless
// the run is partial. Error pages are exempt from coverage.
func stageVerifyCoverage(_ context.Context, st *RunState) error {
	for _, excl := range st.exclusionEntries() {
		rc, rendered := st.renderedContext(excl.PageID)
		if !rendered {
			continue
		}
		if rc.SourceHookFile != "" {
			return lerrors.NewUsageError(
				"page %s is marked doNotPrerender in %s, but the prerender hook in %s returned URL %s for it",
				excl.PageID, excl.SourceFilePath, rc.SourceHookFile, rc.URL)
		}
		return lerrors.NewUsageError(
			"page %s is marked doNotPrerender in %s, but URL %s was prerendered for it",
			excl.PageID, excl.SourceFilePath, rc.URL)
	}

	if st.Opts.Partial {
		return nil
	}

	excluded := st.excludedSet()
	missing := 0
	for _, page := range st.Inventory.Pages() {
		if page.Kind() == site.KindError {
			continue
		}
		if _, ok := excluded[page.ID()]; ok {
			continue
		}
		if _, ok := st.renderedContext(page.ID()); ok {
			continue
		}
		missing++
		st.Warner.Warnf("page %s was neither prerendered nor excluded; give it a static route, return its URL from a prerender hook, or mark it doNotPrerender",
			page.ID())
	}
	if missing > 0 {
		return NewWarnStageError(StageVerifyCoverage,
			fmt.Errorf("%d of %d pages missing from the prerendered output", missing, st.Inventory.Len()))
	}
	return nil
}
