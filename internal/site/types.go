// Package site defines the page model consumed by the prerender pipeline:
// pages with lazily loaded hook exports, the inventory of known pages, and
// the per-URL render contexts accumulated across pipeline phases.
package site

import "context"

// PageKind distinguishes regular pages from the error page.
type PageKind int

const (
	KindStandard PageKind = iota
	KindError
)

func (k PageKind) String() string {
	if k == KindError {
		return "error"
	}
	return "standard"
}

// PrerenderHook contributes URLs to render. The returned value is one of:
// a URL string, a URLSpec, a map with "url" and optional "pageContext" keys,
// or a slice mixing those forms. Nil means no contribution.
type PrerenderHook func(ctx context.Context, global map[string]any) (any, error)

// GlobalHook runs once before routing and rendering. It may return nil, an
// empty map, or a map of the form {"globalContext": map[string]any{...}}
// whose record is merged into the shared global context.
type GlobalHook func(ctx context.Context, global map[string]any) (any, error)

// DataLoader loads per-page server data into a render context. The returned
// fields are shallow-merged into the context's data.
type DataLoader func(ctx context.Context, rc *RenderContext) (map[string]any, error)

// RouteFunc matches a URL against a computed route. ok reports a match;
// params carries extracted route parameters. An error aborts the run.
type RouteFunc func(url string) (params map[string]string, ok bool, err error)

// URLSpec is the canonical form a prerender hook contribution is normalized
// into: one URL plus optional page context data.
type URLSpec struct {
	URL         string
	PageContext map[string]any
}

// Exports is a page's loaded hook module.
type Exports struct {
	Prerender         PrerenderHook
	OnBeforePrerender GlobalHook
	DoNotPrerender    bool
	Data              DataLoader
	EmitContext       bool
}

// ExclusionEntry records a page that opted out of prerendering.
type ExclusionEntry struct {
	PageID         string
	SourceFilePath string
}

// RenderedDocument is one successfully rendered page. PageID is empty only
// for the synthetic 404 fallback document.
type RenderedDocument struct {
	URL               string
	Context           *RenderContext
	Body              []byte
	SerializedContext []byte
	SuppressNesting   bool
	PageID            string
}
