package site

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// PageSpec describes a page registered programmatically. Either the hook
// fields are set directly, or LoadExports defers them to a loader invoked
// the first time the pipeline needs the page's exports.
type PageSpec struct {
	// ID is the canonical page id, rooted at "/" (for example "/pages/movie").
	ID string
	// FilePath names the source for diagnostics; defaults to ID.
	FilePath string
	// Kind marks the error page; at most one per inventory.
	Kind PageKind
	// Route is a literal path ("/blog"), a parameterized pattern
	// ("/movie/{id}"), or a RouteFunc. Empty derives the route from ID.
	Route any

	Prerender         PrerenderHook
	OnBeforePrerender GlobalHook
	DoNotPrerender    bool
	Data              DataLoader
	EmitContext       bool

	// LoadExports supplies the exports lazily. Mutually exclusive with the
	// direct hook fields above.
	LoadExports func(ctx context.Context) (*Exports, error)
}

// Page is one inventory entry. Exports load lazily and at most once.
type Page struct {
	id            string
	filePath      string
	kind          PageKind
	route         any
	fingerprint   string
	declaresHooks bool

	loadOnce sync.Once
	loader   func(ctx context.Context) (*Exports, error)
	exports  *Exports
	loadErr  error
}

// NewPage validates a spec and builds a page.
func NewPage(spec PageSpec) (*Page, error) {
	if !strings.HasPrefix(spec.ID, "/") {
		return nil, fmt.Errorf("page id %q must start with '/'", spec.ID)
	}
	if spec.LoadExports != nil &&
		(spec.Prerender != nil || spec.OnBeforePrerender != nil || spec.DoNotPrerender || spec.Data != nil) {
		return nil, fmt.Errorf("page %s: LoadExports and direct hook fields are mutually exclusive", spec.ID)
	}
	switch r := spec.Route.(type) {
	case nil, RouteFunc:
	case string:
		if r != "" && !strings.HasPrefix(r, "/") {
			return nil, fmt.Errorf("page %s: route %q must start with '/'", spec.ID, r)
		}
	case func(string) (map[string]string, bool, error):
		spec.Route = RouteFunc(r)
	default:
		return nil, fmt.Errorf("page %s: route must be a string or a RouteFunc, got %T", spec.ID, spec.Route)
	}

	filePath := spec.FilePath
	if filePath == "" {
		filePath = spec.ID
	}
	route := spec.Route
	if s, ok := route.(string); ok && s == "" {
		route = nil
	}
	if route == nil && spec.Kind != KindError {
		route = DefaultRouteFromID(spec.ID)
	}
	if route == nil {
		route = "/404"
	}

	p := &Page{
		id:       spec.ID,
		filePath: filePath,
		kind:     spec.Kind,
		route:    route,
	}

	if spec.LoadExports != nil {
		p.loader = spec.LoadExports
		p.declaresHooks = true
		return p, nil
	}

	exports := &Exports{
		Prerender:         spec.Prerender,
		OnBeforePrerender: spec.OnBeforePrerender,
		DoNotPrerender:    spec.DoNotPrerender,
		Data:              spec.Data,
		EmitContext:       spec.EmitContext,
	}
	p.loader = func(context.Context) (*Exports, error) { return exports, nil }
	p.declaresHooks = spec.Prerender != nil || spec.OnBeforePrerender != nil || spec.DoNotPrerender
	return p, nil
}

// newFilePage is used by the scanner, which has already parsed the source.
func newFilePage(id, filePath string, kind PageKind, route any, fingerprint string, exports *Exports) *Page {
	declares := exports.Prerender != nil || exports.OnBeforePrerender != nil || exports.DoNotPrerender
	return &Page{
		id:            id,
		filePath:      filePath,
		kind:          kind,
		route:         route,
		fingerprint:   fingerprint,
		loader:        func(context.Context) (*Exports, error) { return exports, nil },
		declaresHooks: declares,
	}
}

func (p *Page) ID() string          { return p.id }
func (p *Page) FilePath() string    { return p.filePath }
func (p *Page) Kind() PageKind      { return p.kind }
func (p *Page) Fingerprint() string { return p.fingerprint }

// DeclaresHooks reports whether the page carries server-side hooks and must
// be processed by the hook-invocation phase. Pages with a deferred loader
// always report true, since their exports are unknown until loaded.
func (p *Page) DeclaresHooks() bool { return p.declaresHooks }

// Load returns the page's exports, loading them at most once. After a load
// failure every subsequent call returns the same error.
func (p *Page) Load(ctx context.Context) (*Exports, error) {
	p.loadOnce.Do(func() {
		exports, err := p.loader(ctx)
		if err != nil {
			p.loadErr = err
			return
		}
		if exports == nil {
			exports = &Exports{}
		}
		p.exports = exports
	})
	return p.exports, p.loadErr
}

// RouteString returns the page's route when it is a literal or parameterized
// pattern.
func (p *Page) RouteString() (string, bool) {
	s, ok := p.route.(string)
	return s, ok
}

// RouteFunc returns the page's computed route matcher, if any.
func (p *Page) RouteFunc() (RouteFunc, bool) {
	f, ok := p.route.(RouteFunc)
	return f, ok
}

// StaticRoute returns the route when it is literal and parameter-free, which
// makes the page eligible for static-route discovery.
func (p *Page) StaticRoute() (string, bool) {
	s, ok := p.route.(string)
	if !ok || strings.Contains(s, "{") {
		return "", false
	}
	return s, true
}

// DefaultRouteFromID derives a filesystem-style route from a page id:
// a leading "/pages" segment is dropped and a trailing "/index" collapses
// to the parent directory.
func DefaultRouteFromID(id string) string {
	route := strings.TrimSuffix(id, "/index")
	route = strings.TrimPrefix(route, "/pages")
	if route == "" {
		route = "/"
	}
	return route
}
