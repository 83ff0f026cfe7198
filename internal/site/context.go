package site

import (
	"sort"
	"strings"
	"sync"
)

// RenderContext accumulates everything needed to render one URL. Fields only
// ever grow across phases: provenance and user data from hooks, the resolved
// page id and route parameters from routing, loaded server data before
// rendering.
type RenderContext struct {
	URL            string
	SourceHookFile string
	PageID         string
	RouteParams    map[string]string
	Data           map[string]any

	dataLoaded bool
}

// MergeData shallow-merges fields into the context's data; later writers win
// per key.
func (rc *RenderContext) MergeData(fields map[string]any) {
	if len(fields) == 0 {
		return
	}
	if rc.Data == nil {
		rc.Data = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		rc.Data[k] = v
	}
}

// MarkDataLoaded records that the page's server data loader already ran for
// this context, so the render phase does not run it again.
func (rc *RenderContext) MarkDataLoaded() { rc.dataLoaded = true }

// DataLoaded reports whether the server data loader already ran.
func (rc *RenderContext) DataLoaded() bool { return rc.dataLoaded }

// SerializableData returns the user-visible data fields: everything except
// internal bookkeeping keys, which are prefixed with an underscore.
func (rc *RenderContext) SerializableData() map[string]any {
	out := make(map[string]any, len(rc.Data))
	for k, v := range rc.Data {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

// DuplicateContribution records two hooks contributing the same URL.
type DuplicateContribution struct {
	URL          string
	FirstSource  string
	SecondSource string
}

// ContextStore holds exactly one RenderContext per distinct URL. Every
// mutation is a single locked read-modify-write step, so concurrent hook
// fan-out cannot interleave partial merges.
type ContextStore struct {
	mu         sync.Mutex
	byURL      map[string]*RenderContext
	duplicates []DuplicateContribution
}

// NewContextStore creates an empty store.
func NewContextStore() *ContextStore {
	return &ContextStore{byURL: make(map[string]*RenderContext)}
}

// Contribute finds or creates the context for url, overwrites its provenance
// with sourceFile, and shallow-merges data into it, atomically. When a second
// hook touches a URL first contributed by another file, the collision is
// recorded for the warning pass; the later writer's keys win.
func (s *ContextStore) Contribute(url, sourceFile string, data map[string]any) *RenderContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	rc, ok := s.byURL[url]
	if !ok {
		rc = &RenderContext{URL: url}
		s.byURL[url] = rc
	}
	if ok && sourceFile != "" && rc.SourceHookFile != "" && rc.SourceHookFile != sourceFile {
		s.duplicates = append(s.duplicates, DuplicateContribution{
			URL:          url,
			FirstSource:  rc.SourceHookFile,
			SecondSource: sourceFile,
		})
	}
	if sourceFile != "" {
		rc.SourceHookFile = sourceFile
	}
	rc.MergeData(data)
	return rc
}

// Ensure creates the context for url if absent, without provenance or data.
// created reports whether this call created it.
func (s *ContextStore) Ensure(url string) (rc *RenderContext, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rc, ok := s.byURL[url]
	if ok {
		return rc, false
	}
	rc = &RenderContext{URL: url}
	s.byURL[url] = rc
	return rc, true
}

// Get returns the context for url, if any.
func (s *ContextStore) Get(url string) (*RenderContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.byURL[url]
	return rc, ok
}

// Has reports whether a context exists for url.
func (s *ContextStore) Has(url string) bool {
	_, ok := s.Get(url)
	return ok
}

// Len returns the number of contexts.
func (s *ContextStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byURL)
}

// Snapshot returns all contexts sorted by URL for deterministic iteration.
func (s *ContextStore) Snapshot() []*RenderContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*RenderContext, 0, len(s.byURL))
	for _, rc := range s.byURL {
		out = append(out, rc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Duplicates returns the recorded same-URL contributions from distinct hooks.
func (s *ContextStore) Duplicates() []DuplicateContribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DuplicateContribution(nil), s.duplicates...)
}

// CloneGlobal shallow-copies a global context map. Hooks receive copies so a
// misbehaving hook cannot race the shared map; contributions flow back only
// through return values.
func CloneGlobal(global map[string]any) map[string]any {
	out := make(map[string]any, len(global))
	for k, v := range global {
		out[k] = v
	}
	return out
}
