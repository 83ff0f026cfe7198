// Package routing resolves URLs to inventory pages. Literal routes win over
// parameterized patterns, patterns win over computed route functions, and
// more specific patterns win over catch-alls.
package routing

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/litho/internal/site"
)

// Match is a successful resolution.
type Match struct {
	PageID string
	Params map[string]string
}

// Resolver maps a URL to a page id. A nil match with a nil error means no
// page matched; an error is a resolver-internal fault and aborts the run.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*Match, error)
}

type patternRoute struct {
	pageID   string
	segments []string
	literals int
}

type funcRoute struct {
	pageID string
	fn     site.RouteFunc
}

// InventoryResolver resolves against the page inventory's routes.
type InventoryResolver struct {
	literals map[string]string
	patterns []patternRoute
	funcs    []funcRoute
}

// NewResolver indexes the inventory's routes. Error pages are reachable only
// through the 404 fallback and are never routing destinations.
func NewResolver(inv *site.Inventory) *InventoryResolver {
	r := &InventoryResolver{literals: make(map[string]string)}

	for _, p := range inv.Pages() {
		if p.Kind() == site.KindError {
			continue
		}
		if fn, ok := p.RouteFunc(); ok {
			r.funcs = append(r.funcs, funcRoute{pageID: p.ID(), fn: fn})
			continue
		}
		route, ok := p.RouteString()
		if !ok {
			continue
		}
		if !strings.Contains(route, "{") {
			if _, taken := r.literals[normalize(route)]; !taken {
				r.literals[normalize(route)] = p.ID()
			}
			continue
		}
		segments := splitSegments(route)
		literals := 0
		for _, seg := range segments {
			if !isParam(seg) {
				literals++
			}
		}
		r.patterns = append(r.patterns, patternRoute{
			pageID:   p.ID(),
			segments: segments,
			literals: literals,
		})
	}

	return r
}

// Resolve implements Resolver.
func (r *InventoryResolver) Resolve(ctx context.Context, url string) (*Match, error) {
	target := normalize(url)

	if pageID, ok := r.literals[target]; ok {
		return &Match{PageID: pageID}, nil
	}

	segments := splitSegments(target)
	var best *Match
	bestLiterals := -1
	for _, pattern := range r.patterns {
		params, ok := matchPattern(pattern.segments, segments)
		if !ok {
			continue
		}
		if pattern.literals > bestLiterals {
			best = &Match{PageID: pattern.pageID, Params: params}
			bestLiterals = pattern.literals
		}
	}
	if best != nil {
		return best, nil
	}

	for _, fr := range r.funcs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		params, ok, err := fr.fn(url)
		if err != nil {
			return nil, fmt.Errorf("route function of page %s: %w", fr.pageID, err)
		}
		if ok {
			return &Match{PageID: fr.pageID, Params: params}, nil
		}
	}

	return nil, nil
}

func matchPattern(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range pattern {
		if isParam(seg) {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:len(seg)-1]] = segments[i]
			continue
		}
		if seg != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func isParam(segment string) bool {
	return strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}

func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func normalize(url string) string {
	if url == "" {
		return "/"
	}
	if url != "/" {
		url = strings.TrimSuffix(url, "/")
		if url == "" {
			url = "/"
		}
	}
	return url
}
