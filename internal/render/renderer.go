// Package render turns render contexts into HTML documents. The pipeline
// consumes the Renderer interface; hosts may plug in their own
// implementation, and the default renders Markdown page bodies through a
// minimal HTML layout.
package render

import (
	"context"

	"git.home.luguber.info/inful/litho/internal/site"
)

// Result is one rendered document. SerializedContext is nil unless the page
// requested the side-channel context file.
type Result struct {
	Body              []byte
	SerializedContext []byte
}

// Renderer renders resolved pages and the static 404 fallback.
type Renderer interface {
	// RenderPage renders one routed page. The context carries the page's
	// loaded server data; global is the shared global context.
	RenderPage(ctx context.Context, page *site.Page, rc *site.RenderContext, global map[string]any) (*Result, error)

	// RenderStatic404 renders the fallback 404 document from the inventory's
	// error page. errorPage is nil when the inventory has none; returning
	// (nil, nil, nil) means no fallback document is produced.
	RenderStatic404(ctx context.Context, errorPage *site.Page, global map[string]any) (*Result, *site.RenderContext, error)
}
