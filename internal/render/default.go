package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/litho/internal/site"
)

const layout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}{{if .SiteTitle}} &middot; {{.SiteTitle}}{{end}}</title>
{{- if .Canonical}}
<link rel="canonical" href="{{.Canonical}}">
{{- end}}
{{- if .Revision}}
<meta name="revision" content="{{.Revision}}">
{{- end}}
</head>
<body>
<main>
{{.Content}}
</main>
</body>
</html>
`

type layoutData struct {
	Title     string
	SiteTitle string
	Canonical string
	Revision  string
	Content   template.HTML
}

// DefaultRenderer renders Markdown page bodies (the scanner stores them in
// the context) into a plain HTML layout. Pages without a Markdown body get
// an empty main element, which suits registered pages that only ship a
// serialized context.
type DefaultRenderer struct {
	siteTitle string
	baseURL   string
	md        goldmark.Markdown
	tmpl      *template.Template
}

// NewDefaultRenderer creates the built-in renderer.
func NewDefaultRenderer(siteTitle, baseURL string) *DefaultRenderer {
	return &DefaultRenderer{
		siteTitle: siteTitle,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		tmpl: template.Must(template.New("layout").Parse(layout)),
	}
}

// RenderPage implements Renderer.
func (r *DefaultRenderer) RenderPage(ctx context.Context, page *site.Page, rc *site.RenderContext, global map[string]any) (*Result, error) {
	body, err := r.renderDocument(rc)
	if err != nil {
		return nil, err
	}

	result := &Result{Body: body}

	exports, err := page.Load(ctx)
	if err != nil {
		return nil, err
	}
	if exports.EmitContext {
		serialized, err := SerializeContext(rc)
		if err != nil {
			return nil, err
		}
		result.SerializedContext = serialized
	}
	return result, nil
}

// RenderStatic404 implements Renderer. The error page's data loader runs
// against a fresh context for /404; the global context is visible to it the
// same way it is for routed pages.
func (r *DefaultRenderer) RenderStatic404(ctx context.Context, errorPage *site.Page, global map[string]any) (*Result, *site.RenderContext, error) {
	if errorPage == nil {
		return nil, nil, nil
	}

	rc := &site.RenderContext{URL: "/404", PageID: errorPage.ID()}
	exports, err := errorPage.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if exports.Data != nil {
		fields, err := exports.Data(ctx, rc)
		if err != nil {
			return nil, nil, err
		}
		rc.MergeData(fields)
		rc.MarkDataLoaded()
	}
	if _, ok := rc.Data["title"]; !ok {
		rc.MergeData(map[string]any{"title": "Not Found"})
	}

	body, err := r.renderDocument(rc)
	if err != nil {
		return nil, nil, err
	}
	return &Result{Body: body}, rc, nil
}

func (r *DefaultRenderer) renderDocument(rc *site.RenderContext) ([]byte, error) {
	var content bytes.Buffer
	if md, ok := rc.Data["_markdown"].(string); ok && md != "" {
		if err := r.md.Convert([]byte(md), &content); err != nil {
			return nil, fmt.Errorf("markdown conversion for %s: %w", rc.URL, err)
		}
	}

	title, _ := rc.Data["title"].(string)
	if title == "" {
		title = site.TitleFromSlug(site.Slugify(lastSegment(rc.URL)))
	}
	revision, _ := rc.Data["gitRevision"].(string)

	data := layoutData{
		Title:     title,
		SiteTitle: r.siteTitle,
		Revision:  revision,
		Content:   template.HTML(content.String()),
	}
	if r.baseURL != "" {
		data.Canonical = r.baseURL + rc.URL
	}

	var out bytes.Buffer
	if err := r.tmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("layout for %s: %w", rc.URL, err)
	}
	return out.Bytes(), nil
}

// SerializeContext encodes the user-visible part of a render context as the
// side-channel JSON document: identity, resolved page, route parameters, and
// data without internal bookkeeping keys.
func SerializeContext(rc *site.RenderContext) ([]byte, error) {
	payload := map[string]any{
		"url":  rc.URL,
		"data": rc.SerializableData(),
	}
	if rc.PageID != "" {
		payload["pageId"] = rc.PageID
	}
	if len(rc.RouteParams) > 0 {
		payload["routeParams"] = rc.RouteParams
	}
	return json.Marshal(payload)
}

func lastSegment(url string) string {
	trimmed := strings.Trim(url, "/")
	if trimmed == "" {
		return "home"
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
