// Package linkcheck extracts links from rendered HTML documents and verifies
// that internal page links resolve to a prerendered URL.
package linkcheck

import (
	"bytes"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/site"
	"git.home.luguber.info/inful/litho/internal/util/sets"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // The URL or path
	Text       string // Link text/title
	Tag        string // HTML tag (a, img, script, link, etc.)
	Attribute  string // Attribute containing the link (href, src, etc.)
	IsInternal bool   // True if link targets the site itself
}

// ExtractFromReader extracts all links from an HTML reader.
func ExtractFromReader(r io.Reader, baseURL string) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, lerrors.Wrap(err, lerrors.CategoryOutput, lerrors.SeverityError, "parse rendered HTML")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, lerrors.Wrap(err, lerrors.CategoryConfig, lerrors.SeverityError, "invalid base URL")
	}

	var links []*Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			extractElementLinks(n, &links, base)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

// extractElementLinks extracts links from a single HTML element.
func extractElementLinks(n *html.Node, links *[]*Link, base *url.URL) {
	switch n.Data {
	case "a":
		if href := getAttr(n, "href"); href != "" {
			*links = append(*links, &Link{
				URL:        href,
				Text:       extractText(n),
				Tag:        "a",
				Attribute:  "href",
				IsInternal: isInternalLink(href, base),
			})
		}
	case "img":
		if src := getAttr(n, "src"); src != "" {
			*links = append(*links, &Link{
				URL:        src,
				Text:       getAttr(n, "alt"),
				Tag:        "img",
				Attribute:  "src",
				IsInternal: isInternalLink(src, base),
			})
		}
	case "script", "video", "audio", "source":
		if src := getAttr(n, "src"); src != "" {
			*links = append(*links, &Link{
				URL:        src,
				Tag:        n.Data,
				Attribute:  "src",
				IsInternal: isInternalLink(src, base),
			})
		}
	case "link":
		if href := getAttr(n, "href"); href != "" {
			*links = append(*links, &Link{
				URL:        href,
				Text:       getAttr(n, "rel"),
				Tag:        "link",
				Attribute:  "href",
				IsInternal: isInternalLink(href, base),
			})
		}
	}
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}

// isInternalLink determines if a URL targets the site itself.
func isInternalLink(linkURL string, base *url.URL) bool {
	if strings.HasPrefix(linkURL, "mailto:") ||
		strings.HasPrefix(linkURL, "tel:") ||
		strings.HasPrefix(linkURL, "javascript:") ||
		strings.HasPrefix(linkURL, "#") {
		return true // not external, but also not verifiable page links
	}
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return true
	}
	return base != nil && u.Host == base.Host
}

// ShouldVerify reports whether a link is a candidate for page verification.
// Anchors, special protocols, and asset paths with a file extension are the
// host's concern, not the prerenderer's.
func ShouldVerify(l *Link) bool {
	if l.URL == "" || strings.HasPrefix(l.URL, "#") {
		return false
	}
	if strings.HasPrefix(l.URL, "mailto:") ||
		strings.HasPrefix(l.URL, "tel:") ||
		strings.HasPrefix(l.URL, "javascript:") ||
		strings.HasPrefix(l.URL, "data:") {
		return false
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return false
	}
	if u.Path == "" {
		return false
	}
	if ext := path.Ext(u.Path); ext != "" && ext != ".html" {
		return false
	}
	return true
}

// Problem is one internal link that does not resolve to a prerendered URL.
type Problem struct {
	SourceURL string // page containing the link
	Target    string // normalized link target
}

// VerifyDocuments checks every internal page link in the rendered documents
// against the set of prerendered URLs.
func VerifyDocuments(docs []*site.RenderedDocument, baseURL string) ([]Problem, error) {
	known := sets.New[string]()
	for _, d := range docs {
		known.Add(normalizeTarget(d.URL))
	}

	var problems []Problem
	for _, d := range docs {
		links, err := ExtractFromReader(bytes.NewReader(d.Body), baseURL)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if !l.IsInternal || !ShouldVerify(l) {
				continue
			}
			target := normalizeTarget(linkPath(l.URL))
			if target == "" {
				continue
			}
			if !known.Has(target) {
				problems = append(problems, Problem{SourceURL: d.URL, Target: target})
			}
		}
	}
	return problems, nil
}

// linkPath strips scheme, host, query, and fragment from a link.
func linkPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Path
}

// normalizeTarget folds the nested and suppressed document forms of a URL
// into one canonical key.
func normalizeTarget(p string) string {
	p = strings.TrimSuffix(p, "/index.html")
	p = strings.TrimSuffix(p, ".html")
	p = strings.TrimSuffix(p, "/")
	if p == "" || p == "index" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
