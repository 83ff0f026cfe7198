package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/litho/internal/frontmatter"
	"git.home.luguber.info/inful/litho/internal/gitinfo"
	"git.home.luguber.info/inful/litho/internal/logfields"
)

// ScanOptions configures a site directory scan.
type ScanOptions struct {
	Dir     string
	GitInfo bool
	Logger  *slog.Logger
}

// Scan walks the site directory and builds the page inventory from Markdown
// sources. Front matter drives routing and hooks:
//
//	title:          page title (defaults from the file name)
//	route:          literal path or pattern with {param} segments
//	kind: error     marks the error page (a file named 404.md implies it)
//	doNotPrerender: opt the page out of prerendering
//	prerender:      URL list contributed exactly like a prerender() hook
//	emitContext:    write the serialized page context next to the document
//	data:           fields merged into the page's render context
func Scan(ctx context.Context, opts ScanOptions) (*Inventory, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(opts.Dir); err != nil {
		return nil, fmt.Errorf("site directory %s: %w", opts.Dir, err)
	}

	var collector *gitinfo.Collector
	if opts.GitInfo {
		c, err := gitinfo.Open(opts.Dir)
		if err != nil {
			logger.Debug("git metadata unavailable", logfields.Path(opts.Dir), logfields.Error(err))
		} else {
			collector = c
		}
	}

	inv := NewInventory()
	var fingerprints []string

	err := filepath.WalkDir(opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if d.IsDir() {
			if path != opts.Dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".md" && ext != ".markdown" {
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			return nil
		}

		page, err := scanFile(opts.Dir, path, collector)
		if err != nil {
			return err
		}
		if err := inv.Add(page); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fingerprints = append(fingerprints, page.ID()+":"+page.Fingerprint())
		logger.Debug("discovered page",
			logfields.PageID(page.ID()),
			logfields.File(path),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(fingerprints)
	inv.fingerprint = mdfp.CalculateFingerprintFromParts("", strings.Join(fingerprints, "\n"))

	logger.Info("site scan complete", logfields.Count(inv.Len()), logfields.Path(opts.Dir))
	return inv, nil
}

func scanFile(root, path string, collector *gitinfo.Collector) (*Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", path, err)
	}

	fmRaw, body, _, err := frontmatter.Split(content)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", path, err)
	}
	fields, err := frontmatter.ParseYAML(fmRaw)
	if err != nil {
		return nil, fmt.Errorf("page %s: invalid front matter: %w", path, err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, err
	}
	relNoExt := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	id := "/" + SlugifyPath(relNoExt)
	base := Slugify(filepath.Base(relNoExt))

	kind := KindStandard
	if base == "404" {
		kind = KindError
	}
	if k, ok := fields["kind"]; ok {
		s, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("page %s: kind must be a string", path)
		}
		if s == "error" {
			kind = KindError
		}
	}

	route := DefaultRouteFromID(id)
	if r, ok := fields["route"]; ok {
		s, ok := r.(string)
		if !ok || !strings.HasPrefix(s, "/") {
			return nil, fmt.Errorf("page %s: route must be a string starting with '/'", path)
		}
		route = s
	}

	title := TitleFromSlug(base)
	if t, ok := fields["title"]; ok {
		s, ok := t.(string)
		if !ok {
			return nil, fmt.Errorf("page %s: title must be a string", path)
		}
		title = s
	}

	exports := &Exports{}

	if v, ok := fields["doNotPrerender"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("page %s: doNotPrerender must be a boolean", path)
		}
		exports.DoNotPrerender = b
	}
	if v, ok := fields["emitContext"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("page %s: emitContext must be a boolean", path)
		}
		exports.EmitContext = b
	}

	var dataFields map[string]any
	if v, ok := fields["data"]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("page %s: data must be a mapping", path)
		}
		dataFields = m
	}

	if v, ok := fields["prerender"]; ok {
		contribution := v
		exports.Prerender = func(context.Context, map[string]any) (any, error) {
			return contribution, nil
		}
	}

	fingerprint := mdfp.CalculateFingerprintFromParts(
		strings.TrimRight(string(fmRaw), "\r\n"), string(body))

	var info gitinfo.Info
	var hasGit bool
	if collector != nil {
		info, hasGit = collector.FileInfo(path)
	}

	exports.Data = func(_ context.Context, _ *RenderContext) (map[string]any, error) {
		out := map[string]any{
			"title":        title,
			"_markdown":    string(body),
			"_fingerprint": fingerprint,
		}
		if hasGit {
			out["lastmod"] = info.LastMod.Format(time.RFC3339)
			out["gitRevision"] = info.Revision
		}
		for k, v := range dataFields {
			out[k] = v
		}
		return out, nil
	}

	return newFilePage(id, path, kind, route, fingerprint, exports), nil
}
