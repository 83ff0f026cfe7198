package litho

import (
	"context"
	"log/slog"
	"sync"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/metrics"
	"git.home.luguber.info/inful/litho/internal/prerender"
	"git.home.luguber.info/inful/litho/internal/render"
	"git.home.luguber.info/inful/litho/internal/site"
)

// Re-exported page model types, so hosts registering pages programmatically
// never import internal packages.
type (
	Inventory        = site.Inventory
	PageSpec         = site.PageSpec
	PageKind         = site.PageKind
	URLSpec          = site.URLSpec
	Exports          = site.Exports
	RenderContext    = site.RenderContext
	RenderedDocument = site.RenderedDocument
	PrerenderHook    = site.PrerenderHook
	GlobalHook       = site.GlobalHook
	DataLoader       = site.DataLoader
	RouteFunc        = site.RouteFunc
	Renderer         = render.Renderer
	Recorder         = metrics.Recorder
	RunReport        = prerender.RunReport
)

const (
	KindStandard = site.KindStandard
	KindError    = site.KindError
)

// NewInventory creates an empty page inventory.
func NewInventory() *Inventory { return site.NewInventory() }

// SinkFile is one output file handed to an OnRendered callback: the rendered
// page's identity and context plus the produced file path and content.
type SinkFile struct {
	URL     string
	PageID  string
	Path    string // relative to the output root
	Content []byte
	Context map[string]any
}

// DocumentSink receives every produced file in place of filesystem storage.
type DocumentSink func(ctx context.Context, file SinkFile) error

// Options configures one Prerender call.
type Options struct {
	// Config overrides the configuration file path (default litho.yaml; a
	// missing default file falls back to built-in defaults).
	Config string
	// Inventory supplies pages programmatically; nil scans site.dir.
	Inventory *Inventory
	// InitialContext is merged into the global context before any stage runs.
	InitialContext map[string]any
	// OnRendered, when set, receives every output file instead of the
	// filesystem and switches per-file write logging to debug.
	OnRendered DocumentSink
	// Renderer overrides the built-in Markdown renderer.
	Renderer Renderer
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Recorder receives run metrics; defaults to a no-op.
	Recorder Recorder

	// Removed options. Setting any of these fails the run with an error
	// naming the litho.yaml key that replaced it.
	Parallel int
	OutDir   string
	Root     string

	// Deprecated options, accepted with a one-time warning and ignored.
	Partial    bool
	NoExtraDir bool
	Base       string
}

// checkRemoved rejects options whose behavior moved into litho.yaml.
func (o *Options) checkRemoved() error {
	switch {
	case o.Parallel != 0:
		return lerrors.NewUsageError("the Parallel option was removed; set prerender.parallel in litho.yaml")
	case o.OutDir != "":
		return lerrors.NewUsageError("the OutDir option was removed; set output.dir in litho.yaml")
	case o.Root != "":
		return lerrors.NewUsageError("the Root option was removed; set site.dir in litho.yaml")
	}
	return nil
}

var deprecationWarned sync.Map

// warnDeprecated logs once per process for each ignored deprecated option.
func (o *Options) warnDeprecated(logger *slog.Logger) {
	warn := func(name, key string) {
		if _, dup := deprecationWarned.LoadOrStore(name, struct{}{}); dup {
			return
		}
		logger.Warn("deprecated option ignored; set "+key+" in litho.yaml instead",
			slog.String("option", name))
	}
	if o.Partial {
		warn("Partial", "prerender.partial")
	}
	if o.NoExtraDir {
		warn("NoExtraDir", "prerender.no_extra_dir")
	}
	if o.Base != "" {
		warn("Base", "site.base_url")
	}
}
