// Package litho prerenders a site into static HTML. Pages come from Markdown
// sources under site.dir or from a programmatically registered inventory;
// their server hooks contribute URLs and context data, and a staged pipeline
// routes, renders, and writes every accumulated URL.
package litho

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/litho/internal/config"
	"git.home.luguber.info/inful/litho/internal/history"
	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/prerender"
	"git.home.luguber.info/inful/litho/internal/render"
	"git.home.luguber.info/inful/litho/internal/site"
)

// StateDir receives run reports and, by default, the history database.
const StateDir = config.StateDir

// Prerender executes one full prerender run and returns its report. The
// report is non-nil whenever the pipeline started, including failed runs.
func Prerender(ctx context.Context, opts Options) (*RunReport, error) {
	if err := opts.checkRemoved(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.warnDeprecated(logger)

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	inv := opts.Inventory
	if inv == nil {
		inv, err = site.Scan(ctx, site.ScanOptions{
			Dir:     cfg.Site.Dir,
			GitInfo: cfg.GitInfoEnabled(),
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.NewDefaultRenderer(cfg.Site.Title, cfg.Site.BaseURL)
	}

	popts := prerender.Options{
		Inventory:         inv,
		Renderer:          renderer,
		InitialContext:    opts.InitialContext,
		Parallel:          cfg.Prerender.Parallel,
		OutputRoot:        filepath.Join(cfg.Output.Dir, cfg.Output.ClientSubdir),
		ReportDir:         StateDir,
		Partial:           cfg.Prerender.Partial,
		NoExtraDir:        cfg.Prerender.NoExtraDir,
		BaseURL:           cfg.Site.BaseURL,
		LinkCheck:         cfg.LinkCheckEnabled(),
		SourceFingerprint: inv.Fingerprint(),
		Logger:            logger,
		Recorder:          opts.Recorder,
	}
	if opts.OnRendered != nil {
		popts.Sink = adaptSink(opts.OnRendered)
	}

	report, runErr := prerender.Run(ctx, popts)

	if report != nil && cfg.HistoryEnabled() {
		recordHistory(cfg, report, logger)
	}

	return report, runErr
}

// loadConfig reads the configuration, falling back to built-in defaults when
// no path was given and no litho.yaml exists.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// adaptSink bridges the public per-file callback to the pipeline's sink.
func adaptSink(cb DocumentSink) prerender.DocumentSink {
	return func(ctx context.Context, doc *site.RenderedDocument, file prerender.SinkFile) error {
		sf := SinkFile{
			URL:     doc.URL,
			PageID:  doc.PageID,
			Path:    file.Path,
			Content: file.Content,
		}
		if doc.Context != nil {
			sf.Context = doc.Context.SerializableData()
		}
		return cb(ctx, sf)
	}
}

// recordHistory appends the run to the history store. Failures are warnings;
// a run never fails because bookkeeping did. The write uses its own context
// so canceled runs still get recorded.
func recordHistory(cfg *config.Config, report *prerender.RunReport, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path := cfg.History.Path
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			logger.Warn("failed to create history directory", logfields.Path(dir), logfields.Error(err))
			return
		}
	}

	store, err := history.Open(path)
	if err != nil {
		logger.Warn("failed to open run history", logfields.Path(path), logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Record(ctx, report); err != nil {
		logger.Warn("failed to record run history", logfields.Error(err))
	}
}
