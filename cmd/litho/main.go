package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/litho/internal/config"
	"git.home.luguber.info/inful/litho/internal/daemon"
	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/history"
	"git.home.luguber.info/inful/litho/internal/metrics"
	"git.home.luguber.info/inful/litho/internal/prerender"
	"git.home.luguber.info/inful/litho/internal/render"
	"git.home.luguber.info/inful/litho/internal/site"
	"git.home.luguber.info/inful/litho/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"litho.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Partial  bool   `help:"Suppress missing-coverage warnings for a deliberately partial run"`
		Parallel int    `help:"Override prerender.parallel for this run"`
		Out      string `short:"o" help:"Override output.dir for this run"`
	} `cmd:"" help:"Prerender the site once"`

	Init struct {
		Dir   string `arg:"" optional:"" help:"Directory to scaffold (default: current directory)"`
		Force bool   `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold litho.yaml and a starter site"`

	History struct {
		Limit int `default:"10" help:"Number of runs to show"`
	} `cmd:"" help:"Show recent prerender runs"`

	Daemon struct{} `cmd:"" help:"Re-render periodically and serve Prometheus metrics"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	adapter := lerrors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild()
	case "init", "init <dir>":
		err = runInit(CLI.Init.Dir, CLI.Init.Force)
	case "history":
		err = runHistory(CLI.History.Limit)
	case "daemon":
		err = runDaemon()
	case "version":
		fmt.Printf("litho %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}
	adapter.HandleError(err)
}

// loadConfig loads the configured file. A missing default file falls back to
// built-in defaults; an explicitly named missing file is an error.
func loadConfig() (*config.Config, error) {
	if CLI.Config == config.DefaultPath {
		if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if !CLI.Verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))
	}
	return cfg, nil
}

func runBuild() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Build.Parallel > 0 {
		cfg.Prerender.Parallel = CLI.Build.Parallel
	}
	if CLI.Build.Partial {
		cfg.Prerender.Partial = true
	}
	if CLI.Build.Out != "" {
		cfg.Output.Dir = CLI.Build.Out
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, runErr := buildOnce(ctx, cfg, nil)
	if report != nil {
		fmt.Println(report.Summary())
	}
	return runErr
}

// buildOnce performs one complete prerender run: scan, render, report,
// history. The daemon passes its Prometheus recorder; one-shot builds pass
// nil and run without metrics.
func buildOnce(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (*prerender.RunReport, error) {
	inv, err := site.Scan(ctx, site.ScanOptions{
		Dir:     cfg.Site.Dir,
		GitInfo: cfg.GitInfoEnabled(),
		Logger:  slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	report, runErr := prerender.Run(ctx, prerender.Options{
		Inventory:         inv,
		Renderer:          render.NewDefaultRenderer(cfg.Site.Title, cfg.Site.BaseURL),
		Parallel:          cfg.Prerender.Parallel,
		OutputRoot:        filepath.Join(cfg.Output.Dir, cfg.Output.ClientSubdir),
		ReportDir:         config.StateDir,
		Partial:           cfg.Prerender.Partial,
		NoExtraDir:        cfg.Prerender.NoExtraDir,
		BaseURL:           cfg.Site.BaseURL,
		LinkCheck:         cfg.LinkCheckEnabled(),
		SourceFingerprint: inv.Fingerprint(),
		Logger:            slog.Default(),
		Recorder:          recorder,
	})

	if report != nil && cfg.HistoryEnabled() {
		recordHistory(cfg, report)
	}
	return report, runErr
}

// recordHistory is best effort; a finished run never fails on bookkeeping.
func recordHistory(cfg *config.Config, report *prerender.RunReport) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if dir := filepath.Dir(cfg.History.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			slog.Warn("failed to create history directory", "path", dir, "error", err)
			return
		}
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("failed to open run history", "path", cfg.History.Path, "error", err)
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.Record(ctx, report); err != nil {
		slog.Warn("failed to record run history", "error", err)
	}
}

const starterIndex = `---
title: Home
---

# Welcome

This site is prerendered with litho. Edit pages under the site directory and
run ` + "`litho build`" + `.
`

const starter404 = `---
title: Not Found
---

The page you are looking for does not exist.
`

func runInit(dir string, force bool) error {
	if dir == "" {
		dir = "."
	}
	siteDir := filepath.Join(dir, "site")
	if err := os.MkdirAll(siteDir, 0o755); err != nil {
		return fmt.Errorf("create site directory: %w", err)
	}

	if err := config.Init(filepath.Join(dir, config.DefaultPath), force); err != nil {
		return err
	}
	if err := writeStarter(filepath.Join(siteDir, "index.md"), starterIndex, force); err != nil {
		return err
	}
	if err := writeStarter(filepath.Join(siteDir, "404.md"), starter404, force); err != nil {
		return err
	}

	slog.Info("scaffolded litho site", "dir", dir)
	return nil
}

func writeStarter(path, content string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		slog.Info("keeping existing file", "path", path)
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func runHistory(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return lerrors.Wrap(err, lerrors.CategoryHistory, lerrors.SeverityError, "open run history")
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return lerrors.Wrap(err, lerrors.CategoryHistory, lerrors.SeverityError, "read run history")
	}
	if len(entries) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tOUTCOME\tPAGES\tRENDERED\tEXCLUDED\tFILES\tWARN\tERR\tDURATION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			e.StartedAt.Format(time.RFC3339), e.Outcome,
			e.Pages, e.Rendered, e.Excluded, e.FilesWritten,
			e.Warnings, e.Errors, e.Duration().Truncate(time.Millisecond))
	}
	return w.Flush()
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg, func(ctx context.Context, recorder metrics.Recorder) (*prerender.RunReport, error) {
		return buildOnce(ctx, cfg, recorder)
	})
	if err != nil {
		return lerrors.Wrap(err, lerrors.CategoryDaemon, lerrors.SeverityFatal, "start daemon")
	}

	if err := d.Run(ctx); err != nil {
		return lerrors.Wrap(err, lerrors.CategoryDaemon, lerrors.SeverityError, "daemon terminated")
	}
	return nil
}
