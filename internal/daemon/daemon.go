// Package daemon runs litho as a long-lived process. A scheduler re-renders
// the site on a fixed interval, Prometheus metrics are served over HTTP, and
// run summaries are optionally published to NATS.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/litho/internal/config"
	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/metrics"
	"git.home.luguber.info/inful/litho/internal/prerender"
)

// RunFunc executes one prerender run and returns its report. The daemon's
// Prometheus recorder is passed in so runs land in the served metrics.
type RunFunc func(ctx context.Context, recorder metrics.Recorder) (*prerender.RunReport, error)

// Daemon re-renders the site periodically and exposes run metrics.
type Daemon struct {
	cfg       *config.Config
	run       RunFunc
	scheduler *Scheduler
	publisher *Publisher
	registry  *prom.Registry
	recorder  *metrics.PrometheusRecorder

	running     atomic.Bool
	runsTotal   atomic.Int64
	runsFailed  atomic.Int64
	lastRunUnix atomic.Int64
	lastOutcome atomic.Value // string
}

// New assembles a daemon from the configuration. The NATS publisher is only
// created when daemon.nats_url is set.
func New(cfg *config.Config, run RunFunc) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if run == nil {
		return nil, fmt.Errorf("run function is required")
	}

	scheduler, err := NewScheduler()
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:       cfg,
		run:       run,
		scheduler: scheduler,
		registry:  prom.NewRegistry(),
	}
	d.recorder = metrics.NewPrometheusRecorder(d.registry)
	d.registry.MustRegister(
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
		prom.NewGaugeFunc(prom.GaugeOpts{
			Namespace: "litho",
			Name:      "daemon_last_run_timestamp_seconds",
			Help:      "Unix time of the most recent completed run",
		}, func() float64 { return float64(d.lastRunUnix.Load()) }),
		prom.NewCounterFunc(prom.CounterOpts{
			Namespace: "litho",
			Name:      "daemon_runs_total",
			Help:      "Runs executed by the daemon",
		}, func() float64 { return float64(d.runsTotal.Load()) }),
		prom.NewCounterFunc(prom.CounterOpts{
			Namespace: "litho",
			Name:      "daemon_runs_failed_total",
			Help:      "Runs that ended with a fatal error",
		}, func() float64 { return float64(d.runsFailed.Load()) }),
	)

	if cfg.Daemon.NATSUrl != "" {
		publisher, err := NewPublisher(cfg.Daemon.NATSUrl, cfg.Daemon.NATSSubject)
		if err != nil {
			return nil, err
		}
		d.publisher = publisher
	}

	return d, nil
}

// Run executes the daemon until ctx is canceled: one immediate prerender,
// then one per configured interval, with /metrics and /healthz served on
// daemon.listen.
func (d *Daemon) Run(ctx context.Context) error {
	interval := d.cfg.DaemonInterval()
	if _, err := d.scheduler.ScheduleEvery("prerender", interval, func() {
		d.runOnce(ctx)
	}); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/healthz", d.handleHealth)
	server := &http.Server{
		Addr:              d.cfg.Daemon.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("daemon HTTP server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	d.scheduler.Start(ctx)
	slog.Info("daemon started", slog.Duration("interval", interval))

	d.runOnce(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("daemon shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("daemon HTTP server: %w", err)
		slog.Error("daemon HTTP server failed", logfields.Error(err))
	}

	return errors.Join(runErr, d.shutdown(server))
}

func (d *Daemon) shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := d.scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop HTTP server: %w", err))
	}
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("drain NATS: %w", err))
		}
	}
	return errors.Join(errs...)
}

// runOnce executes a single prerender run, skipping if one is in flight.
func (d *Daemon) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !d.running.CompareAndSwap(false, true) {
		slog.Warn("previous run still in progress, skipping scheduled run")
		return
	}
	defer d.running.Store(false)

	report, err := d.run(ctx, d.recorder)
	d.runsTotal.Add(1)
	d.lastRunUnix.Store(time.Now().Unix())

	if err != nil {
		d.runsFailed.Add(1)
		slog.Error("scheduled run failed", logfields.Error(err))
	}
	if report == nil {
		d.lastOutcome.Store(string(prerender.OutcomeFailed))
		return
	}
	d.lastOutcome.Store(string(report.Outcome))

	if d.publisher != nil {
		if pubErr := d.publisher.PublishRun(ctx, report); pubErr != nil {
			slog.Warn("failed to publish run event", logfields.Error(pubErr))
		}
	}
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"running": d.running.Load(),
		"runs":    d.runsTotal.Load(),
	}
	if v, ok := d.lastOutcome.Load().(string); ok && v != "" {
		resp["last_outcome"] = v
	}
	if ts := d.lastRunUnix.Load(); ts > 0 {
		resp["last_run"] = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("failed to encode health response", logfields.Error(err))
	}
}
