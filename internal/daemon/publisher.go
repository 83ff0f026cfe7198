package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/prerender"
	"git.home.luguber.info/inful/litho/internal/retry"
)

// RunEvent is the JSON payload published to NATS after every prerender run.
type RunEvent struct {
	RunID        string    `json:"run_id"`
	Outcome      string    `json:"outcome"`
	Pages        int       `json:"pages"`
	Contexts     int       `json:"contexts"`
	Rendered     int       `json:"rendered"`
	Excluded     int       `json:"excluded"`
	FilesWritten int       `json:"files_written"`
	Warnings     int       `json:"warnings"`
	Errors       int       `json:"errors"`
	DurationMS   int64     `json:"duration_ms"`
	Partial      bool      `json:"partial,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewRunEvent summarizes a report for publication.
func NewRunEvent(report *prerender.RunReport) RunEvent {
	return RunEvent{
		RunID:        report.RunID,
		Outcome:      string(report.Outcome),
		Pages:        report.Pages,
		Contexts:     report.Contexts,
		Rendered:     report.Rendered,
		Excluded:     report.Excluded,
		FilesWritten: report.FilesWritten,
		Warnings:     len(report.Warnings),
		Errors:       len(report.Errors),
		DurationMS:   report.Duration().Milliseconds(),
		Partial:      report.Partial,
		Timestamp:    time.Now().UTC(),
	}
}

// Publisher pushes run summaries to a NATS subject. Publishes are retried
// with backoff since the connection may be mid-reconnect when a run finishes.
type Publisher struct {
	conn    *nats.Conn
	subject string
	policy  retry.Policy
}

// NewPublisher connects to NATS and returns a publisher for the subject.
func NewPublisher(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized",
		slog.String("url", url),
		logfields.Subject(subject))

	return &Publisher{conn: conn, subject: subject, policy: retry.DefaultPolicy()}, nil
}

// PublishRun publishes a run summary event.
func (p *Publisher) PublishRun(ctx context.Context, report *prerender.RunReport) error {
	event := NewRunEvent(report)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal run event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying run event publish",
				logfields.Subject(p.subject),
				slog.Int("attempt", attempt))
		}
		if lastErr = p.conn.Publish(p.subject, data); lastErr == nil {
			slog.Debug("published run event",
				logfields.RunID(event.RunID),
				logfields.Outcome(event.Outcome),
				logfields.Subject(p.subject))
			return nil
		}
		if attempt == p.policy.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.policy.Delay(attempt + 1)):
		}
	}
	return fmt.Errorf("failed to publish run event after retries: %w", lastErr)
}

// Close drains the connection so queued events get delivered before exit.
func (p *Publisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
