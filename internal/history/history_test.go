package history

import (
	"errors"
	"testing"
	"time"

	"git.home.luguber.info/inful/litho/internal/prerender"
)

func finishedReport(pages, rendered int) *prerender.RunReport {
	r := prerender.NewRunReport(pages)
	r.Contexts = rendered
	r.Rendered = rendered
	r.Finish()
	r.DeriveOutcome()
	return r
}

func TestHistoryRecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()

	first := finishedReport(3, 3)
	second := finishedReport(5, 4)
	second.Warnings = append(second.Warnings, errors.New("one page missing"))
	second.DeriveOutcome()
	second.Partial = true
	second.SourceFingerprint = "abc123"

	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("record first run: %v", err)
	}
	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("record second run: %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first.
	got := entries[0]
	if got.RunID != second.RunID {
		t.Errorf("expected run_id %s, got %s", second.RunID, got.RunID)
	}
	if got.Outcome != "warning" {
		t.Errorf("expected outcome warning, got %s", got.Outcome)
	}
	if got.Pages != 5 || got.Rendered != 4 {
		t.Errorf("expected pages=5 rendered=4, got pages=%d rendered=%d", got.Pages, got.Rendered)
	}
	if got.Warnings != 1 {
		t.Errorf("expected 1 warning, got %d", got.Warnings)
	}
	if !got.Partial {
		t.Errorf("expected partial run")
	}
	if got.Fingerprint != "abc123" {
		t.Errorf("expected fingerprint abc123, got %s", got.Fingerprint)
	}
	if entries[1].RunID != first.RunID {
		t.Errorf("expected oldest entry last, got %s", entries[1].RunID)
	}
}

func TestHistoryRecentHonorsLimit(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	for range 5 {
		if err := store.Record(ctx, finishedReport(1, 1)); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}

	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestHistoryByRunID(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	report := finishedReport(2, 2)
	if err := store.Record(ctx, report); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := store.Record(ctx, finishedReport(1, 1)); err != nil {
		t.Fatalf("record other run: %v", err)
	}

	entries, err := store.ByRunID(ctx, report.RunID)
	if err != nil {
		t.Fatalf("by run id: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].RunID != report.RunID {
		t.Errorf("expected run_id %s, got %s", report.RunID, entries[0].RunID)
	}
	if entries[0].Duration() < 0 {
		t.Errorf("expected non-negative duration, got %s", entries[0].Duration())
	}
}

func TestHistoryTimesRoundTripAsUnixSeconds(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	report := finishedReport(1, 1)
	if err := store.Record(ctx, report); err != nil {
		t.Fatalf("record run: %v", err)
	}

	entries, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].StartedAt.Unix() != report.Start.Truncate(time.Second).Unix() {
		t.Errorf("expected started_at %d, got %d", report.Start.Unix(), entries[0].StartedAt.Unix())
	}
}
