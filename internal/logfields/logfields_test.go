package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"RunID", KeyRunID, "123", RunID("123")},
		{"Stage", KeyStage, "render", Stage("render")},
		{"URL", KeyURL, "/blog", URL("/blog")},
		{"PageID", KeyPageID, "/pages/blog", PageID("/pages/blog")},
		{"Path", KeyPath, "dist/client/blog/index.html", Path("dist/client/blog/index.html")},
		{"File", KeyFile, "index.md", File("index.md")},
		{"SourceFile", KeySourceFile, "pages/movies.md", SourceFile("pages/movies.md")},
		{"Outcome", KeyOutcome, "success", Outcome("success")},
		{"ScheduleName", KeySchedule, "prerender", ScheduleName("prerender")},
		{"Subject", KeySubject, "litho.runs", Subject("litho.runs")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if got := a.Value.String(); got != tc.attrVal { // Value is slog.Value
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Count(5); v.Key != KeyCount {
		t.Fatalf("Count key mismatch: %s", v.Key)
	}
	if v := Parallel(8); v.Key != KeyParallel {
		t.Fatalf("Parallel key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
