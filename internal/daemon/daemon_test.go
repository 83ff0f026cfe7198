package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/litho/internal/config"
	"git.home.luguber.info/inful/litho/internal/metrics"
	"git.home.luguber.info/inful/litho/internal/prerender"
)

func succeedingRun(pages int) RunFunc {
	return func(_ context.Context, _ metrics.Recorder) (*prerender.RunReport, error) {
		r := prerender.NewRunReport(pages)
		r.Rendered = pages
		r.Finish()
		r.DeriveOutcome()
		return r, nil
	}
}

func TestNew_RequiresConfigAndRunFunc(t *testing.T) {
	_, err := New(nil, succeedingRun(1))
	require.Error(t, err)

	_, err = New(config.Default(), nil)
	require.Error(t, err)
}

func TestRunOnce_TracksOutcome(t *testing.T) {
	d, err := New(config.Default(), succeedingRun(2))
	require.NoError(t, err)

	d.runOnce(context.Background())

	assert.Equal(t, int64(1), d.runsTotal.Load())
	assert.Equal(t, int64(0), d.runsFailed.Load())
	assert.Equal(t, "success", d.lastOutcome.Load())
	assert.Positive(t, d.lastRunUnix.Load())
}

func TestRunOnce_CountsFailures(t *testing.T) {
	failing := func(_ context.Context, _ metrics.Recorder) (*prerender.RunReport, error) {
		return nil, errors.New("boom")
	}
	d, err := New(config.Default(), failing)
	require.NoError(t, err)

	d.runOnce(context.Background())

	assert.Equal(t, int64(1), d.runsTotal.Load())
	assert.Equal(t, int64(1), d.runsFailed.Load())
	assert.Equal(t, "failed", d.lastOutcome.Load())
}

func TestRunOnce_SkipsWhenCanceled(t *testing.T) {
	called := false
	d, err := New(config.Default(), func(_ context.Context, _ metrics.Recorder) (*prerender.RunReport, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.runOnce(ctx)

	assert.False(t, called)
	assert.Equal(t, int64(0), d.runsTotal.Load())
}

func TestHandleHealth_ReportsLastRun(t *testing.T) {
	d, err := New(config.Default(), succeedingRun(1))
	require.NoError(t, err)
	d.runOnce(context.Background())

	rec := httptest.NewRecorder()
	d.handleHealth(rec, httptest.NewRequest("GET", "/healthz", nil))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "success", body["last_outcome"])
	assert.Equal(t, float64(1), body["runs"])
	assert.NotEmpty(t, body["last_run"])
}
