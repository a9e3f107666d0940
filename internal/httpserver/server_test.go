package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/httpserver"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/observability"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/pipeline"
)

type fakeStatus struct {
	err    error
	report *pipeline.Report
}

func (f *fakeStatus) CheckReadiness(_ context.Context) error { return f.err }

func (f *fakeStatus) LastReport() (pipeline.Report, bool) {
	if f.report == nil {
		return pipeline.Report{}, false
	}
	return *f.report, true
}

var lastRun = &pipeline.Report{
	StartedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
	Duration:  time.Second,
	Region: merra2.Region{
		SouthWest: merra2.GridPoint{Lat: 228, Lon: 88},
		NorthEast: merra2.GridPoint{Lat: 280, Lon: 182},
	},
	Variables: []pipeline.VariableReport{
		{Variable: "T2M", Files: 366, Parsed: 365, Skipped: 1},
		{Variable: "PS", Files: 366, Parsed: 366},
	},
}

func serve(t *testing.T, status *fakeStatus, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := httpserver.NewServer(":0", status, prometheus.NewRegistry(), slog.Default())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	rec := serve(t, &fakeStatus{err: errors.New("not yet")}, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "alive", decode(t, rec)["status"])
}

func TestReadyz(t *testing.T) {
	rec := serve(t, &fakeStatus{report: lastRun}, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "2024-03-01T06:00:00Z", body["last_run"])
}

func TestReadyz_BeforeFirstRun(t *testing.T) {
	rec := serve(t, &fakeStatus{err: errors.New("pipeline has not completed a run yet")}, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "waiting for first run", body["status"])
	assert.Equal(t, "pipeline has not completed a run yet", body["error"])
	assert.NotContains(t, body, "last_run")
}

func TestReport(t *testing.T) {
	rec := serve(t, &fakeStatus{report: lastRun}, "/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var got pipeline.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *lastRun, got)
}

func TestReport_Variable(t *testing.T) {
	rec := serve(t, &fakeStatus{report: lastRun}, "/report?variable=T2M")
	require.Equal(t, http.StatusOK, rec.Code)

	var got pipeline.VariableReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, lastRun.Variables[0], got)

	rec = serve(t, &fakeStatus{report: lastRun}, "/report?variable=QV2M")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "QV2M", decode(t, rec)["error"])
}

func TestReport_NoRun(t *testing.T) {
	rec := serve(t, &fakeStatus{}, "/report")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no completed run", decode(t, rec)["status"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsForTesting()
	reg.MustRegister(metrics.Runs)
	metrics.Runs.WithLabelValues("success").Inc()

	srv := httpserver.NewServer(":0", &fakeStatus{}, reg, slog.Default())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `merra2_runs_total{outcome="success"} 1`)
}
