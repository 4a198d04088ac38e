package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/deadline"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveExtraction(constants.StrategyModel, deadline.OutcomeOK, 3, 10*time.Millisecond)
	r.ObserveExtraction(constants.StrategyRules, deadline.OutcomeUnavailable, 1, time.Millisecond)
	r.ObserveExtraction(constants.StrategyRules, deadline.OutcomeUnavailable, 2, time.Millisecond)

	if got := testutil.ToFloat64(r.extractions.WithLabelValues("rules", "unavailable")); got != 2 {
		t.Errorf("rules/unavailable = %v", got)
	}
	if got := testutil.ToFloat64(r.candidates.WithLabelValues("model")); got != 3 {
		t.Errorf("model candidates = %v", got)
	}
	if got := testutil.ToFloat64(r.candidates.WithLabelValues("rules")); got != 3 {
		t.Errorf("rules candidates = %v", got)
	}

	r.ObserveRun(constants.RunStatusSynced, time.Second)
	r.ObserveRun(constants.RunStatusFailed, time.Second)
	if got := testutil.ToFloat64(r.runs.WithLabelValues("FAILED")); got != 1 {
		t.Errorf("failed runs = %v", got)
	}
	if testutil.ToFloat64(r.lastSuccessTS) == 0 {
		t.Error("last success timestamp not set")
	}

	r.ObserveCalendar("google", nil)
	r.ObserveCalendar("google", errors.New("401"))
	if got := testutil.ToFloat64(r.calendar.WithLabelValues("google", "error")); got != 1 {
		t.Errorf("calendar errors = %v", got)
	}

	r.SetQueueDepth(4)
	if got := testutil.ToFloat64(r.queueDepth); got != 4 {
		t.Errorf("queue depth = %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.ObserveRun(constants.RunStatusSynced, time.Second)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `deadlines_runs_total{status="SYNCED"} 1`) {
		t.Fatalf("metrics output missing runs counter:\n%s", body)
	}
}
