// Package metrics exposes Prometheus instruments for the extraction pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/deadline"
)

const namespace = "deadlines"

// Recorder holds every instrument. It satisfies deadline.Observer.
type Recorder struct {
	extractions   *prometheus.CounterVec
	candidates    *prometheus.CounterVec
	extractDur    *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	runDur        prometheus.Histogram
	calendar      *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	lastSuccessTS prometheus.Gauge
}

var _ deadline.Observer = (*Recorder)(nil)

// NewRecorder creates and registers the instruments on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Chunk extractions by strategy used and model outcome",
		}, []string{"strategy", "model"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Deduplicated candidates returned per strategy",
		}, []string{"strategy"}),
		extractDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent extracting one chunk",
			Buckets:   prometheus.ExponentialBuckets(0.005, 3, 8),
		}, []string{"strategy"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Document runs by terminal status",
		}, []string{"status"}),
		runDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end document processing time",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		calendar: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_events_total",
			Help:      "Calendar writes by backend and result",
		}, []string{"backend", "result"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting in the processing queue",
		}),
		lastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last successful run",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			r.extractions, r.candidates, r.extractDur,
			r.runs, r.runDur, r.calendar, r.queueDepth, r.lastSuccessTS,
		)
	}
	return r
}

func (r *Recorder) ObserveExtraction(strategy constants.Strategy, model deadline.Outcome, candidates int, elapsed time.Duration) {
	r.extractions.WithLabelValues(string(strategy), model.String()).Inc()
	r.candidates.WithLabelValues(string(strategy)).Add(float64(candidates))
	r.extractDur.WithLabelValues(string(strategy)).Observe(elapsed.Seconds())
}

// ObserveRun records a finished document run.
func (r *Recorder) ObserveRun(status constants.RunStatus, elapsed time.Duration) {
	r.runs.WithLabelValues(string(status)).Inc()
	r.runDur.Observe(elapsed.Seconds())
	if status != constants.RunStatusFailed {
		r.lastSuccessTS.SetToCurrentTime()
	}
}

// ObserveCalendar records one calendar write.
func (r *Recorder) ObserveCalendar(backend string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.calendar.WithLabelValues(backend, result).Inc()
}

func (r *Recorder) SetQueueDepth(n int) { r.queueDepth.Set(float64(n)) }

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
