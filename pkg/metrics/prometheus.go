package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"Horacle/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions  *prometheus.CounterVec
	events       prometheus.Counter
	degradations *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "horacle_predictions_total",
				Help: "Prediction runs by outcome",
			},
			[]string{"outcome"},
		),
		events: f.NewCounter(
			prometheus.CounterOpts{
				Name: "horacle_events_emitted_total",
				Help: "Event records emitted by prediction runs",
			},
		),
		degradations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "horacle_degradations_total",
				Help: "Degradations experienced by prediction runs",
			},
			[]string{"kind"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "horacle_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "horacle_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts a finished run.
func (r *Recorder) RecordPrediction(outcome string) {
	r.predictions.WithLabelValues(outcome).Inc()
}

// RecordEvents counts emitted records.
func (r *Recorder) RecordEvents(n int) {
	if n > 0 {
		r.events.Add(float64(n))
	}
}

// RecordDegradation counts a degradation. Count suffixes such as
// "dates_skipped:4" are dropped to keep label cardinality fixed.
func (r *Recorder) RecordDegradation(kind string) {
	if i := strings.IndexByte(kind, ':'); i >= 0 {
		kind = kind[:i]
	}
	r.degradations.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

var _ repository.Metrics = Nop{}

func (Nop) RecordPrediction(string) {}
func (Nop) RecordEvents(int) {}
func (Nop) RecordDegradation(string) {}
func (Nop) RecordError(string) {}
func (Nop) RecordLatency(string, float64) {}
