// Package metrics exposes triage outcomes as Prometheus series.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"DisasterTriage/internal/classifier"
	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/triage"
)

const namespace = "disaster_triage"

// Recorder implements triage.Observer on top of a private registry.
type Recorder struct {
	registry    *prometheus.Registry
	triaged     *prometheus.CounterVec
	failures    prometheus.Counter
	duplicates  prometheus.Counter
	byUrgency   *prometheus.CounterVec
	byLocation  *prometheus.CounterVec
	fitDuration *prometheus.HistogramVec
}

var _ triage.Observer = (*Recorder)(nil)

// NewRecorder registers every series on a fresh registry, together with the
// Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		triaged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_triaged_total",
			Help:      "Messages turned into triage records, by collector source.",
		}, []string{"source"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triage_failures_total",
			Help:      "Messages skipped because validation or triage failed.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_messages_total",
			Help:      "Incoming messages skipped because their id was already triaged.",
		}),
		byUrgency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_by_urgency_total",
			Help:      "Triage records by urgency level.",
		}, []string{"level"}),
		byLocation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_by_location_provenance_total",
			Help:      "Triage records by how their coordinates were obtained.",
		}, []string{"provenance"}),
		fitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_fit_duration_seconds",
			Help:      "Time spent fitting the disaster-type classifier.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"algorithm", "corpus"}),
	}
	r.registry.MustRegister(
		r.triaged, r.failures, r.duplicates, r.byUrgency, r.byLocation, r.fitDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Triaged counts a successfully built record.
func (r *Recorder) Triaged(record domain.TriageRecord) {
	r.triaged.WithLabelValues(string(record.Message.Source)).Inc()
	r.byUrgency.WithLabelValues(string(record.Urgency.Level)).Inc()
	r.byLocation.WithLabelValues(string(record.Location.Provenance)).Inc()
}

// Failed counts a skipped message.
func (r *Recorder) Failed(string, error) {
	r.failures.Inc()
}

// Duplicate counts an id that was already known.
func (r *Recorder) Duplicate(string) {
	r.duplicates.Inc()
}

// ObserveFit matches classifier.Options.OnFit.
func (r *Recorder) ObserveFit(m classifier.Metrics, took time.Duration) {
	r.fitDuration.WithLabelValues(string(m.Algorithm), string(m.CorpusKind)).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. for extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
