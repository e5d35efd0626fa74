package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notegen"

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	notesAdmitted      *prometheus.CounterVec
	admissionsRejected *prometheus.CounterVec
	admissionDuration  prometheus.Histogram
	statusLookups      *prometheus.CounterVec
	notesDeleted       *prometheus.CounterVec
	expiryRuns         *prometheus.CounterVec
	eventsPublished    *prometheus.CounterVec
	eventsProcessed    *prometheus.CounterVec
	eventQueueDepth    prometheus.Gauge
}

// NewPrometheus registers all collectors on a fresh registry,
// together with the Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		notesAdmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_admitted_total",
			Help:      "Note generation requests admitted, by quota tier.",
		}, []string{"tier"}),
		admissionsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_rejected_total",
			Help:      "Note generation requests rejected, by reason.",
		}, []string{"reason"}),
		admissionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "admission_duration_seconds",
			Help:      "Time spent admitting a note generation request.",
			Buckets:   prometheus.DefBuckets,
		}),
		statusLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_lookups_total",
			Help:      "Note status lookups, by result.",
		}, []string{"result"}),
		notesDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_deleted_total",
			Help:      "Notes deleted, by cause.",
		}, []string{"cause"}),
		expiryRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expiry_runs_total",
			Help:      "Expiry sweep attempts, by status.",
		}, []string{"status"}),
		eventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "note_events_published_total",
			Help:      "Note lifecycle events published, by status.",
		}, []string{"status"}),
		eventsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "note_events_processed_total",
			Help:      "Note lifecycle events consumed, by status.",
		}, []string{"status"}),
		eventQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "note_events_queue_depth",
			Help:      "Pending note lifecycle events in the consumer group.",
		}),
	}
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *PrometheusRecorder) IncNoteAdmitted(tier string) {
	p.notesAdmitted.WithLabelValues(tier).Inc()
}

func (p *PrometheusRecorder) IncAdmissionRejected(reason string) {
	p.admissionsRejected.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveAdmissionDuration(duration time.Duration) {
	p.admissionDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncStatusLookup(result string) {
	p.statusLookups.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) AddNotesDeleted(cause string, n int) {
	if n <= 0 {
		return
	}
	p.notesDeleted.WithLabelValues(cause).Add(float64(n))
}

func (p *PrometheusRecorder) IncExpiryRun(status string) {
	p.expiryRuns.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncNoteEventPublished(status string) {
	p.eventsPublished.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncNoteEventProcessed(status string) {
	p.eventsProcessed.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) SetNoteEventQueueDepth(depth int64) {
	p.eventQueueDepth.Set(float64(depth))
}
