// Package metrics provides Prometheus metrics for the monopad rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Rating metrics
	ratingChanges     *prometheus.CounterVec
	ratingNoops       *prometheus.CounterVec
	triggersDuplicate prometheus.Counter
	persistErrors     prometheus.Counter
	entitiesTotal     prometheus.Gauge

	// Sequencer metrics
	queueDepth   prometheus.Gauge
	jobs         *prometheus.CounterVec
	jobDuration  prometheus.Histogram
	stepsSkipped *prometheus.CounterVec
	dismissals   *prometheus.CounterVec

	// Presentation metrics
	audioFailures  *prometheus.CounterVec
	overlayClients prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// sequenceBuckets cover the animation lengths, 0 to roughly 3s.
var sequenceBuckets = []float64{100, 250, 500, 900, 1000, 1500, 2000, 2500, 3000, 5000}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors land on the default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "monopad",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.ratingChanges = auto.NewCounterVec(
		m.counterOpts("rating_changes_total", "Rating transitions applied, by transition kind"),
		[]string{"kind"},
	)
	m.ratingNoops = auto.NewCounterVec(
		m.counterOpts("rating_noops_total", "Rating changes clamped at a bound, by direction"),
		[]string{"direction"},
	)
	m.triggersDuplicate = auto.NewCounter(
		m.counterOpts("triggers_duplicate_total", "Trigger signatures ignored because they were already applied"),
	)
	m.persistErrors = auto.NewCounter(
		m.counterOpts("persist_errors_total", "Rating changes whose persistence failed"),
	)
	m.entitiesTotal = auto.NewGauge(
		m.gaugeOpts("entities_total", "Entities on the roster"),
	)

	m.queueDepth = auto.NewGauge(
		m.gaugeOpts("sequencer_queue_depth", "Animation jobs waiting behind the current one"),
	)
	m.jobs = auto.NewCounterVec(
		m.counterOpts("sequencer_jobs_total", "Animation jobs completed, by transition kind"),
		[]string{"kind"},
	)
	m.jobDuration = auto.NewHistogram(
		m.histogramOpts("sequencer_job_duration_milliseconds", "Time from job start to its done signal", sequenceBuckets),
	)
	m.stepsSkipped = auto.NewCounterVec(
		m.counterOpts("sequencer_steps_skipped_total", "Animation steps aborted by a render error, by transition kind"),
		[]string{"kind"},
	)
	m.dismissals = auto.NewCounterVec(
		m.counterOpts("overlay_dismissals_total", "Lingering overlays dismissed, by how they were dismissed"),
		[]string{"reason"},
	)

	m.audioFailures = auto.NewCounterVec(
		m.counterOpts("audio_failures_total", "Swallowed audio playback failures, by category"),
		[]string{"category"},
	)
	m.overlayClients = auto.NewGauge(
		m.gaugeOpts("overlay_clients", "Connected overlay websocket clients"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordRatingChange counts an applied transition.
func RecordRatingChange(kind string) {
	globalManager.ratingChanges.WithLabelValues(kind).Inc()
}

// RecordRatingNoop counts a change absorbed by a bound.
func RecordRatingNoop(direction string) {
	globalManager.ratingNoops.WithLabelValues(direction).Inc()
}

// RecordTriggerDuplicate counts a replayed trigger signature.
func RecordTriggerDuplicate() {
	globalManager.triggersDuplicate.Inc()
}

// RecordPersistError counts a failed save of a changed rating.
func RecordPersistError() {
	globalManager.persistErrors.Inc()
}

// UpdateEntitiesTotal sets the roster size.
func UpdateEntitiesTotal(count int) {
	globalManager.entitiesTotal.Set(float64(count))
}

// UpdateQueueDepth sets the number of pending animation jobs.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// RecordSequencerJob counts a completed job and its duration.
func RecordSequencerJob(kind string, durationMs float64) {
	globalManager.jobs.WithLabelValues(kind).Inc()
	globalManager.jobDuration.Observe(durationMs)
}

// RecordStepSkipped counts a step aborted by a render error.
func RecordStepSkipped(kind string) {
	globalManager.stepsSkipped.WithLabelValues(kind).Inc()
}

// RecordDismissal counts a dismissed overlay. reason is "click" or "superseded".
func RecordDismissal(reason string) {
	globalManager.dismissals.WithLabelValues(reason).Inc()
}

// RecordAudioFailure counts a swallowed playback failure.
func RecordAudioFailure(category string) {
	globalManager.audioFailures.WithLabelValues(category).Inc()
}

// UpdateOverlayClients sets the connected overlay client count.
func UpdateOverlayClients(count int) {
	globalManager.overlayClients.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
