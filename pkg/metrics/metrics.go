package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is served on /api/metrics
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// latencyBuckets span fast cache reads up to slow multi-image uploads
var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

var httpLabels = []string{"http_request_method", "http_route", "http_response_status_code"}

// HTTP server
var (
	HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: latencyBuckets,
	}, httpLabels)

	HTTPRequestTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_request_total",
		Help: "Total number of HTTP requests",
	}, httpLabels)

	ActiveRequests = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_server_active_requests",
		Help: "Number of in-flight HTTP requests",
	}, []string{"http_request_method"})
)

// Backing service clients, labelled by operation and status
var (
	DBRequestDuration, DBRequestTotal           = clientOperation("db_client", "Database client")
	StorageRequestDuration, StorageRequestTotal = clientOperation("storage_client", "Object storage client")
)

// Caches, labelled by cache_name
var (
	CacheHits   = cacheCounter("cache_hits_total", "Total number of cache hits")
	CacheMisses = cacheCounter("cache_misses_total", "Total number of cache misses")
	CacheSize   = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cache_entries",
		Help: "Number of entries in cache",
	}, []string{"cache_name"})
)

// Portfolio forms
var (
	PortfolioCreations    = businessCounter("portfolio_creations_total", "Portfolio create operations by status", "status")
	PortfolioImageUploads = businessCounter("portfolio_image_uploads_total", "Portfolio image uploads by status", "status")
	FormSubmissions       = businessCounter("portfolio_form_submissions_total", "Portfolio form submit attempts by outcome", "outcome")
	Notifications         = businessCounter("portfolio_notifications_total", "User notifications emitted by portfolio forms", "level")

	FormSessions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "getmentor",
		Name:      "portfolio_form_sessions",
		Help:      "Number of open portfolio form sessions",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

func clientOperation(prefix, subject string) (*prometheus.HistogramVec, *prometheus.CounterVec) {
	labels := []string{"operation", "status"}
	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prefix + "_operation_duration_seconds",
		Help:    subject + " operation duration in seconds",
		Buckets: latencyBuckets,
	}, labels)
	total := factory.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "_operation_total",
		Help: "Total number of " + subject + " operations",
	}, labels)
	return duration, total
}

func cacheCounter(name, help string) *prometheus.CounterVec {
	return factory.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{"cache_name"})
}

func businessCounter(name, help, label string) *prometheus.CounterVec {
	return factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "getmentor",
		Name:      name,
		Help:      help,
	}, []string{label})
}

// MeasureDuration returns the seconds elapsed since start
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
