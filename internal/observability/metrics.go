package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	submissionsUploaded  *prometheus.CounterVec
	gradedSubmissions    *prometheus.CounterVec
	gradingFailures      *prometheus.CounterVec
	galleryCacheRequests *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pergi_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pergi_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pergi_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsUploaded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pergi_submissions_uploaded_total",
			Help: "Total number of submission files uploaded by teachers.",
		}, []string{"handwriting"})

		gradedSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pergi_graded_submissions_total",
			Help: "Total number of submissions graded successfully.",
		}, []string{"model"})

		gradingFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pergi_grading_failures_total",
			Help: "Total number of submissions that failed grading.",
		}, []string{"reason"})

		galleryCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pergi_gallery_cache_requests_total",
			Help: "Gallery lookups split by cache outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsUploaded,
			gradedSubmissions,
			gradingFailures,
			galleryCacheRequests,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for served requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SubmissionsUploaded exposes the counter for uploaded submission files.
func SubmissionsUploaded() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsUploaded
}

// GradedSubmissions exposes the counter for successful grades.
func GradedSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return gradedSubmissions
}

// GradingFailures exposes the counter for failed grading attempts.
func GradingFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingFailures
}

// GalleryCacheRequests exposes the counter for gallery cache outcomes.
func GalleryCacheRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return galleryCacheRequests
}

// MetricsHandler serves the Prometheus scrape endpoint through Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
