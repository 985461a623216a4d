// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visamate_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visamate_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visamate_sessions_started_total",
			Help: "Wizard sessions created",
		},
	)

	AnswersMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visamate_answers_merged_total",
			Help: "Individual answers accepted into the answer store",
		},
	)

	FormsFilled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visamate_forms_filled_total",
			Help: "Forms auto-filled by form type and validity",
		},
		[]string{"form_type", "valid"},
	)

	EligibilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visamate_eligibility_checks_total",
			Help: "Eligibility evaluations by outcome",
		},
		[]string{"eligible"},
	)

	OCRDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visamate_ocr_documents_total",
			Help: "Documents run through OCR by detected type and outcome",
		},
		[]string{"document_type", "status"},
	)

	OCRDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "visamate_ocr_duration_seconds",
			Help:    "Time from upload completion to mapped fields",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	SOPGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visamate_sop_generated_total",
			Help: "Statements of purpose generated by quality outcome",
		},
		[]string{"meets_requirements"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visamate_upstream_errors_total",
			Help: "Failed calls to external services",
		},
		[]string{"service"},
	)
)

// Bool renders b as a label value.
func Bool(b bool) string {
	return strconv.FormatBool(b)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
