// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// requestDuration tracks HTTP latency by route template.
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "natours_http_request_duration_seconds",
		Help:    "Histogram of HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// authEvents counts login, signup, reset and protect outcomes.
	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natours_auth_events_total",
		Help: "Total number of authentication events by event and outcome",
	}, []string{"event", "outcome"})

	// errorsTotal counts translated error responses by kind.
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natours_errors_total",
		Help: "Total number of error responses by kind",
	}, []string{"kind"})
)

// RecordRequest records a completed request.
func RecordRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordAuthEvent counts an authentication event. outcome is "success" or "failure".
func RecordAuthEvent(event, outcome string) {
	authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordError counts an error response of kind.
func RecordError(kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
