package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carevia"

// HTTP metrics, recorded by Middleware.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, normalized path and status code.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response body size.",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})
)

// Access control metrics
var (
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by outcome",
		},
		[]string{"outcome"}, // success, invalid, unauthorized, unavailable, conflict
	)

	IdentityCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "identity_call_duration_seconds",
			Help:      "Latency of calls to the external identity service",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	RouteGuardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_guard_decisions_total",
			Help:      "Total number of route guard decisions on protected paths",
		},
		[]string{"decision"}, // allow, redirect
	)
)

// Content metrics
var (
	ContactsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_submitted_total",
			Help:      "Total number of contact form submissions stored",
		},
	)

	GalleryUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gallery_uploads_total",
			Help:      "Total number of gallery image uploads",
		},
		[]string{"status"},
	)
)

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
