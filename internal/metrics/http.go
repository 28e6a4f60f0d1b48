package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// numericSegment matches ids in admin action paths, e.g. /admin/gallery/12/delete.
var numericSegment = regexp.MustCompile(`/[0-9]+(/|$)`)

// statusRecorder captures the status code and body size for the
// request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// normalizePath keeps the path label bounded: stored files collapse to one
// label, static assets to their top-level directory, ids become {id}.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/files/"):
		return "/files/{key}"
	case strings.HasPrefix(path, "/assets/"), strings.HasPrefix(path, "/images/"):
		return path[:strings.IndexByte(path[1:], '/')+2] + "*"
	}
	path = uuidPattern.ReplaceAllString(path, "{id}")
	return numericSegment.ReplaceAllString(path, "/{id}$1")
}

// Middleware records request count, latency, size and concurrency.
// /metrics and /health are not recorded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(sr, r)

		if sr.status == 0 {
			sr.status = http.StatusOK
		}
		path := normalizePath(r.URL.Path)

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sr.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(sr.size))
	})
}
