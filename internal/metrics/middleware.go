package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API resources used as the "resource" label.
const (
	ResourceSearch      = "search"
	ResourceHistory     = "history"
	ResourceCollections = "collections"
	ResourceSystem      = "system"
	ResourceUnknown     = "unknown"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchai",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			// POST /search waits on the answer generator, so the tail is long.
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"resource", "method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchai",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"resource", "method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request duration and count per API resource and route pattern.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var pattern string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				pattern = rctx.RoutePattern()
			}
			path := normalizePath(pattern)
			labels := []string{resourceOf(path), r.Method, path, strconv.Itoa(status)}

			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

// normalizePath keeps label cardinality bounded: unmatched routes share one label.
func normalizePath(pattern string) string {
	if pattern == "" {
		return ResourceUnknown
	}
	return pattern
}

// resourceOf maps a route pattern to the API resource it serves.
func resourceOf(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	switch first {
	case ResourceSearch, ResourceHistory, ResourceCollections:
		return first
	case "", "health", "metrics":
		return ResourceSystem
	}
	return ResourceUnknown
}
