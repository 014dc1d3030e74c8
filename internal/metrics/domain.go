package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Domain Prometheus metrics.
var (
	SearchExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchai",
			Name:      "search_executions_total",
			Help:      "Total number of executed searches",
		},
		[]string{"focus", "status"}, // status: "persisted" / "anonymous" / "error"
	)

	GeneratorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchai",
			Name:      "generator_duration_seconds",
			Help:      "Answer generator request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model"},
	)

	GeneratorTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchai",
			Name:      "generator_tokens_total",
			Help:      "Total tokens consumed by the answer generator",
		},
		[]string{"provider", "model"},
	)

	GeneratorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchai",
			Name:      "generator_errors_total",
			Help:      "Total answer generator errors",
		},
		[]string{"provider", "model"},
	)

	HistoryCleanupDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchai",
			Name:      "history_cleanup_deleted_total",
			Help:      "Search records removed by retention cleanup",
		},
	)

	HistoryClearedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchai",
			Name:      "history_cleared_total",
			Help:      "Search records removed by clearing a whole history",
		},
	)

	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchai",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"limiter"},
	)
)

var registerDomain sync.Once

// RegisterDomainMetrics registers the domain metrics once. Called from main and tests.
func RegisterDomainMetrics() {
	registerDomain.Do(func() {
		prometheus.MustRegister(
			SearchExecutionsTotal,
			GeneratorRequestDuration,
			GeneratorTokensTotal,
			GeneratorErrorsTotal,
			HistoryCleanupDeletedTotal,
			HistoryClearedTotal,
			RateLimitedTotal,
		)
	})
}
