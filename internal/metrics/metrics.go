package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Build pipeline
	BuildRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gasless_build_requests_total",
			Help: "Total number of sponsored transaction builds by outcome",
		},
		[]string{"outcome"},
	)

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gasless_build_duration_seconds",
		Help:    "End-to-end sponsored transaction build duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gasless_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"stage"},
	)

	LookupTablesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gasless_lookup_tables_dropped_total",
		Help: "Lookup tables requested by the router but absent or inactive on chain",
	})

	TransactionSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gasless_transaction_size_bytes",
		Help:    "Serialized size of sponsored transactions",
		Buckets: []float64{400, 600, 800, 1000, 1100, 1200, 1232},
	})

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gasless_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gasless_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
