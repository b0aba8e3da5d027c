// Package metrics provides Prometheus metrics for the collection core.
// Scrape these at /metrics for dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "binder_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Valuation Metrics
	RecomputesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "binder_valuation_recomputes_total",
			Help: "Total number of collection value recomputes",
		},
	)

	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "binder_valuation_recompute_duration_seconds",
			Help:    "Time taken to recompute a collection's total value",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	UnknownPriceRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "binder_valuation_unknown_price_rows",
			Help: "Rows with no resolvable price seen during the last recompute",
		},
	)

	CollectionValueUSD = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "binder_collection_value_usd",
			Help: "Estimated collection value in USD",
		},
		[]string{"collection_id"},
	)

	// Price Cache Metrics
	PriceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "binder_price_cache_hits_total",
			Help: "In-memory price cache hit count",
		},
	)

	PriceCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "binder_price_cache_misses_total",
			Help: "In-memory price cache miss count",
		},
	)

	PriceRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binder_price_refreshes_total",
			Help: "Vendor payload refresh attempts by result",
		},
		[]string{"result"}, // "updated", "fresh", "failed"
	)

	// Card Catalog API Metrics
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binder_catalog_requests_total",
			Help: "Card catalog API requests by result",
		},
		[]string{"result"}, // "success", "not_found", "error"
	)

	// History Metrics
	HistoryUpsertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "binder_history_upserts_total",
			Help: "Total number of history point upserts",
		},
	)

	HistoryEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "binder_history_evictions_total",
			Help: "History points evicted by the retention cap",
		},
	)

	HistoryOrphansSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "binder_history_orphans_swept_total",
			Help: "Orphaned history documents removed by the reconciliation sweep",
		},
	)
)
