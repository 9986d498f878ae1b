package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SourceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_source_fetches_total",
		Help: "Total number of catalog source fetches",
	}, []string{"source", "result"})

	SourceFetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_source_fetch_latency_seconds",
		Help:    "Latency of catalog source fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	StaleResponsesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_stale_responses_discarded_total",
		Help: "Responses discarded because a later fetch superseded them",
	}, []string{"source"})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"op", "result"})

	WishlistMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishlist_mutations_total",
		Help: "Total number of wishlist mutations",
	}, []string{"op", "result"})

	EntitlementChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_checks_total",
		Help: "Total number of entitlement checks",
	}, []string{"result"})

	OrderCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_cache_lookups_total",
		Help: "Order history cache lookups",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
