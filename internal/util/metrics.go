package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FlashOrdersDraftedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flash_orders_drafted_total",
		Help: "Total number of flash orders created in DRAFT",
	})

	FlashOrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flash_orders_completed_total",
		Help: "Total number of flash orders completed to PENDING",
	})

	FlashOrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flash_orders_rejected_total",
		Help: "Total number of rejected flash order operations",
	}, []string{"reason"})

	PricingFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_failures_total",
		Help: "Total number of failed price resolutions",
	}, []string{"reason"})

	PriceCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_cache_hits_total",
		Help: "Total number of price table cache hits",
	})

	PriceCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_cache_misses_total",
		Help: "Total number of price table cache misses",
	})

	OrderCompletionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_completion_latency_seconds",
		Help:    "Latency of the flash order complete transition",
		Buckets: prometheus.DefBuckets,
	})

	CommissionsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commissions_recorded_total",
		Help: "Total number of affiliate commissions recorded",
	})

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
