package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds.
	latencyBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000,
	}

	RequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardgate_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guardgate_request_latency_ms",
			Help:    "Request latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"method", "endpoint"},
	)

	ValidatorLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guardgate_validator_latency_ms",
			Help:    "Per-validator evaluation latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"validator"},
	)

	ValidationTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardgate_validations_total",
			Help: "Validator executions by result",
		},
		[]string{"validator", "result"},
	)

	CacheHits = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardgate_cache_hits_total",
			Help: "Report cache hits",
		},
		[]string{"layer"},
	)

	CacheMisses = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardgate_cache_misses_total",
			Help: "Report cache misses",
		},
		[]string{"layer"},
	)

	RateLimited = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "guardgate_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func Initialize() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prometheus.DefaultRegisterer = registerer
	prometheus.DefaultGatherer = registry
}

// Registry exposes the service registry for the /metrics endpoint.
func Registry() *prometheus.Registry {
	return registry
}
