package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Upstream provider call rate. Watch for: error vs success ratio per provider.
	ProviderCallsTotal *prometheus.CounterVec

	// Upstream provider latency. Watch for: p95 > 2s (upstream degradation).
	ProviderDuration *prometheus.HistogramVec

	// Primary -> secondary failovers. Watch for: sustained nonzero rate (primary down).
	ProviderFailoverTotal prometheus.Counter

	// Cache hits by tier (memory, durable, offline). Hit rate is the quota lever:
	// every hit is an upstream call not spent.
	CacheHitsTotal *prometheus.CounterVec

	// Cache misses that reached the fetch path.
	CacheMissesTotal prometheus.Counter

	// Requests that joined an already in-flight fetch instead of starting one.
	DedupSharedTotal prometheus.Counter

	// Durable-store read/write failures. Always soft; watch for growth (quota, corruption).
	PersistenceWarningsTotal *prometheus.CounterVec

	// Daily quota threshold crossings, level = warn|critical. Advisory only.
	UsageThresholdTotal *prometheus.CounterVec

	// Calls recorded against the daily quota.
	UsageCallsToday prometheus.Gauge

	// Entries removed by the expiry sweep, store = cache|offline.
	SweepRemovedTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total upstream weather/geocode API calls",
		},
		[]string{"provider", "status"},
	)
	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerDurationSeconds",
			Help:    "Upstream API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)
	ProviderFailoverTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "providerFailoverTotal",
			Help: "Fetches that fell back from the primary to the secondary provider",
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Cache hits by tier",
		},
		[]string{"tier"},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Cache misses that reached the upstream fetch path",
		},
	)
	DedupSharedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedupSharedTotal",
			Help: "Calls served by joining an already in-flight request",
		},
	)
	PersistenceWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistenceWarningsTotal",
			Help: "Durable-store failures treated as cache miss / no-op write",
		},
		[]string{"op"},
	)
	UsageThresholdTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usageThresholdTotal",
			Help: "Daily quota threshold crossings (advisory, never blocking)",
		},
		[]string{"level"},
	)
	UsageCallsToday = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "usageCallsToday",
			Help: "API calls recorded against today's quota",
		},
	)
	SweepRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweepRemovedTotal",
			Help: "Expired entries removed by the maintenance sweep",
		},
		[]string{"store"},
	)

	registry.MustRegister(
		ProviderCallsTotal, ProviderDuration, ProviderFailoverTotal,
		CacheHitsTotal, CacheMissesTotal, DedupSharedTotal,
		PersistenceWarningsTotal, UsageThresholdTotal, UsageCallsToday,
		SweepRemovedTotal,
	)
}

// MetricsHandler returns an http.Handler serving application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
