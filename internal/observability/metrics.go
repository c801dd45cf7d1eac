package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marsmission/rover-status-service/internal/overload"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// NASA Mars Photos API call rate. Watch for: error vs success ratio.
	NASAAPICallsTotal *prometheus.CounterVec

	// NASA API latency per request. Watch for: p95 > 2s (upstream degradation), p99 near the timeout.
	NASAAPIDuration *prometheus.HistogramVec

	// NASA API errors by category. Watch for: timeout vs upstream_5xx mix.
	NASAAPIErrorsTotal *prometheus.CounterVec

	// Cache hits by cache type.
	CacheHitsTotal *prometheus.CounterVec

	// Cache operation failures by operation and category.
	CacheErrorsTotal *prometheus.CounterVec

	// Cache operation latency by operation and result.
	CacheOperationDurationSeconds *prometheus.HistogramVec

	// Cache warming runs, failures and durations.
	CacheWarmingTotal           prometheus.Counter
	CacheWarmingErrorsTotal     prometheus.Counter
	CacheWarmingDurationSeconds prometheus.Histogram

	// Concurrent cache misses for the same sol. Watch for: stampedes on popular sols.
	CacheStampedeDetectedTotal *prometheus.CounterVec
	CacheStampedeConcurrency   *prometheus.HistogramVec

	// Requests that piggybacked on an in-flight upstream fetch for the same sol.
	RequestCoalescingHitsTotal   *prometheus.CounterVec
	RequestCoalescingWaitSeconds prometheus.Histogram

	// Total rover-data lookups. Watch for: traffic volume, rate() for QPS.
	RoverQueriesTotal prometheus.Counter

	// Per-sol query count (allow-list; others go to "other"). Watch for: top sols, traffic distribution.
	RoverQueriesBySolTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Circuit breaker transitions and current state per upstream component.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec
	CircuitBreakerState            *prometheus.GaugeVec

	// In-flight requests observed at shutdown.
	ShutdownInFlightRequests prometheus.Gauge

	// trackedSols is built from config; used to resolve the sol label for metrics.
	trackedSolsMu sync.RWMutex
	trackedSols   map[string]struct{}

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	NASAAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasaApiCallsTotal",
			Help: "Total number of NASA Mars Photos API calls",
		},
		[]string{"status"},
	)
	NASAAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nasaApiDurationSeconds",
			Help:    "NASA Mars Photos API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	NASAAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasaApiErrorsTotal",
			Help: "NASA API failures by category (timeout, upstream_5xx, parsing, ...)",
		},
		[]string{"category"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits by cache type",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache operation failures by operation and error category",
		},
		[]string{"operation", "category"},
	)
	CacheOperationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cacheOperationDurationSeconds",
			Help:    "Cache operation latency in seconds by operation and result",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "result"},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Total number of cache warming runs",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Total number of cache warming runs that had at least one failure",
		},
	)
	CacheWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cacheWarmingDurationSeconds",
			Help:    "Cache warming run duration in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30},
		},
	)
	CacheStampedeDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheStampedeDetectedTotal",
			Help: "Concurrent cache misses observed for the same sol",
		},
		[]string{"sol"},
	)
	CacheStampedeConcurrency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cacheStampedeConcurrency",
			Help:    "Concurrent miss count per stampede occurrence",
			Buckets: []float64{2, 3, 5, 10, 25, 50},
		},
		[]string{"sol"},
	)
	RequestCoalescingHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requestCoalescingHitsTotal",
			Help: "Requests that waited on an in-flight assembly for the same sol",
		},
		[]string{"sol"},
	)
	RequestCoalescingWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "requestCoalescingWaitSeconds",
			Help:    "Time spent waiting on a coalesced assembly",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
	RoverQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roverQueriesTotal",
			Help: "Total number of rover-data lookups",
		},
	)
	RoverQueriesBySolTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roverQueriesBySolTotal",
			Help: "Rover-data queries by sol (allow-list; others use sol=other)",
		},
		[]string{"sol"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions per component",
		},
		[]string{"component", "from", "to"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state per component (0=closed, 1=open, 2=half_open)",
		},
		[]string{"component"},
	)
	ShutdownInFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutdownInFlightRequests",
			Help: "In-flight requests observed when graceful shutdown began",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		NASAAPICallsTotal, NASAAPIDuration, NASAAPIErrorsTotal,
		CacheHitsTotal, CacheErrorsTotal, CacheOperationDurationSeconds,
		CacheWarmingTotal, CacheWarmingErrorsTotal, CacheWarmingDurationSeconds,
		CacheStampedeDetectedTotal, CacheStampedeConcurrency,
		RequestCoalescingHitsTotal, RequestCoalescingWaitSeconds,
		RoverQueriesTotal, RoverQueriesBySolTotal,
		RateLimitDeniedTotal,
		CircuitBreakerTransitionsTotal, CircuitBreakerState,
		ShutdownInFlightRequests,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with cfg.OverloadWindow. Uses same window as lifecycle.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(overload.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(overload.DenialCount(window)) },
			),
		)
	})
}

// SetTrackedSols sets the allow-list for per-sol metrics. Non-tracked sols increment "other".
func SetTrackedSols(sols []int) {
	trackedSolsMu.Lock()
	defer trackedSolsMu.Unlock()
	trackedSols = make(map[string]struct{}, len(sols))
	for _, sol := range sols {
		trackedSols[strconv.Itoa(sol)] = struct{}{}
	}
}

// MetricSolLabel resolves a sol to its metric label: the sol itself when
// tracked, "other" otherwise. Keeps label cardinality bounded.
func MetricSolLabel(sol int) string {
	label := strconv.Itoa(sol)
	trackedSolsMu.RLock()
	_, ok := trackedSols[label] // nil map read is safe in Go
	trackedSolsMu.RUnlock()
	if ok {
		return label
	}
	return "other"
}

// RecordRoverQuery records a rover-data query for the given sol.
func RecordRoverQuery(sol int) {
	RoverQueriesTotal.Inc()
	RoverQueriesBySolTotal.WithLabelValues(MetricSolLabel(sol)).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change for metrics.
func RecordCircuitBreakerTransition(component, from, to string) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// SetCircuitBreakerStateGauge sets the current breaker state gauge for a component.
func SetCircuitBreakerStateGauge(component string, state float64) {
	CircuitBreakerState.WithLabelValues(component).Set(state)
}

// CircuitBreakerStateValue converts a breaker state ordinal to a gauge value.
func CircuitBreakerStateValue(state int) float64 {
	return float64(state)
}

// RecordShutdownInFlight records the in-flight request count at shutdown.
func RecordShutdownInFlight(count int64) {
	ShutdownInFlightRequests.Set(float64(count))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
