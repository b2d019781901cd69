package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	providerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_provider_requests_total",
			Help: "Routing provider calls by outcome.",
		},
		[]string{"provider", "outcome"},
	)

	providerLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routing_provider_latency_seconds",
			Help:    "Latency of routing provider calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"provider"},
	)

	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_resolutions_total",
			Help: "Route resolutions by result (hit, resolved, unavailable).",
		},
		[]string{"result"},
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "route_cache_entries",
			Help: "Number of geometries held by the route cache.",
		},
	)

	cacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "route_cache_evictions_total",
			Help: "Geometries evicted because the cache exceeded its entry limit.",
		},
	)

	cacheFlushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_cache_flush_total",
			Help: "Durable cache flushes by store and result.",
		},
		[]string{"store", "result"},
	)

	cacheFlushSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "route_cache_flush_duration_seconds",
			Help:    "Duration of durable cache flushes.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"store"},
	)

	cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_ops_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	cacheOpSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_op_duration_seconds",
			Help:    "Duration of Redis operations.",
			Buckets: prometheus.ExponentialBuckets(0.0002, 2, 14),
		},
		[]string{"op"},
	)

	cacheLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_cache_load_total",
			Help: "Cache loads at startup by result (ok, missing, corrupt, error).",
		},
		[]string{"result"},
	)

	aggregatedSegments = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregated_segments",
			Help:    "Distinct segments produced per visualization request.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	omittedRoutesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visualization_omitted_routes_total",
			Help: "Routes left out of a visualization request, by reason.",
		},
		[]string{"reason"},
	)

	coordinateRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinate_parse_rejects_total",
			Help: "Route records dropped because a coordinate field did not parse.",
		},
		[]string{"source"},
	)

	invalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_cache_invalidations_total",
			Help: "Invalidation events applied, by result.",
		},
		[]string{"result"},
	)

	kafkaConsumerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_errors_total",
			Help: "Kafka consumer errors by kind.",
		},
		[]string{"kind"},
	)

	eventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resolution_events_dropped_total",
			Help: "Resolution events dropped because the publish queue was full.",
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		providerRequestsTotal, providerLatencySeconds,
		resolutionsTotal,
		cacheEntries, cacheEvictionsTotal, cacheFlushTotal, cacheFlushSeconds, cacheLoadTotal,
		cacheOpsTotal, cacheOpSeconds,
		aggregatedSegments, omittedRoutesTotal, coordinateRejectsTotal,
		invalidationsTotal, kafkaConsumerErrorsTotal, eventsDroppedTotal,
	}
}

func init() {
	register(prometheus.DefaultRegisterer, append(collectors(), buildInfo))
}

// Init additionally registers the collectors on reg (a dedicated metrics registry).
// Build info is left out; the dedicated registry carries its own.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	register(reg, collectors())
}

func register(reg prometheus.Registerer, cs []prometheus.Collector) {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			panic(err)
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveProviderCall(provider, outcome string, durationSeconds float64) {
	providerRequestsTotal.WithLabelValues(provider, outcome).Inc()
	providerLatencySeconds.WithLabelValues(provider).Observe(durationSeconds)
}

func IncResolution(result string) {
	resolutionsTotal.WithLabelValues(result).Inc()
}

func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

func AddCacheEvictions(n int) {
	if n > 0 {
		cacheEvictionsTotal.Add(float64(n))
	}
}

func ObserveCacheFlush(store string, err error, durationSeconds float64) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	cacheFlushTotal.WithLabelValues(store, res).Inc()
	cacheFlushSeconds.WithLabelValues(store).Observe(durationSeconds)
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	cacheOpsTotal.WithLabelValues(op, res).Inc()
	cacheOpSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncCacheLoad(result string) {
	cacheLoadTotal.WithLabelValues(result).Inc()
}

func ObserveAggregation(segments int) {
	aggregatedSegments.Observe(float64(segments))
}

func IncOmittedRoute(reason string) {
	omittedRoutesTotal.WithLabelValues(reason).Inc()
}

func IncCoordinateReject(source string) {
	coordinateRejectsTotal.WithLabelValues(source).Inc()
}

func IncInvalidation(result string) {
	invalidationsTotal.WithLabelValues(result).Inc()
}

func IncKafkaConsumerError(kind string) {
	kafkaConsumerErrorsTotal.WithLabelValues(kind).Inc()
}

func IncEventsDropped() {
	eventsDroppedTotal.Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
