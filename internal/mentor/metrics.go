package mentor

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors named in §7 ("metrics counters
// are incremented per kind") plus gauges for the component stats the
// design notes call out (cache size/hit-rate, breaker state, live
// rate-limiter bucket count). Each Core owns its own registry-scoped
// instance rather than registering against the global default registry,
// so multiple Cores (e.g. in tests) never collide on metric names.
type Metrics struct {
	registry *prometheus.Registry

	errorsTotal      *prometheus.CounterVec
	routeTotal       *prometheus.CounterVec
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
	cacheSize        prometheus.Gauge
	breakerState     prometheus.Gauge
	liveBuckets      prometheus.Gauge
	redactionsTotal  prometheus.Counter
}

// NewMetrics constructs and registers all collectors against a fresh
// registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentor_errors_total",
			Help: "Errors returned by the mentor core, labeled by kind.",
		}, []string{"kind"}),
		routeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentor_routes_total",
			Help: "Requests routed, labeled by route decision.",
		}, []string{"route"}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentor_cache_hits_total",
			Help: "Response cache hits.",
		}),
		cacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentor_cache_misses_total",
			Help: "Response cache misses.",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mentor_cache_size",
			Help: "Current number of entries in the response cache.",
		}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mentor_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=half_open, 2=open.",
		}),
		liveBuckets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mentor_rate_limiter_live_buckets",
			Help: "Number of live per-caller rate limiter buckets.",
		}),
		redactionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentor_redactions_total",
			Help: "Total secret redactions applied across all scans.",
		}),
	}

	reg.MustRegister(
		m.errorsTotal, m.routeTotal, m.cacheHitsTotal, m.cacheMissesTotal,
		m.cacheSize, m.breakerState, m.liveBuckets, m.redactionsTotal,
	)
	return m
}

// Registry exposes the underlying registry for an HTTP /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) recordError(kind ErrorKind) {
	m.errorsTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) recordRoute(route RouteDecision) {
	m.routeTotal.WithLabelValues(string(route)).Inc()
}

func breakerStateValue(s BreakerState) float64 {
	switch s {
	case StateClosed:
		return 0
	case StateHalfOpen:
		return 1
	case StateOpen:
		return 2
	default:
		return -1
	}
}
