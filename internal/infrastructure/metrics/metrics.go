package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics - счётчики витрины. Нулевой указатель безопасен и ничего не пишет.
type Metrics struct {
	cartMutations   *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	catalogFailures *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New регистрирует метрики на reg. При reg == nil возвращает неактивный экземпляр.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	m := &Metrics{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart commands that changed state.",
		}, []string{"op"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_persist_failures_total",
			Help:      "Failed cart storage operations.",
		}, []string{"stage"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_active_sessions",
			Help:      "Cart stores currently held in memory.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		catalogFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_failures_total",
			Help:      "Failed requests to the product catalog.",
		}, []string{"op"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.cartMutations,
		m.persistFailures,
		m.activeSessions,
		m.cacheLookups,
		m.catalogFailures,
		m.httpDuration,
	)

	return m
}

// Handler отдаёт метрики из gatherer в формате Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *Metrics) IncPersistFailure(stage string) {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.WithLabelValues(normalizeLabel(stage)).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) IncCacheLookup(kind string, hit bool) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(normalizeLabel(kind), result).Inc()
}

func (m *Metrics) IncCatalogFailure(op string) {
	if m == nil || m.catalogFailures == nil {
		return
	}
	m.catalogFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveHTTP записывает длительность запроса. route - шаблон chi, а не сырой путь.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
