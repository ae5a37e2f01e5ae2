package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "site"

type Config struct {
	// Namespace prefixes every metric name (default: "site").
	Namespace string

	// Registry receives the collectors. A fresh registry is created when nil.
	Registry *prometheus.Registry

	Buckets []float64
}

// Metrics records route and query outcomes.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	queriesTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	reloadsTotal    *prometheus.CounterVec
}

func New(cfg Config) *Metrics {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_requests_total",
			Help:      "Requests served, by matched route pattern and status code.",
		}, []string{"pattern", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_request_duration_seconds",
			Help:      "Time to serve a request, by matched route pattern.",
			Buckets:   buckets,
		}, []string{"pattern"}),
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_queries_total",
			Help:      "Content queries resolved before render, by query name and result.",
		}, []string{"query", "result"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "content_query_duration_seconds",
			Help:      "Time to resolve a content query.",
			Buckets:   buckets,
		}, []string{"query"}),
		reloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Development reload cycles, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveRequest(pattern string, status int, elapsed time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	m.requestsTotal.WithLabelValues(pattern, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(pattern).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveQuery(name string, elapsed time.Duration, err error) {
	m.queriesTotal.WithLabelValues(name, resultLabel(err)).Inc()
	m.queryDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveReload(err error) {
	m.reloadsTotal.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
