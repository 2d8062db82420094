// Package metrics holds the Prometheus collectors for the shipment client,
// the entity cache and the reference API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Client metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheEntries       prometheus.Gauge
	CacheEvents        *prometheus.CounterVec
	CacheDroppedEvents prometheus.Counter

	// Server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker
	CircuitBreakerState *prometheus.GaugeVec
}

// Config holds metrics configuration.
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig(subsystem string) *Config {
	return &Config{Namespace: "biotrack", Subsystem: subsystem}
}

// New creates and registers all collectors on a fresh registry.
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "client_requests_total",
			Help:      "API calls made by the shipment client",
		}, []string{"op", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "client_request_duration_seconds",
			Help:      "API call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "cache_entries",
			Help:      "Shipments held in the entity cache",
		}),
		CacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "cache_events_total",
			Help:      "Cache change notifications by kind",
		}, []string{"kind"}),
		CacheDroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "cache_dropped_events_total",
			Help:      "Notifications dropped because a subscriber was full",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "http_requests_total",
			Help:      "Requests served by the API",
		}, []string{"method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "circuit_breaker_state",
			Help:      "Breaker state: 0 closed, 1 half-open, 2 open",
		}, []string{"name"}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.CacheEntries,
		m.CacheEvents,
		m.CacheDroppedEvents,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CircuitBreakerState,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one client API call.
func (m *Metrics) ObserveRequest(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(op, outcome).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveHTTP records one request served by the API.
func (m *Metrics) ObserveHTTP(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// CacheSize sets the number of cached entities.
func (m *Metrics) CacheSize(n int) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(n))
}

// CacheEvent counts a published cache notification.
func (m *Metrics) CacheEvent(kind string) {
	if m == nil {
		return
	}
	m.CacheEvents.WithLabelValues(kind).Inc()
}

// CacheDropped counts a notification a subscriber did not receive.
func (m *Metrics) CacheDropped() {
	if m == nil {
		return
	}
	m.CacheDroppedEvents.Inc()
}

// BreakerState records a breaker state change.
func (m *Metrics) BreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(state)
}
