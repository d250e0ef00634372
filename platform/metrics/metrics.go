// Package metrics holds the Prometheus collectors for the service. All
// collectors live on a registry created by the caller and passed around;
// nothing is registered on the global default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Lead protocol
	LeadsIntake  *prometheus.CounterVec // outcome: pending, expired_no_agents
	LeadsAssume  *prometheus.CounterVec // outcome: assumed, conflict, rejected
	LeadsExpired *prometheus.CounterVec // trigger: manual, sweep

	// Financing
	FinancingSimulations *prometheus.CounterVec // system, persisted
	FinancingCreated     prometheus.Counter

	// Notifications
	NotificationsSent *prometheus.CounterVec // channel, status

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New creates a new Metrics instance with all metrics registered on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		LeadsIntake: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_intake_total",
				Help: "Leads received from the messaging webhook",
			},
			[]string{"outcome"},
		),
		LeadsAssume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_assume_attempts_total",
				Help: "Claim attempts by outcome",
			},
			[]string{"outcome"},
		),
		LeadsExpired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_expired_total",
				Help: "Leads moved to EXPIRED",
			},
			[]string{"trigger"},
		),

		FinancingSimulations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financing_simulations_total",
				Help: "Amortization schedules computed",
			},
			[]string{"system", "persisted"},
		),
		FinancingCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "financing_records_created_total",
			Help: "Financing records persisted",
		}),

		NotificationsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_sent_total",
				Help: "Outbound notifications by channel and status",
			},
			[]string{"channel", "status"},
		),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}
}

// NewNop returns metrics on a throwaway registry. Used by tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Middleware records request counts and latency keyed by route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordIntake increments the intake counter.
func (m *Metrics) RecordIntake(outcome string) {
	m.LeadsIntake.WithLabelValues(outcome).Inc()
}

// RecordAssume increments the claim attempt counter.
func (m *Metrics) RecordAssume(outcome string) {
	m.LeadsAssume.WithLabelValues(outcome).Inc()
}

// RecordExpired adds n expired leads for trigger.
func (m *Metrics) RecordExpired(trigger string, n int) {
	if n > 0 {
		m.LeadsExpired.WithLabelValues(trigger).Add(float64(n))
	}
}

// RecordSimulation increments the schedule counter.
func (m *Metrics) RecordSimulation(system string, persisted bool) {
	m.FinancingSimulations.WithLabelValues(system, strconv.FormatBool(persisted)).Inc()
}

// RecordNotification increments the outbound notification counter.
func (m *Metrics) RecordNotification(channel string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.NotificationsSent.WithLabelValues(channel, status).Inc()
}

// RecordCache increments the hit or miss counter for cache.
func (m *Metrics) RecordCache(cache string, hit bool) {
	if hit {
		m.CacheHits.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}
