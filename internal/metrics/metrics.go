// Package metrics exposes Prometheus instruments for the compiler service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Compile outcomes.
const (
	StatusOK          = "ok"
	StatusSyntaxError = "syntax_error"
)

// Registry holds every instrument on its own prometheus.Registry so tests and
// embedded servers never collide on the global one.
type Registry struct {
	registry *prometheus.Registry

	CompilesTotal    *prometheus.CounterVec
	CompileDuration  prometheus.Histogram
	DiagnosticsTotal *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec

	SessionsActive    prometheus.Gauge
	ConnectionsActive prometheus.Gauge
	MessagesTotal     *prometheus.CounterVec
	PublishesTotal    *prometheus.CounterVec
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() { defaultRegistry = NewRegistry() })
	return defaultRegistry
}

// NewRegistry creates a registry with all instruments registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.CompilesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "eon_compiles_total",
		Help: "Total number of compilations by outcome",
	}, []string{"status"})
	r.CompileDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "eon_compile_duration_seconds",
		Help:    "Compilation duration in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
	r.DiagnosticsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "eon_diagnostics_total",
		Help: "Total number of non-fatal diagnostics reported",
	}, []string{"severity"})
	r.CacheLookups = f.NewCounterVec(prometheus.CounterOpts{
		Name: "eon_cache_lookups_total",
		Help: "Compile cache lookups by result",
	}, []string{"result"})

	r.SessionsActive = f.NewGauge(prometheus.GaugeOpts{
		Name: "eon_sessions_active",
		Help: "Number of open editing sessions",
	})
	r.ConnectionsActive = f.NewGauge(prometheus.GaugeOpts{
		Name: "eon_ws_connections_active",
		Help: "Number of open live websocket connections",
	})
	r.MessagesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "eon_ws_messages_total",
		Help: "Live websocket messages by direction and type",
	}, []string{"direction", "type"})
	r.PublishesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "eon_publishes_total",
		Help: "Graphs emitted to the socket.io renderer by outcome",
	}, []string{"status"})
	return r
}

// RecordCompile records one compilation and its diagnostics by severity.
func (r *Registry) RecordCompile(status string, duration time.Duration, severities ...string) {
	r.CompilesTotal.WithLabelValues(status).Inc()
	r.CompileDuration.Observe(duration.Seconds())
	for _, s := range severities {
		r.DiagnosticsTotal.WithLabelValues(s).Inc()
	}
}

// RecordCacheLookup records a compile cache hit or miss.
func (r *Registry) RecordCacheLookup(hit bool) {
	if hit {
		r.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	r.CacheLookups.WithLabelValues("miss").Inc()
}

// RecordMessage records one websocket message. Direction is "in" or "out".
func (r *Registry) RecordMessage(direction, kind string) {
	r.MessagesTotal.WithLabelValues(direction, kind).Inc()
}

// RecordPublish records one emit to the renderer.
func (r *Registry) RecordPublish(err error) {
	if err != nil {
		r.PublishesTotal.WithLabelValues("error").Inc()
		return
	}
	r.PublishesTotal.WithLabelValues(StatusOK).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
