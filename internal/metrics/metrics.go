// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set bundles every collector the service registers.
type Set struct {
	Registry *prometheus.Registry

	TicksSimulated     prometheus.Counter
	AnomaliesGenerated prometheus.Counter
	AnomaliesResolved  prometheus.Counter
	UniversesEnded     *prometheus.CounterVec
	SimulationDuration prometheus.Histogram
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers the collector set on a fresh registry.
func New() *Set {
	reg := prometheus.NewRegistry()
	s := &Set{
		Registry: reg,
		TicksSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eternaverse_ticks_simulated_total",
			Help: "Simulation ticks executed across all universes.",
		}),
		AnomaliesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eternaverse_anomalies_generated_total",
			Help: "Anomalies generated across all universes.",
		}),
		AnomaliesResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eternaverse_anomalies_resolved_total",
			Help: "Anomalies resolved by operators.",
		}),
		UniversesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eternaverse_universes_ended_total",
			Help: "Universes terminated, by end condition.",
		}, []string{"condition"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eternaverse_simulation_duration_seconds",
			Help:    "Wall time of one simulation request.",
			Buckets: prometheus.DefBuckets,
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eternaverse_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		s.TicksSimulated,
		s.AnomaliesGenerated,
		s.AnomaliesResolved,
		s.UniversesEnded,
		s.SimulationDuration,
		s.RequestDuration,
	)
	return s
}

// Handler serves the registry for scraping.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}

// Middleware records request latency per chi route pattern.
func (s *Set) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.RequestDuration.WithLabelValues(
			r.Method, route, strconv.Itoa(ww.Status()),
		).Observe(time.Since(start).Seconds())
	})
}
