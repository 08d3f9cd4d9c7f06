package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	scheduleDuration *prometheus.HistogramVec
	scheduleTotal    *prometheus.CounterVec
	solverFallbacks  prometheus.Counter
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	scheduleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_generation_seconds",
		Help:    "Duration of scheduling runs by strategy",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
	}, []string{"strategy"})

	scheduleTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_runs_total",
		Help: "Total scheduling runs by strategy and outcome",
	}, []string{"strategy", "status"})

	solverFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_fallbacks_total",
		Help: "Total LP runs that fell back to the greedy scheduler",
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, scheduleDuration, scheduleTotal, solverFallbacks, cacheHitRatio, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		scheduleDuration: scheduleDuration,
		scheduleTotal:    scheduleTotal,
		solverFallbacks:  solverFallbacks,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveScheduleRun records one scheduling run's strategy and outcome.
func (m *MetricsService) ObserveScheduleRun(strategy, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.scheduleDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	m.scheduleTotal.WithLabelValues(strategy, status).Inc()
}

// RecordSolverFallback counts LP runs recovered by the greedy scheduler.
func (m *MetricsService) RecordSolverFallback() {
	if m == nil {
		return
	}
	m.solverFallbacks.Inc()
}

// RecordCacheOperation tracks cache hit/miss counts and the derived ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}
