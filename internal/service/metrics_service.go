package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/siak-warlock/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
// Every method is safe on a nil receiver so services can run uninstrumented.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	dbQueryDuration    *prometheus.HistogramVec
	matchDecisions     *prometheus.CounterVec
	diffRuns           prometheus.Counter
	diffChanges        *prometheus.CounterVec
	challengeOutcomes  *prometheus.CounterVec
	snapshotStoreTimer *prometheus.HistogramVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	diffRunCount         uint64
	challengeCount       uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	matchDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "match_decisions_total",
		Help: "Criteria resolved by the matcher, by reason",
	}, []string{"reason"})

	diffRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_diff_runs_total",
		Help: "Snapshot comparisons performed by the tracker",
	})

	diffChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_changes_total",
		Help: "Sections reported by the tracker, by change kind",
	}, []string{"kind"})

	challengeOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "captcha_challenges_total",
		Help: "Captcha challenges by terminal outcome",
	}, []string{"outcome"})

	snapshotStoreTimer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_store_duration_seconds",
		Help:    "Latency of snapshot store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses, dbQueryDuration,
		matchDecisions, diffRuns, diffChanges, challengeOutcomes, snapshotStoreTimer, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		dbQueryDuration:    dbQueryDuration,
		matchDecisions:     matchDecisions,
		diffRuns:           diffRuns,
		diffChanges:        diffChanges,
		challengeOutcomes:  challengeOutcomes,
		snapshotStoreTimer: snapshotStoreTimer,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveSnapshotStore records the latency of a snapshot load or save.
func (m *MetricsService) ObserveSnapshotStore(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.snapshotStoreTimer.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordMatchDecisions counts decisions by reason.
func (m *MetricsService) RecordMatchDecisions(decisions []models.MatchDecision) {
	if m == nil {
		return
	}
	for _, d := range decisions {
		m.matchDecisions.WithLabelValues(string(d.Reason)).Inc()
	}
}

// RecordChangeset counts one diff run and its changes by kind.
func (m *MetricsService) RecordChangeset(cs models.Changeset) {
	if m == nil {
		return
	}
	m.diffRuns.Inc()
	atomic.AddUint64(&m.diffRunCount, 1)
	m.diffChanges.WithLabelValues("added").Add(float64(len(cs.Added)))
	m.diffChanges.WithLabelValues("removed").Add(float64(len(cs.Removed)))
	m.diffChanges.WithLabelValues("modified").Add(float64(len(cs.Modified)))
}

// RecordChallenge counts a challenge that reached the given outcome.
func (m *MetricsService) RecordChallenge(outcome string) {
	if m == nil {
		return
	}
	m.challengeOutcomes.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.challengeCount, 1)
}

// Snapshot returns aggregated metrics suitable for the health endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DiffRuns:                 atomic.LoadUint64(&m.diffRunCount),
		Challenges:               atomic.LoadUint64(&m.challengeCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
