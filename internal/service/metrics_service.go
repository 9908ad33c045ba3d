package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/worklane/timesheet-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for the ops surface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	entriesSaved    prometheus.Counter
	entriesSkipped  *prometheus.CounterVec
	entriesReviewed *prometheus.CounterVec
	cardsSent       prometheus.Counter
	cardsFailed     prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	entriesSavedCount    uint64
	entriesSkippedCount  uint64
	entriesReviewedCount uint64
	cardsSentCount       uint64
	cardsFailedCount     uint64
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

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
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

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	entriesSaved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timesheet_entries_saved_total",
		Help: "Total timesheet entries written through the save flow",
	})

	entriesSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timesheet_dates_skipped_total",
		Help: "Total batch dates skipped by a business rule, by reason",
	}, []string{"reason"})

	entriesReviewed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timesheet_entries_reviewed_total",
		Help: "Total reviewed timesheet entries by decision",
	}, []string{"decision"})

	cardsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_cards_sent_total",
		Help: "Total notification cards delivered to Teams",
	})

	cardsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_cards_failed_total",
		Help: "Total notification card deliveries that failed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio,
		cacheHits, cacheMisses, dbQueryDuration, entriesSaved, entriesSkipped, entriesReviewed,
		cardsSent, cardsFailed, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		entriesSaved:    entriesSaved,
		entriesSkipped:  entriesSkipped,
		entriesReviewed: entriesReviewed,
		cardsSent:       cardsSent,
		cardsFailed:     cardsFailed,
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
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
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordEntriesSaved counts entries written through the save flow.
func (m *MetricsService) RecordEntriesSaved(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.entriesSaved.Add(float64(count))
	atomic.AddUint64(&m.entriesSavedCount, uint64(count))
}

// RecordDateSkipped counts batch dates excluded by a business rule.
func (m *MetricsService) RecordDateSkipped(reason string) {
	if m == nil {
		return
	}
	m.entriesSkipped.WithLabelValues(reason).Inc()
	atomic.AddUint64(&m.entriesSkippedCount, 1)
}

// RecordEntriesReviewed counts reviewed entries by decision.
func (m *MetricsService) RecordEntriesReviewed(decision string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.entriesReviewed.WithLabelValues(decision).Add(float64(count))
	atomic.AddUint64(&m.entriesReviewedCount, uint64(count))
}

// RecordCardSent counts delivered notification cards.
func (m *MetricsService) RecordCardSent() {
	if m == nil {
		return
	}
	m.cardsSent.Inc()
	atomic.AddUint64(&m.cardsSentCount, 1)
}

// RecordCardFailed counts notification deliveries that failed.
func (m *MetricsService) RecordCardFailed() {
	if m == nil {
		return
	}
	m.cardsFailed.Inc()
	atomic.AddUint64(&m.cardsFailedCount, 1)
}

// Snapshot returns aggregated metrics suitable for the ops endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		EntriesSaved:             atomic.LoadUint64(&m.entriesSavedCount),
		DatesSkipped:             atomic.LoadUint64(&m.entriesSkippedCount),
		EntriesReviewed:          atomic.LoadUint64(&m.entriesReviewedCount),
		CardsSent:                atomic.LoadUint64(&m.cardsSentCount),
		CardsFailed:              atomic.LoadUint64(&m.cardsFailedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
