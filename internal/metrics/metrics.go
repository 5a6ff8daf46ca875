// Package metrics handles Prometheus metrics initialization and system monitoring.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger replaces the package-level logger.
func SetLogger(l *logrus.Logger) { log = l }

// Prometheus metrics - exported for use by other packages.
var (
	ResolutionDuration    prometheus.Histogram
	ResolutionsTotal      *prometheus.CounterVec
	ResolutionErrorsTotal prometheus.Counter
	SniffBytes            prometheus.Histogram

	DataURLEncodesTotal prometheus.Counter
	DataURLDecodesTotal prometheus.Counter
	DataURLErrorsTotal  prometheus.Counter
	PayloadSizeBytes    prometheus.Histogram

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	ThumbnailsGeneratedTotal prometheus.Counter
	ThumbnailErrorsTotal     prometheus.Counter

	ScansTotal        prometheus.Counter
	ScanFindingsTotal prometheus.Counter

	HistoryWritesTotal prometheus.Counter
	HistoryErrorsTotal prometheus.Counter

	RateLimitedTotal prometheus.Counter

	WorkerAdjustmentsTotal prometheus.Counter

	MemoryUsage       prometheus.Gauge
	CpuUsage          prometheus.Gauge
	ActiveConnections prometheus.Gauge
	RequestsTotal     *prometheus.CounterVec
	Goroutines        prometheus.Gauge
)

// InitMetrics registers all Prometheus metrics.
func InitMetrics() {
	ResolutionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "resolution_duration_seconds",
		Help:    "Duration of media type resolutions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolutions_total",
		Help: "Total number of resolutions by winning strategy.",
	}, []string{"strategy"})
	ResolutionErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolution_errors_total",
		Help: "Total number of resolutions where no strategy answered.",
	})
	SniffBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sniff_bytes",
		Help:    "Bytes inspected per content sniff.",
		Buckets: prometheus.ExponentialBuckets(64, 2, 10),
	})
	DataURLEncodesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataurl_encodes_total",
		Help: "Total number of successful data URL encodes.",
	})
	DataURLDecodesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataurl_decodes_total",
		Help: "Total number of successful data URL decodes.",
	})
	DataURLErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataurl_errors_total",
		Help: "Total number of failed data URL operations.",
	})
	PayloadSizeBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payload_size_bytes",
		Help:    "Size of codec payloads in bytes.",
		Buckets: prometheus.ExponentialBuckets(1024, 2, 20),
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of sniff cache hits.",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of sniff cache misses.",
	})
	ThumbnailsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thumbnails_generated_total",
		Help: "Total number of thumbnails generated.",
	})
	ThumbnailErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thumbnail_errors_total",
		Help: "Total number of thumbnail generation errors.",
	})
	ScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scans_total",
		Help: "Total number of payload virus scans.",
	})
	ScanFindingsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_findings_total",
		Help: "Total number of scans that flagged a payload.",
	})
	HistoryWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "history_writes_total",
		Help: "Total number of history rows written.",
	})
	HistoryErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "history_errors_total",
		Help: "Total number of history write errors.",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter.",
	})
	WorkerAdjustmentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_adjustments_total",
		Help: "Total number of worker pool size adjustments.",
	})
	MemoryUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "memory_usage_bytes",
		Help: "Current memory usage in bytes.",
	})
	CpuUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_usage_percent",
		Help: "Current CPU usage percentage.",
	})
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "active_connections",
		Help: "Number of active connections.",
	})
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path"})
	Goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "goroutines",
		Help: "Number of running goroutines.",
	})

	prometheus.MustRegister(
		ResolutionDuration,
		ResolutionsTotal,
		ResolutionErrorsTotal,
		SniffBytes,
		DataURLEncodesTotal,
		DataURLDecodesTotal,
		DataURLErrorsTotal,
		PayloadSizeBytes,
		CacheHitsTotal,
		CacheMissesTotal,
		ThumbnailsGeneratedTotal,
		ThumbnailErrorsTotal,
		ScansTotal,
		ScanFindingsTotal,
		HistoryWritesTotal,
		HistoryErrorsTotal,
		RateLimitedTotal,
		WorkerAdjustmentsTotal,
		MemoryUsage,
		CpuUsage,
		ActiveConnections,
		RequestsTotal,
		Goroutines,
	)

	log.Info("Prometheus metrics initialized")
}

// UpdateSystemMetrics updates memory, CPU, and goroutine metrics.
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.Set(float64(m.Alloc))
	Goroutines.Set(float64(runtime.NumGoroutine()))

	cpuPercent, err := cpu.Percent(time.Second, false)
	if err == nil && len(cpuPercent) > 0 {
		CpuUsage.Set(cpuPercent[0])
	}
}
