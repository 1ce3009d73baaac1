package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfshelf_scan_runs_total",
			Help: "Total number of scan runs",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfshelf_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfshelf_scan_last_run_timestamp",
			Help: "Timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfshelf_scan_last_run_duration_seconds",
			Help: "Duration of the last completed scan in seconds",
		},
	)

	ScanFilesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfshelf_scan_files_found_total",
			Help: "Total number of PDF files discovered by the scanner",
		},
	)

	ScanFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfshelf_scan_files_processed_total",
			Help: "Total number of files run through the extraction pipeline",
		},
	)

	ScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfshelf_scan_errors_total",
			Help: "Total number of per-file and per-directory scan errors",
		},
		[]string{"stage"}, // "walk", "extract", "store"
	)

	ScanWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfshelf_scan_workers",
			Help: "Number of extraction workers for the current scan",
		},
	)
)

// Cache / deduplication metrics
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfshelf_cache_hits_total",
			Help: "Total number of cache hits by kind",
		},
		[]string{"kind"}, // "partial" (single fingerprint match), "full" (verified by full hash)
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfshelf_cache_misses_total",
			Help: "Total number of cache misses requiring full extraction",
		},
	)

	DuplicatesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfshelf_duplicates_detected_total",
			Help: "Total number of moved or duplicated files detected by full-hash match",
		},
	)

	HashDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfshelf_hash_duration_seconds",
			Help:    "File hashing duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		},
		[]string{"kind"}, // "partial", "full"
	)
)

// Extraction metrics
var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfshelf_extractions_total",
			Help: "Total number of full PDF metadata extractions",
		},
		[]string{"status"}, // "success", "error"
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfshelf_extraction_duration_seconds",
			Help:    "Full extraction duration per file in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	CoverRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfshelf_cover_renders_total",
			Help: "Total number of cover thumbnail renders",
		},
		[]string{"status"}, // "success", "error", "cached"
	)

	CoverRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfshelf_cover_render_duration_seconds",
			Help:    "Cover render duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfshelf_db_queries_total",
			Help: "Total number of metadata store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfshelf_db_query_duration_seconds",
			Help:    "Metadata store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfshelf_db_connections_open",
			Help: "Number of open metadata store connections",
		},
	)

	DBRecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfshelf_db_records_total",
			Help: "Number of metadata records in the store",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfshelf_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)
