package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slidekiosk_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slidekiosk_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slidekiosk_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)

	DBSchemaBootstrapsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slidekiosk_db_schema_bootstraps_total",
			Help: "Total number of schema bootstrap runs triggered by missing tables",
		},
	)
)

// Settings metrics
var (
	SettingsReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_settings_reads_total",
			Help: "Total number of setting reads by outcome",
		},
		[]string{"outcome"}, // "stored", "fallback", "default"
	)

	SettingsWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_settings_writes_total",
			Help: "Total number of setting writes",
		},
		[]string{"status"},
	)

	SettingsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slidekiosk_settings_total",
			Help: "Number of settings rows currently stored",
		},
	)
)

// Catalog metrics
var (
	MediaFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slidekiosk_media_files_total",
			Help: "Number of media records in the catalog by type",
		},
		[]string{"type"}, // "image", "video"
	)

	MediaRegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_media_registrations_total",
			Help: "Total number of media registration attempts",
		},
		[]string{"type", "status"},
	)

	MediaDeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_media_deletions_total",
			Help: "Total number of media deletions",
		},
		[]string{"status"},
	)
)

// Reconciliation metrics
var (
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_reconcile_runs_total",
			Help: "Total number of reconciliation passes by kind",
		},
		[]string{"kind"}, // "missing", "unexpected", "cleanup", "prune"
	)

	ReconcileLastRunDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slidekiosk_reconcile_last_run_duration_seconds",
			Help: "Duration of the last reconciliation pass by kind",
		},
		[]string{"kind"},
	)

	MissingFilesFound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slidekiosk_missing_files_found",
			Help: "Records whose original file was absent in the last missing-file pass",
		},
	)

	UnexpectedItemsFound = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slidekiosk_unexpected_items_found",
			Help: "Items found by the last unexpected-item pass by bucket",
		},
		[]string{"bucket"}, // "orphaned", "file", "dir"
	)

	CleanupRemovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_cleanup_removals_total",
			Help: "Total filesystem entries removed by cleanup",
		},
		[]string{"kind", "status"}, // kind: "file", "dir"
	)

	PrunedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_pruned_records_total",
			Help: "Total catalog records pruned for missing originals",
		},
		[]string{"status"},
	)
)

// Drift watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_watcher_events_total",
			Help: "Total filesystem events seen by the drift watcher",
		},
		[]string{"type"}, // "create", "write", "remove", "rename", "chmod", "unknown"
	)

	WatcherErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slidekiosk_watcher_errors_total",
			Help: "Total drift watcher errors",
		},
	)

	WatcherReconcilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slidekiosk_watcher_reconciles_total",
			Help: "Total reconciliation sweeps triggered by the drift watcher",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slidekiosk_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	VipsFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slidekiosk_vips_fallbacks_total",
			Help: "Thumbnail loads where the libvips fast path failed and pure-Go decoding took over",
		},
	)
)

// External tool metrics
var (
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_tool_invocations_total",
			Help: "Total external tool invocations",
		},
		[]string{"tool", "status"}, // tool: "ffmpeg", "ffprobe"
	)

	ToolInvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slidekiosk_tool_invocation_duration_seconds",
			Help:    "External tool invocation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tool"},
	)
)

// Filesystem metrics
var (
	FilesystemRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekiosk_filesystem_retries_total",
			Help: "Total filesystem operations retried after stale handle errors",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slidekiosk_filesystem_stale_errors_total",
			Help: "Total stale NFS file handle errors observed",
		},
	)
)

// Application info
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "slidekiosk_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "build_time"},
)

// SetAppInfo records the build information labels with a constant value of 1.
func SetAppInfo(version, commit, buildTime string) {
	AppInfo.WithLabelValues(version, commit, buildTime).Set(1)
}
