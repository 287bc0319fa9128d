// Package metrics provides Prometheus instrumentation for slidekiosk.
//
// This package defines and exposes various metrics that can be scraped by
// Prometheus to monitor the health, performance, and behavior of the
// application. All metrics are prefixed with "slidekiosk_" to avoid naming
// collisions with other applications.
//
// # Metric Categories
//
// The metrics are organized into the following categories:
//
// ## Database Metrics
//
// Monitor database query performance and storage:
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBConnectionsOpen: Gauge of open database connections
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//   - DBSchemaBootstrapsTotal: Counter of self-healing schema bootstraps
//
// ## Settings Metrics
//
// Track the settings store:
//   - SettingsReadsTotal: Counter of reads by outcome (stored/fallback/default)
//   - SettingsWritesTotal: Counter of writes by status
//   - SettingsTotal: Gauge of stored settings rows
//
// ## Catalog Metrics
//
// Track the media catalog:
//   - MediaFilesTotal: Gauge of records by type (image/video)
//   - MediaRegistrationsTotal: Counter of registrations by type and status
//   - MediaDeletionsTotal: Counter of deletions by status
//
// ## Reconciliation Metrics
//
// Monitor consistency passes between database and disk:
//   - ReconcileRunsTotal / ReconcileLastRunDuration: per-kind pass tracking
//   - MissingFilesFound / UnexpectedItemsFound: last-pass findings
//   - CleanupRemovalsTotal / PrunedRecordsTotal: repair outcomes
//
// ## Thumbnail Metrics
//
//   - ThumbnailGenerationsTotal: Counter by type (image/video) and status
//   - ThumbnailGenerationDuration: Histogram of generation time by type
//   - VipsFallbacksTotal: Counter of libvips failures handled in pure Go
//
// ## External Tool Metrics
//
//   - ToolInvocationsTotal / ToolInvocationDuration: ffmpeg and ffprobe runs
//
// # Usage
//
// Metrics are automatically registered with the default Prometheus registry
// using promauto. To record metrics from other packages, import this package
// and use the exported metric variables:
//
//	import "slidekiosk/internal/metrics"
//
//	// Increment a counter
//	metrics.DBQueryTotal.WithLabelValues("get_setting", "success").Inc()
//
//	// Observe a histogram value
//	metrics.DBQueryDuration.WithLabelValues("get_setting").Observe(0.002)
//
//	// Set a gauge value
//	metrics.DBConnectionsOpen.Set(5)
//
// # Collector
//
// The package provides a [Collector] type that periodically gathers
// statistics from a [StatsProvider] and updates the corresponding gauges:
//
//	collector := metrics.NewCollector(statsProvider, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
