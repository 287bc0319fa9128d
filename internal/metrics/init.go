package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Database ---
	for _, op := range []string{"initialize_schema", "bootstrap_settings", "get_setting",
		"set_setting", "load_settings", "setting_last_updated", "count_settings",
		"insert_media", "list_media", "get_media", "delete_media", "count_media",
		"last_changed", "verify_credentials", "update_password", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	// --- Settings ---
	for _, outcome := range []string{"stored", "fallback", "default"} {
		SettingsReadsTotal.WithLabelValues(outcome)
	}
	SettingsWritesTotal.WithLabelValues("success")
	SettingsWritesTotal.WithLabelValues("error")

	// --- Catalog ---
	mediaTypes := []string{"image", "video"}
	for _, t := range mediaTypes {
		MediaFilesTotal.WithLabelValues(t)
		MediaRegistrationsTotal.WithLabelValues(t, "success")
		MediaRegistrationsTotal.WithLabelValues(t, "error")
		MediaRegistrationsTotal.WithLabelValues(t, "rejected")
	}
	// Uploads rejected before the type is known
	MediaRegistrationsTotal.WithLabelValues("none", "rejected")
	MediaDeletionsTotal.WithLabelValues("success")
	MediaDeletionsTotal.WithLabelValues("error")

	// --- Reconciliation ---
	for _, kind := range []string{"missing", "unexpected", "cleanup", "prune"} {
		ReconcileRunsTotal.WithLabelValues(kind)
		ReconcileLastRunDuration.WithLabelValues(kind)
	}
	for _, bucket := range []string{"orphaned", "file", "dir"} {
		UnexpectedItemsFound.WithLabelValues(bucket)
	}
	for _, kind := range []string{"file", "dir"} {
		CleanupRemovalsTotal.WithLabelValues(kind, "success")
		CleanupRemovalsTotal.WithLabelValues(kind, "error")
	}
	PrunedRecordsTotal.WithLabelValues("success")
	PrunedRecordsTotal.WithLabelValues("error")

	for _, event := range []string{"create", "write", "remove", "rename", "chmod", "unknown"} {
		WatcherEventsTotal.WithLabelValues(event)
	}

	// --- Thumbnails ---
	for _, t := range mediaTypes {
		ThumbnailGenerationsTotal.WithLabelValues(t, "success")
		ThumbnailGenerationsTotal.WithLabelValues(t, "error")
		ThumbnailGenerationDuration.WithLabelValues(t)
	}

	// --- External tools ---
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		ToolInvocationsTotal.WithLabelValues(tool, "success")
		ToolInvocationsTotal.WithLabelValues(tool, "error")
		ToolInvocationDuration.WithLabelValues(tool)
	}

	// --- Filesystem retries ---
	for _, op := range []string{"stat", "remove"} {
		FilesystemRetriesTotal.WithLabelValues(op)
	}
}
