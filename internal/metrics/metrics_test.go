package metrics

import (
	"testing"
)

func TestDatabaseMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"DBConnectionsOpen", DBConnectionsOpen},
		{"DBSizeBytes", DBSizeBytes},
		{"DBSchemaBootstrapsTotal", DBSchemaBootstrapsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestSettingsMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"SettingsReadsTotal", SettingsReadsTotal},
		{"SettingsWritesTotal", SettingsWritesTotal},
		{"SettingsTotal", SettingsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestCatalogMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"MediaFilesTotal", MediaFilesTotal},
		{"MediaRegistrationsTotal", MediaRegistrationsTotal},
		{"MediaDeletionsTotal", MediaDeletionsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestReconciliationMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ReconcileRunsTotal", ReconcileRunsTotal},
		{"ReconcileLastRunDuration", ReconcileLastRunDuration},
		{"MissingFilesFound", MissingFilesFound},
		{"UnexpectedItemsFound", UnexpectedItemsFound},
		{"CleanupRemovalsTotal", CleanupRemovalsTotal},
		{"PrunedRecordsTotal", PrunedRecordsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestThumbnailMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ThumbnailGenerationsTotal", ThumbnailGenerationsTotal},
		{"ThumbnailGenerationDuration", ThumbnailGenerationDuration},
		{"VipsFallbacksTotal", VipsFallbacksTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestToolMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ToolInvocationsTotal", ToolInvocationsTotal},
		{"ToolInvocationDuration", ToolInvocationDuration},
		{"FilesystemRetriesTotal", FilesystemRetriesTotal},
		{"FilesystemStaleErrorsTotal", FilesystemStaleErrorsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

// TestInitializeMetrics verifies pre-population does not panic and can run twice.
func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()
	InitializeMetrics()
}

// TestSetAppInfo verifies build info labels can be recorded.
func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.0.0-test", "abc1234", "2026-01-01T00:00:00Z")

	if AppInfo == nil {
		t.Fatal("AppInfo metric is nil")
	}
}

// TestMetricOperations verifies basic increment/observe/set calls don't panic.
func TestMetricOperations(t *testing.T) {
	DBQueryTotal.WithLabelValues("test_op", "success").Inc()
	DBQueryDuration.WithLabelValues("test_op").Observe(0.005)
	SettingsReadsTotal.WithLabelValues("stored").Inc()
	MediaFilesTotal.WithLabelValues("image").Set(42)
	UnexpectedItemsFound.WithLabelValues("orphaned").Set(3)
	ToolInvocationDuration.WithLabelValues("ffprobe").Observe(0.2)
}
