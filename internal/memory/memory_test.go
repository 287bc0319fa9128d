package memory

import (
	"runtime/debug"
	"testing"
)

// preserveMemLimit restores the process heap limit after a test that
// calls debug.SetMemoryLimit.
func preserveMemLimit(t *testing.T) {
	t.Helper()
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
}

func TestConfigureFromEnvUnset(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")

	result := ConfigureFromEnv()
	if result.Configured {
		t.Error("Configured = true with no limits in the environment")
	}
	if result.Source != "none" {
		t.Errorf("Source = %q, want %q", result.Source, "none")
	}
}

func TestConfigureFromEnvContainerLimit(t *testing.T) {
	preserveMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_RATIO", "")
	t.Setenv("MEMORY_LIMIT", "1073741824")

	result := ConfigureFromEnv()
	if !result.Configured {
		t.Fatal("Configured = false for a valid MEMORY_LIMIT")
	}
	if result.Source != "MEMORY_LIMIT" {
		t.Errorf("Source = %q, want %q", result.Source, "MEMORY_LIMIT")
	}
	if result.ContainerLimit != 1073741824 {
		t.Errorf("ContainerLimit = %d, want 1073741824", result.ContainerLimit)
	}
	if result.Ratio != DefaultMemoryRatio {
		t.Errorf("Ratio = %v, want %v", result.Ratio, DefaultMemoryRatio)
	}
	want := int64(float64(1073741824) * DefaultMemoryRatio)
	if result.GoMemLimit != want {
		t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, want)
	}
	if got := debug.SetMemoryLimit(-1); got != want {
		t.Errorf("effective heap limit = %d, want %d", got, want)
	}
}

func TestConfigureFromEnvCustomRatio(t *testing.T) {
	preserveMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1000000")
	t.Setenv("MEMORY_RATIO", "0.5")

	result := ConfigureFromEnv()
	if result.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", result.Ratio)
	}
	if result.GoMemLimit != 500000 {
		t.Errorf("GoMemLimit = %d, want 500000", result.GoMemLimit)
	}
}

func TestConfigureFromEnvBadRatioFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		ratio string
	}{
		{"garbage", "not-a-number"},
		{"zero", "0"},
		{"negative", "-0.3"},
		{"above one", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preserveMemLimit(t)
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", "1000000")
			t.Setenv("MEMORY_RATIO", tt.ratio)

			result := ConfigureFromEnv()
			if result.Ratio != DefaultMemoryRatio {
				t.Errorf("Ratio = %v, want the %v default", result.Ratio, DefaultMemoryRatio)
			}
		})
	}
}

func TestConfigureFromEnvBadLimitIgnored(t *testing.T) {
	tests := []struct {
		name  string
		limit string
	}{
		{"garbage", "lots"},
		{"zero", "0"},
		{"negative", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.limit)

			result := ConfigureFromEnv()
			if result.Configured {
				t.Errorf("Configured = true for MEMORY_LIMIT %q", tt.limit)
			}
			if result.Source != "none" {
				t.Errorf("Source = %q, want %q", result.Source, "none")
			}
		})
	}
}

func TestConfigureFromEnvExplicitGoMemLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "512MiB")
	t.Setenv("MEMORY_LIMIT", "1073741824")

	// The runtime parses GOMEMLIMIT at process start; here it only marks
	// the source and leaves the limit alone
	result := ConfigureFromEnv()
	if result.Source != "GOMEMLIMIT" {
		t.Errorf("Source = %q, want %q", result.Source, "GOMEMLIMIT")
	}
	if result.ContainerLimit != 0 {
		t.Errorf("ContainerLimit = %d, want 0 when GOMEMLIMIT wins", result.ContainerLimit)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{2048, "2.0 KiB"},
		{1073741824, "1.0 GiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
