package startup

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"slidekiosk/internal/media"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Version is empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", info.GoVersion, runtime.Version())
	}
	if info.OS != runtime.GOOS {
		t.Errorf("OS = %s, want %s", info.OS, runtime.GOOS)
	}
	if info.Arch != runtime.GOARCH {
		t.Errorf("Arch = %s, want %s", info.Arch, runtime.GOARCH)
	}
}

func TestLoadConfig(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "kiosk-data")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("SCAN_WORKERS", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.DataDir != dataDir {
		t.Errorf("DataDir = %s, want %s", config.DataDir, dataDir)
	}
	if config.UploadsDir != filepath.Join(dataDir, "uploads") {
		t.Errorf("UploadsDir = %s", config.UploadsDir)
	}
	if config.ThumbnailsDir != filepath.Join(dataDir, "thumbnails") {
		t.Errorf("ThumbnailsDir = %s", config.ThumbnailsDir)
	}
	if config.DatabasePath != filepath.Join(dataDir, "slidekiosk.db") {
		t.Errorf("DatabasePath = %s", config.DatabasePath)
	}
	if config.ScanWorkers != 0 {
		t.Errorf("ScanWorkers = %d, want 0 (auto)", config.ScanWorkers)
	}

	for _, dir := range []string{config.DataDir, config.UploadsDir, config.ThumbnailsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestResolveConfigDoesNotCreateDirectories(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "never-made")
	t.Setenv("DATA_DIR", dataDir)

	config, err := ResolveConfig()
	if err != nil {
		t.Fatalf("ResolveConfig failed: %v", err)
	}
	if config.DataDir != dataDir {
		t.Errorf("DataDir = %s, want %s", config.DataDir, dataDir)
	}

	if _, err := os.Stat(dataDir); !os.IsNotExist(err) {
		t.Error("ResolveConfig created the data directory")
	}
}

func TestLoadConfigScanWorkers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"explicit", "4", 4},
		{"invalid", "lots", 0},
		{"negative", "-2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATA_DIR", t.TempDir())
			t.Setenv("SCAN_WORKERS", tt.value)

			config, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if config.ScanWorkers != tt.want {
				t.Errorf("ScanWorkers = %d, want %d", config.ScanWorkers, tt.want)
			}
		})
	}
}

func TestLoadConfigRejectsFileAsDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	t.Setenv("DATA_DIR", path)

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig succeeded with a file as DATA_DIR")
	}
}

func TestEnsureDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("existing directory", func(t *testing.T) {
		if err := ensureDirectory(tmpDir, "test"); err != nil {
			t.Errorf("ensureDirectory failed on existing dir: %v", err)
		}
	})

	t.Run("creates missing directory", func(t *testing.T) {
		path := filepath.Join(tmpDir, "new", "nested")
		if err := ensureDirectory(path, "test"); err != nil {
			t.Fatalf("ensureDirectory failed: %v", err)
		}
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			t.Error("directory was not created")
		}
	})

	t.Run("file in the way", func(t *testing.T) {
		path := filepath.Join(tmpDir, "blocker")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
		if err := ensureDirectory(path, "test"); err == nil {
			t.Error("ensureDirectory succeeded on a regular file")
		}
	})
}

func TestTestWriteAccess(t *testing.T) {
	tmpDir := t.TempDir()

	if err := testWriteAccess(tmpDir); err != nil {
		t.Errorf("testWriteAccess failed on writable dir: %v", err)
	}

	// No probe file left behind
	if _, err := os.Stat(filepath.Join(tmpDir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write probe file was not cleaned up")
	}
}

func TestTestWriteAccessReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission bits are not enforced")
	}

	tmpDir := t.TempDir()
	if err := os.Chmod(tmpDir, 0o500); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(tmpDir, 0o755) })

	if err := testWriteAccess(tmpDir); err == nil {
		t.Error("testWriteAccess succeeded on read-only dir")
	}
}

func TestCheckToolMissing(t *testing.T) {
	err := checkTool(context.Background(), "slidekiosk-no-such-tool")
	if err == nil {
		t.Error("checkTool succeeded for a nonexistent binary")
	}
}

func TestCheckToolPresent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}

	if err := checkTool(context.Background(), "ffprobe"); err != nil {
		t.Errorf("checkTool(ffprobe) failed: %v", err)
	}
}

func TestDetectCapabilities(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	caps := DetectCapabilities(context.Background())

	_, ffmpegErr := exec.LookPath("ffmpeg")
	if caps.FFmpeg != (ffmpegErr == nil) {
		t.Errorf("FFmpeg = %t, LookPath error = %v", caps.FFmpeg, ffmpegErr)
	}

	_, ffprobeErr := exec.LookPath("ffprobe")
	if caps.FFprobe != (ffprobeErr == nil) {
		t.Errorf("FFprobe = %t, LookPath error = %v", caps.FFprobe, ffprobeErr)
	}

	if caps.Vips != media.IsVipsAvailable() {
		t.Errorf("Vips = %t, IsVipsAvailable = %t", caps.Vips, media.IsVipsAvailable())
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("SLIDEKIOSK_TEST_VAR", "set")
	if got := getEnv("SLIDEKIOSK_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("getEnv = %q, want %q", got, "set")
	}
	if got := getEnv("SLIDEKIOSK_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want %q", got, "fallback")
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback int
		want     int
	}{
		{"valid", "12", 0, 12},
		{"zero", "0", 3, 0},
		{"empty", "", 3, 3},
		{"garbage", "twelve", 3, 3},
		{"negative", "-1", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("SLIDEKIOSK_TEST_INT", tt.value)
			} else {
				os.Unsetenv("SLIDEKIOSK_TEST_INT")
			}
			if got := getEnvInt("SLIDEKIOSK_TEST_INT", tt.fallback); got != tt.want {
				t.Errorf("getEnvInt(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}
