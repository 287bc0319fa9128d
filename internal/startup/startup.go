package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"slidekiosk/internal/logging"
	"slidekiosk/internal/media"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration. Every path is absolute and
// the directories exist and are writable once LoadConfig returns.
type Config struct {
	DataDir       string
	UploadsDir    string
	ThumbnailsDir string
	DatabasePath  string
	ScanWorkers   int // 0 means sized from available CPUs
}

// Capabilities records which optional helpers are usable. It is probed
// once at startup; consumers receive the booleans and never probe at call
// time.
type Capabilities struct {
	FFmpeg  bool
	FFprobe bool
	Vips    bool
}

// ResolveConfig reads the environment and resolves absolute paths. It
// never touches the filesystem; commands that must see missing
// directories as errors use this instead of LoadConfig.
func ResolveConfig() (*Config, error) {
	dataDir, err := filepath.Abs(getEnv("DATA_DIR", "/data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	return &Config{
		DataDir:       dataDir,
		UploadsDir:    filepath.Join(dataDir, "uploads"),
		ThumbnailsDir: filepath.Join(dataDir, "thumbnails"),
		DatabasePath:  filepath.Join(dataDir, "slidekiosk.db"),
		ScanWorkers:   getEnvInt("SCAN_WORKERS", 0),
	}, nil
}

// LoadConfig loads configuration from environment variables and prepares
// the data directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := ResolveConfig()
	if err != nil {
		return nil, err
	}

	logging.Info("  DATA_DIR:     %s", config.DataDir)
	if config.ScanWorkers > 0 {
		logging.Info("  SCAN_WORKERS: %d", config.ScanWorkers)
	} else {
		logging.Info("  SCAN_WORKERS: auto")
	}
	logging.Info("  LOG_LEVEL:    %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Data directory (absolute): %s", config.DataDir)

	dirs := []struct {
		path string
		name string
	}{
		{config.DataDir, "data"},
		{config.UploadsDir, "uploads"},
		{config.ThumbnailsDir, "thumbnails"},
	}
	for _, dir := range dirs {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory ready: %s", dir.name, dir.path)
	}

	return config, nil
}

// DetectCapabilities probes the external helpers once. It never fails;
// a missing tool degrades the features that need it.
func DetectCapabilities(ctx context.Context) Capabilities {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CAPABILITY PROBE")
	logging.Info("------------------------------------------------------------")

	caps := Capabilities{}

	if err := checkTool(ctx, "ffmpeg"); err != nil {
		logging.Warn("  ffmpeg:  UNAVAILABLE (%v)", err)
		logging.Warn("           video thumbnails will be skipped")
	} else {
		caps.FFmpeg = true
		logging.Info("  ffmpeg:  OK")
	}

	if err := checkTool(ctx, "ffprobe"); err != nil {
		logging.Warn("  ffprobe: UNAVAILABLE (%v)", err)
		logging.Warn("           video uploads will be rejected")
	} else {
		caps.FFprobe = true
		logging.Info("  ffprobe: OK")
	}

	if err := media.InitVips(); err != nil {
		logging.Warn("  libvips: UNAVAILABLE (%v)", err)
		logging.Warn("           image thumbnails fall back to the pure-Go path")
	} else {
		caps.Vips = media.IsVipsAvailable()
		logging.Info("  libvips: OK")
	}

	return caps
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   _____ ___     __     __ __ _            __
  / ___// (_)___/ /__  / //_/(_)___  _____/ /__
  \__ \/ / / __  / _ \/ ,<  / / __ \(__  ) //_/
 ___/ / / / /_/ /  __/ /| |/ / /_/ /___/ / ,<
/____/_/_/\__,_/\___/_/ |_/_/\____/____/_/|_|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed regardless
	}
	return nil
}

// checkTool verifies an external binary is on PATH and answers -version.
func checkTool(ctx context.Context, name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, name, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	if lines := strings.Split(string(output), "\n"); len(lines) > 0 {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
