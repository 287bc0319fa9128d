package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"slidekiosk/internal/catalog"
	"slidekiosk/internal/database"
	"slidekiosk/internal/media"
	"slidekiosk/internal/mediatypes"
	"slidekiosk/internal/memory"
	"slidekiosk/internal/metrics"
	"slidekiosk/internal/startup"
)

// Default timeout for one-shot database operations
const defaultTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	command := os.Args[1]

	// Cap the heap before image decoding starts allocating
	memory.ConfigureFromEnv()

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.BuildTime)
	metrics.InitializeMetrics()

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		startup.LogShutdownInitiated(sig.String())
		cancel()
	}()

	ok := false
	switch command {
	case "init":
		ok = runInit(ctx)
	case "status":
		ok = runStatus(ctx)
	case "settings":
		ok = runSettings(ctx)
	case "set":
		ok = runSet(ctx, os.Args[2:])
	case "list":
		ok = runList(ctx)
	case "import":
		ok = runImport(ctx, os.Args[2:])
	case "rm":
		ok = runRemove(ctx, os.Args[2:])
	case "check":
		ok = runCheck(ctx)
	case "cleanup":
		ok = runCleanup(ctx)
	case "prune":
		ok = runPrune(ctx)
	case "resetpw":
		ok = runResetPassword(ctx)
	case "vacuum":
		ok = runVacuum(ctx)
	case "watch":
		ok = runWatch(ctx)
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand; only [a-zA-Z0-9_-] characters pass through
		printUsage()
		os.Exit(2)
	}

	// Guarded no-op when libvips was never initialized. Placed before the
	// exit so it runs even on command failure.
	media.ShutdownVips()

	if !ok {
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display. Any character that is not alphanumeric, a hyphen, or an
// underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Slidekiosk catalog administration")
	fmt.Println("")
	fmt.Println("Usage: kioskadmin <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  init              - Prepare directories, probe capabilities, create the database")
	fmt.Println("  status            - Show catalog counts and the last-changed timestamp")
	fmt.Println("  settings          - List stored settings rows with their raw values")
	fmt.Println("  set <key> <value> - Validate and store one setting")
	fmt.Println("  list              - List catalog rows with their content IDs")
	fmt.Println("  import <file>...  - Register local files into the catalog")
	fmt.Println("  rm <id>...        - Delete catalog rows and their files by content ID")
	fmt.Println("  check             - Report catalog/disk drift without changing anything")
	fmt.Println("  cleanup           - Remove files and directories no catalog row accounts for")
	fmt.Println("  prune             - Delete catalog rows whose files are gone from disk")
	fmt.Println("  resetpw           - Reset the admin password")
	fmt.Println("  vacuum            - Compact the database")
	fmt.Println("  watch             - Watch the media directories for drift until interrupted")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Println("  DATA_DIR     - Root data directory (default: /data)")
	fmt.Println("  SCAN_WORKERS - Parallel stat workers for drift scans (default: auto)")
	fmt.Println("  LOG_LEVEL    - debug, info, warn, or error (default: info)")
}

// openDatabase connects using the resolved configuration. It never
// creates the data directory; a bad DATA_DIR must read as an error, not
// silently become a fresh empty store.
func openDatabase(ctx context.Context, cfg *startup.Config) (*database.Database, bool) {
	db, err := database.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATA_DIR is set correctly (current: %s)\n", cfg.DataDir)
		return nil, false
	}
	return db, true
}

func closeDatabase(db *database.Database) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

// scanCatalog builds a catalog for scan-only commands. Drift scans never
// generate thumbnails, so no capability probe runs.
func scanCatalog(db *database.Database, cfg *startup.Config) *catalog.Catalog {
	return catalog.New(db, media.NewThumbnailGenerator(false, false, false), cfg.UploadsDir, cfg.ThumbnailsDir)
}

func runInit(ctx context.Context) bool {
	cfg, err := startup.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	caps := startup.DetectCapabilities(ctx)

	start := time.Now()
	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)
	startup.LogDatabaseInit(time.Since(start))

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	counts, err := db.CountMediaByType(opCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to count media: %v\n", err)
		return false
	}
	settings, err := db.CountSettings(opCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to count settings: %v\n", err)
		return false
	}

	fmt.Println("Initialized.")
	fmt.Printf("  Data directory: %s\n", cfg.DataDir)
	fmt.Printf("  Media:          %d images, %d videos\n", counts["image"], counts["video"])
	fmt.Printf("  Settings:       %d\n", settings)
	fmt.Printf("  Capabilities:   ffmpeg=%t ffprobe=%t vips=%t\n", caps.FFmpeg, caps.FFprobe, caps.Vips)
	return true
}

func runStatus(ctx context.Context) bool {
	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	counts, err := db.CountMediaByType(opCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to count media: %v\n", err)
		return false
	}
	settings, err := db.CountSettings(opCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to count settings: %v\n", err)
		return false
	}
	lastChanged, err := db.LastChanged(opCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read last-changed timestamp: %v\n", err)
		return false
	}

	info := startup.GetBuildInfo()
	fmt.Printf("Version:      %s (%s, %s/%s)\n", info.Version, info.Commit, info.OS, info.Arch)
	fmt.Printf("Database:     %s\n", cfg.DatabasePath)
	fmt.Printf("Media:        %d images, %d videos\n", counts["image"], counts["video"])
	fmt.Printf("Settings:     %d\n", settings)
	fmt.Printf("Last changed: %s\n", lastChanged.Format(time.RFC3339))
	if db.PasswordChanged(opCtx) {
		fmt.Println("Password:     changed from default")
	} else {
		fmt.Println("Password:     still the shipped default")
	}
	return true
}

func runSettings(ctx context.Context) bool {
	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := db.ListSettings(opCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list settings: %v\n", err)
		return false
	}

	fmt.Printf("%d settings stored\n", len(rows))
	for _, row := range rows {
		fmt.Printf("  %-34s %s\n", row.Key, row.Value)
	}
	return true
}

func runSet(ctx context.Context, args []string) bool {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: kioskadmin set <key> <value>")
		return false
	}
	key := args[0]

	// Validation needs no store, so bad input fails before any connection.
	value := parseSettingValue(args[1])
	if err := database.ValidateSetting(key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.SetSetting(opCtx, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to store setting: %v\n", err)
		return false
	}

	updated, err := db.SettingLastUpdated(opCtx, key)
	if err != nil {
		fmt.Printf("Stored %s\n", key)
		return true
	}
	fmt.Printf("Stored %s (updated %s)\n", key, updated.Format(time.RFC3339))
	return true
}

// parseSettingValue decodes raw as JSON so booleans, numbers, and lists
// arrive typed. Anything that is not valid JSON is taken as a plain
// string, which lets operators write `set watermark_text Lobby` without
// shell-quoted JSON.
func parseSettingValue(raw string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func runList(ctx context.Context) bool {
	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	cat := scanCatalog(db, cfg)

	records, err := cat.ListAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list catalog: %v\n", err)
		return false
	}

	fmt.Printf("%d catalog rows\n", len(records))
	for _, rec := range records {
		fmt.Printf("  %s  %-15s %s  %q\n",
			rec.ContentID,
			mediatypes.GetMimeType(rec.Extension),
			rec.UploadedAt.Format(time.RFC3339),
			rec.DisplayName)
	}
	return true
}

func runRemove(ctx context.Context, ids []string) bool {
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: kioskadmin rm <content-id>...")
		return false
	}

	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	cat := scanCatalog(db, cfg)

	failed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}

		rec, err := cat.Get(ctx, id)
		if err != nil {
			fmt.Printf("  FAIL %s: %v\n", id, err)
			failed++
			continue
		}
		if err := cat.Delete(ctx, id); err != nil {
			fmt.Printf("  FAIL %s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("  OK   %s (%q)\n", id, rec.OriginalFilename)
	}

	fmt.Printf("Removed %d of %d items\n", len(ids)-failed, len(ids))
	return failed == 0
}

func runImport(ctx context.Context, paths []string) bool {
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: kioskadmin import <file>...")
		return false
	}

	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	caps := startup.DetectCapabilities(ctx)

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	thumbs := media.NewThumbnailGenerator(caps.FFmpeg, caps.FFprobe, caps.Vips)
	cat := catalog.New(db, thumbs, cfg.UploadsDir, cfg.ThumbnailsDir)

	failed := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}

		f, err := os.Open(path)
		if err != nil {
			fmt.Printf("  FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		rec, err := cat.Register(ctx, filepath.Base(path), f)
		f.Close()
		if err != nil {
			fmt.Printf("  FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("  OK   %s -> %s\n", path, rec.ContentID)
	}

	fmt.Printf("Imported %d of %d files\n", len(paths)-failed, len(paths))
	return failed == 0
}

func runCheck(ctx context.Context) bool {
	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	cat := scanCatalog(db, cfg)

	missing, err := cat.FindMissing(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Missing file scan failed: %v\n", err)
		return false
	}
	unexpected, err := cat.FindUnexpected(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Unexpected item scan failed: %v\n", err)
		return false
	}

	printDriftReport(missing, unexpected)
	return true
}

func printDriftReport(missing *catalog.MissingReport, unexpected *catalog.UnexpectedReport) {
	fmt.Printf("Checked %d registered files\n", missing.Checked)

	if len(missing.Entries) == 0 && unexpected.Total() == 0 {
		fmt.Println("Catalog and disk are consistent.")
		return
	}

	for _, entry := range missing.Entries {
		note := ""
		if entry.ThumbnailMissing {
			note = " (thumbnail too)"
		}
		fmt.Printf("  missing   %s (%q)%s\n", entry.Record.ContentID, entry.Record.OriginalFilename, note)
	}
	for _, item := range unexpected.Orphaned {
		fmt.Printf("  orphaned  %s/%s\n", item.Folder, item.Name)
	}
	for _, item := range unexpected.Files {
		fmt.Printf("  stray     %s/%s\n", item.Folder, item.Name)
	}
	for _, item := range unexpected.Dirs {
		fmt.Printf("  directory %s/%s\n", item.Folder, item.Name)
	}
	fmt.Printf("%d missing, %d unexpected. Run prune and cleanup to repair.\n",
		len(missing.Entries), unexpected.Total())
}

func runCleanup(ctx context.Context) bool {
	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	cat := scanCatalog(db, cfg)

	unexpected, err := cat.FindUnexpected(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Unexpected item scan failed: %v\n", err)
		return false
	}
	if unexpected.Total() == 0 {
		fmt.Println("Nothing unexpected to clean up.")
		return true
	}

	result, err := cat.CleanupUnexpected(ctx, unexpected)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cleanup failed: %v\n", err)
		return false
	}

	fmt.Printf("Removed %d files and %d directories (%d errors)\n",
		result.FilesDeleted, result.DirsDeleted, result.Errors)
	return result.Errors == 0
}

func runPrune(ctx context.Context) bool {
	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	cat := scanCatalog(db, cfg)

	missing, err := cat.FindMissing(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Missing file scan failed: %v\n", err)
		return false
	}
	if len(missing.Entries) == 0 {
		fmt.Printf("Checked %d registered files, nothing to prune.\n", missing.Checked)
		return true
	}

	result, err := cat.PruneMissing(ctx, missing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Prune failed: %v\n", err)
		return false
	}

	fmt.Printf("Pruned %d of %d missing rows (%d errors)\n",
		result.Deleted, len(missing.Entries), result.Errors)
	return result.Errors == 0
}

func runResetPassword(ctx context.Context) bool {
	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fmt.Print("New Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return false
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return false
	}

	if !bytes.Equal(password, confirm) {
		fmt.Fprintln(os.Stderr, "Error: Passwords do not match")
		return false
	}

	if len(password) < 6 {
		fmt.Fprintln(os.Stderr, "Error: Password must be at least 6 characters")
		return false
	}

	if err := db.SetInitialPassword(opCtx, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to set password: %v\n", err)
		return false
	}

	fmt.Println("Password updated successfully.")
	return true
}

func runVacuum(ctx context.Context) bool {
	cfg, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)

	start := time.Now()
	if err := db.Vacuum(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Vacuum failed: %v\n", err)
		return false
	}

	fmt.Printf("Vacuumed %s in %s\n", cfg.DatabasePath, time.Since(start).Round(time.Millisecond))
	return true
}

func runWatch(ctx context.Context) bool {
	cfg, err := startup.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	start := time.Now()
	db, ok := openDatabase(ctx, cfg)
	if !ok {
		return false
	}
	defer closeDatabase(db)
	startup.LogDatabaseInit(time.Since(start))

	collector := metrics.NewCollector(db, 30*time.Second)
	collector.Start()
	defer collector.Stop()

	cat := scanCatalog(db, cfg)

	if err := cat.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: Watcher failed: %v\n", err)
		return false
	}

	startup.LogShutdownComplete()
	return true
}
