package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"slidekiosk/internal/logging"
	"slidekiosk/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages the settings store and the media catalog.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex

	// lastChanged is the high-water mark handed out by LastChanged.
	lastChanged time.Time
	lastMu      sync.Mutex
}

// Options tunes connection behavior. A nil Options uses the defaults.
type Options struct {
	BusyTimeoutMS int // SQLite busy handler timeout, default 5000
	MaxOpenConns  int // connection pool ceiling, default 25
	MaxIdleConns  int // idle pool size, default 10
}

func (o *Options) withDefaults() Options {
	out := Options{BusyTimeoutMS: 5000, MaxOpenConns: 25, MaxIdleConns: 10}
	if o == nil {
		return out
	}
	if o.BusyTimeoutMS > 0 {
		out.BusyTimeoutMS = o.BusyTimeoutMS
	}
	if o.MaxOpenConns > 0 {
		out.MaxOpenConns = o.MaxOpenConns
	}
	if o.MaxIdleConns > 0 {
		out.MaxIdleConns = o.MaxIdleConns
	}
	return out
}

// New opens (creating if necessary) the database at dbPath, prepares the
// schema, and seeds missing setting defaults.
// dbPath must be the full path to the database FILE (e.g. "/data/slidekiosk.db"),
// and the parent directory must already exist and be writable.
// Use startup.LoadConfig() to ensure proper directory validation before calling this.
func New(ctx context.Context, dbPath string, opts *Options) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	cfg := opts.withDefaults()

	// Diagnose potential permission issues
	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// WAL mode and a busy timeout prevent "database is locked" errors when
	// the CLI and a server process share the file.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=%d",
		dbPath, cfg.BusyTimeoutMS)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.ensureSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

// ensureSchema creates missing tables and seeds missing setting defaults.
// It takes no lock; callers hold whatever they need.
func (d *Database) ensureSchema(ctx context.Context) error {
	if err := d.initialize(ctx); err != nil {
		return err
	}
	return d.bootstrapSettings(ctx)
}

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	-- Settings key/value store. Values are JSON-encoded.
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		last_updated DATETIME NOT NULL
	);

	-- Media catalog. One row per uploaded file; content_id names the
	-- on-disk original and thumbnail.
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_id TEXT NOT NULL UNIQUE,
		original_filename TEXT NOT NULL,
		display_name TEXT NOT NULL,
		extension TEXT NOT NULL,
		media_type TEXT NOT NULL DEFAULT 'image',
		uploaded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_media_type ON media(media_type);
	CREATE INDEX IF NOT EXISTS idx_media_uploaded_at ON media(uploaded_at);
	`

	if _, err = d.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	// Run migrations
	err = d.runMigrations(ctx)
	return err
}

// runMigrations applies database schema migrations
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: add media_type to catalogs created before video support
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('media')
		WHERE name='media_type'
	`).Scan(&columnExists)

	if err != nil {
		return fmt.Errorf("failed to check for media_type column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating database: adding media_type column to media table")

		_, err = d.db.ExecContext(ctx, `
			ALTER TABLE media ADD COLUMN media_type TEXT NOT NULL DEFAULT 'image'
		`)
		if err != nil {
			return fmt.Errorf("failed to add media_type column: %w", err)
		}

		logging.Info("Migration complete: media_type column added")
	}

	return nil
}

// isSchemaMissing recognizes the driver's "no such table" condition. SQLite
// reports it only through the generic error code plus message text, so the
// classification lives here and nowhere else.
func isSchemaMissing(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrError {
		return strings.Contains(sqliteErr.Error(), "no such table")
	}
	return false
}

// isUniqueViolation recognizes a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.Code == sqlite3.ErrConstraint &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// withSchemaRetry runs op. If op fails because a table is missing, the
// schema is bootstrapped once and op retried once; any further failure is
// returned as-is. The one-bootstrap limit keeps a broken store from looping.
func (d *Database) withSchemaRetry(ctx context.Context, op func() error) error {
	err := op()
	if !isSchemaMissing(err) {
		return err
	}

	logging.Warn("Schema missing; bootstrapping and retrying: %v", err)
	metrics.DBSchemaBootstrapsTotal.Inc()

	if bootErr := d.ensureSchema(ctx); bootErr != nil {
		return fmt.Errorf("%w: schema bootstrap failed: %w (after: %v)", ErrPersistence, bootErr, err)
	}

	return op()
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Vacuum optimizes the database.
func (d *Database) Vacuum() error {
	start := time.Now()
	var err error
	defer func() { recordQuery("vacuum", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "VACUUM")
	return err
}

// GetStats implements metrics.StatsProvider with live row counts.
func (d *Database) GetStats() metrics.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stats metrics.Stats

	counts, err := d.CountMediaByType(ctx)
	if err != nil {
		logging.Debug("Stats collection failed counting media: %v", err)
	} else {
		stats.TotalImages = counts["image"]
		stats.TotalVideos = counts["video"]
	}

	settings, err := d.CountSettings(ctx)
	if err != nil {
		logging.Debug("Stats collection failed counting settings: %v", err)
	} else {
		stats.TotalSettings = settings
	}

	return stats
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics refreshes connection and file-size gauges.
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))

	files := map[string]string{
		"main": d.dbPath,
		"wal":  d.dbPath + "-wal",
		"shm":  d.dbPath + "-shm",
	}
	for label, path := range files {
		if info, err := os.Stat(path); err == nil {
			metrics.DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
		}
	}
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	// Check if directory is writable by testing
	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile) // Explicitly ignore cleanup error
	logging.Debug("Database directory is writable")

	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	// WAL sidecar files must stay writable or every write fails
	for _, suffix := range []string{"-wal", "-shm"} {
		sidecar := dbPath + suffix
		info, err := os.Stat(sidecar)
		if err != nil {
			continue
		}
		logging.Debug("Sidecar file %s (mode: %v, size: %d bytes)", sidecar, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("Sidecar file %s is read-only (mode %v)", sidecar, info.Mode())
		if chmodErr := os.Chmod(sidecar, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", sidecar, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", sidecar)
		}
	}

	return nil
}
