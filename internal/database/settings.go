package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"slidekiosk/internal/logging"
	"slidekiosk/internal/metrics"
)

// GetSetting returns the stored value for key. When the row is absent or
// unreadable it returns fallback, and when fallback is nil the compiled
// default for the key. It never returns an error; read failures are logged
// and degrade through the fallback chain (self-healing the schema first).
//
// Values come back as JSON decodes them: numbers are float64, lists are
// []interface{}.
func (d *Database) GetSetting(ctx context.Context, key string, fallback interface{}) interface{} {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_setting", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var raw string
	err = d.withSchemaRetry(ctx, func() error {
		return d.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		// Absence is normal, not a failure.
		err = nil
		return fallbackFor(key, fallback)
	}
	if err != nil {
		logging.Warn("Failed to read setting %q, degrading to fallback: %v", key, err)
		return fallbackFor(key, fallback)
	}

	var value interface{}
	if jsonErr := json.Unmarshal([]byte(raw), &value); jsonErr != nil {
		// The row stays in place for inspection; readers degrade.
		logging.Warn("Setting %q holds undecodable JSON, degrading to fallback: %v", key, jsonErr)
		return fallbackFor(key, fallback)
	}

	metrics.SettingsReadsTotal.WithLabelValues("stored").Inc()
	return value
}

func fallbackFor(key string, fallback interface{}) interface{} {
	if fallback != nil {
		metrics.SettingsReadsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}
	metrics.SettingsReadsTotal.WithLabelValues("default").Inc()
	return defaultSettings[key]
}

// SetSetting JSON-encodes value and upserts it under key, refreshing
// last_updated. A missing schema is bootstrapped and the write retried once.
func (d *Database) SetSetting(ctx context.Context, key string, value interface{}) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_setting", start, err) }()

	encoded, jsonErr := json.Marshal(value)
	if jsonErr != nil {
		err = fmt.Errorf("%w: value for setting %q is not JSON-encodable: %v", ErrValidation, key, jsonErr)
		metrics.SettingsWritesTotal.WithLabelValues("error").Inc()
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withSchemaRetry(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, `
			INSERT INTO settings (key, value, last_updated)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				last_updated = excluded.last_updated
		`, key, string(encoded), time.Now().UTC())
		return execErr
	})
	if err != nil {
		metrics.SettingsWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: failed to store setting %q: %w", ErrPersistence, key, err)
	}

	metrics.SettingsWritesTotal.WithLabelValues("success").Inc()
	return nil
}

// LoadSettings returns the compiled defaults overlaid with every stored
// row. It never returns nil and never fails: rows that no longer decode are
// skipped with a warning, and an unreadable store yields pure defaults.
func (d *Database) LoadSettings(ctx context.Context) map[string]interface{} {
	start := time.Now()
	var err error
	defer func() { recordQuery("load_settings", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	out := Defaults()

	err = d.withSchemaRetry(ctx, func() error {
		rows, queryErr := d.db.QueryContext(ctx, "SELECT key, value FROM settings")
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		// Buffer the overlay so a retried attempt starts clean.
		loaded := make(map[string]interface{})
		for rows.Next() {
			var key, raw string
			if scanErr := rows.Scan(&key, &raw); scanErr != nil {
				return scanErr
			}
			var value interface{}
			if jsonErr := json.Unmarshal([]byte(raw), &value); jsonErr != nil {
				logging.Warn("Skipping setting %q with undecodable JSON: %v", key, jsonErr)
				continue
			}
			loaded[key] = value
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}

		for k, v := range loaded {
			out[k] = v
		}
		return nil
	})
	if err != nil {
		logging.Error("Failed to load settings, serving compiled defaults: %v", err)
		return Defaults()
	}

	metrics.SettingsTotal.Set(float64(len(out)))
	return out
}

// Bootstrap seeds missing setting defaults and removes deprecated keys. It
// never overwrites an operator's stored value and is safe to run repeatedly,
// including from concurrent processes.
func (d *Database) Bootstrap(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.ensureSchema(ctx)
}

// bootstrapSettings does the seeding inside one transaction. Callers manage
// locking; the schema-retry path runs this under a read lock.
func (d *Database) bootstrapSettings(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("bootstrap_settings", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bootstrap transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Error("Bootstrap rollback failed: %v", rbErr)
			}
		}
	}()

	now := time.Now().UTC()
	for key, value := range defaultSettings {
		encoded, jsonErr := json.Marshal(value)
		if jsonErr != nil {
			err = fmt.Errorf("compiled default for %q is not JSON-encodable: %w", key, jsonErr)
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO settings (key, value, last_updated)
			VALUES (?, ?, ?)
		`, key, string(encoded), now); err != nil {
			err = fmt.Errorf("failed to seed setting %q: %w", key, err)
			return err
		}
	}

	for _, key := range deprecatedSettings {
		if _, err = tx.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
			err = fmt.Errorf("failed to remove deprecated setting %q: %w", key, err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("failed to commit bootstrap: %w", err)
		return err
	}
	return nil
}

// ListSettings returns every stored settings row ordered by key, values
// still JSON-encoded. Unlike LoadSettings it reports only what is actually
// in the store, with no defaults overlaid.
func (d *Database) ListSettings(ctx context.Context) ([]Setting, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_settings", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var out []Setting
	err = d.withSchemaRetry(ctx, func() error {
		rows, queryErr := d.db.QueryContext(ctx, "SELECT key, value, last_updated FROM settings ORDER BY key")
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var s Setting
			if scanErr := rows.Scan(&s.Key, &s.Value, &s.LastUpdated); scanErr != nil {
				return scanErr
			}
			s.LastUpdated = s.LastUpdated.UTC()
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list settings: %w", ErrPersistence, err)
	}

	return out, nil
}

// SettingLastUpdated returns the last_updated timestamp of one settings
// row, or ErrNotFound when the key has never been written.
func (d *Database) SettingLastUpdated(ctx context.Context, key string) (time.Time, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("setting_last_updated", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ts time.Time
	err = d.withSchemaRetry(ctx, func() error {
		return d.db.QueryRowContext(ctx, "SELECT last_updated FROM settings WHERE key = ?", key).Scan(&ts)
	})
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to read last_updated for %q: %w", ErrPersistence, key, err)
	}

	return ts.UTC(), nil
}

// CountSettings returns the number of stored settings rows.
func (d *Database) CountSettings(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_settings", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err = d.withSchemaRetry(ctx, func() error {
		return d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count settings: %w", ErrPersistence, err)
	}

	return count, nil
}
