package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"slidekiosk/internal/logging"
)

// mediaChangedKey is the reserved settings row bumped on every catalog
// mutation. Its value is an RFC 3339 timestamp string, so media changes
// surface through the same store clients already poll.
const mediaChangedKey = "media_last_changed"

// BumpMediaChanged records that the media catalog just changed.
func (d *Database) BumpMediaChanged(ctx context.Context) error {
	return d.SetSetting(ctx, mediaChangedKey, time.Now().UTC().Format(time.RFC3339Nano))
}

// LastChanged returns the most recent change instant across settings writes
// and catalog mutations. An empty store yields the zero time with a nil
// error; only an unreadable store returns an error (wrapping
// ErrPersistence). Successive calls never go backwards within a process.
func (d *Database) LastChanged(ctx context.Context) (time.Time, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("last_changed", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var latest time.Time
	err = d.withSchemaRetry(ctx, func() error {
		rows, queryErr := d.db.QueryContext(ctx, "SELECT key, value, last_updated FROM settings")
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		latest = time.Time{}
		for rows.Next() {
			var key, value string
			var updated time.Time
			if scanErr := rows.Scan(&key, &value, &updated); scanErr != nil {
				return scanErr
			}
			if updated.After(latest) {
				latest = updated
			}
			if key != mediaChangedKey {
				continue
			}
			// The value is JSON-encoded, so the timestamp arrives quoted.
			var stamp string
			if jsonErr := json.Unmarshal([]byte(value), &stamp); jsonErr != nil {
				logging.Warn("Reserved key %q holds undecodable value: %v", mediaChangedKey, jsonErr)
				continue
			}
			bumped, parseErr := time.Parse(time.RFC3339Nano, stamp)
			if parseErr != nil {
				logging.Warn("Reserved key %q holds unparsable timestamp %q: %v", mediaChangedKey, stamp, parseErr)
				continue
			}
			if bumped.After(latest) {
				latest = bumped
			}
		}
		return rows.Err()
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to read change timestamps: %w", ErrPersistence, err)
	}

	latest = latest.UTC()

	// Clamp so callers never observe time moving backwards.
	d.lastMu.Lock()
	defer d.lastMu.Unlock()
	if latest.Before(d.lastChanged) {
		return d.lastChanged, nil
	}
	d.lastChanged = latest
	return latest, nil
}
