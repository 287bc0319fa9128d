package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slidekiosk/internal/logging"
	"slidekiosk/internal/mediatypes"
)

// InsertMedia stores a new catalog row and fills in rec.ID. ContentID must
// be a fresh content token; a UNIQUE collision means token generation is
// broken and comes back as ErrIntegrity.
func (d *Database) InsertMedia(ctx context.Context, rec *MediaRecord) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_media", start, err) }()

	if !mediatypes.IsContentToken(rec.ContentID) {
		err = fmt.Errorf("%w: %q is not a content token", ErrValidation, rec.ContentID)
		return err
	}
	if rec.Extension == "" {
		err = fmt.Errorf("%w: media record needs an extension", ErrValidation)
		return err
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withSchemaRetry(ctx, func() error {
		res, execErr := d.db.ExecContext(ctx, `
			INSERT INTO media (content_id, original_filename, display_name, extension, media_type, uploaded_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.ContentID, rec.OriginalFilename, rec.DisplayName, rec.Extension, rec.MediaType, rec.UploadedAt)
		if execErr != nil {
			return execErr
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return idErr
		}
		rec.ID = id
		return nil
	})
	if isUniqueViolation(err) {
		logging.Error("Content token collision on %s; token generation is defective", rec.ContentID)
		err = fmt.Errorf("%w: duplicate content token %s", ErrIntegrity, rec.ContentID)
		return err
	}
	if err != nil {
		err = fmt.Errorf("%w: failed to insert media record: %w", ErrPersistence, err)
		return err
	}

	return nil
}

// ListMedia returns every catalog row, newest first.
func (d *Database) ListMedia(ctx context.Context) ([]MediaRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_media", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var records []MediaRecord
	err = d.withSchemaRetry(ctx, func() error {
		rows, queryErr := d.db.QueryContext(ctx, `
			SELECT id, content_id, original_filename, display_name, extension, media_type, uploaded_at
			FROM media
			ORDER BY uploaded_at DESC, id DESC
		`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			var rec MediaRecord
			if scanErr := rows.Scan(&rec.ID, &rec.ContentID, &rec.OriginalFilename,
				&rec.DisplayName, &rec.Extension, &rec.MediaType, &rec.UploadedAt); scanErr != nil {
				return scanErr
			}
			rec.UploadedAt = rec.UploadedAt.UTC()
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list media: %w", ErrPersistence, err)
	}

	return records, nil
}

// GetMediaByContentID returns one catalog row, or ErrNotFound.
func (d *Database) GetMediaByContentID(ctx context.Context, contentID string) (*MediaRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_media", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec MediaRecord
	err = d.withSchemaRetry(ctx, func() error {
		return d.db.QueryRowContext(ctx, `
			SELECT id, content_id, original_filename, display_name, extension, media_type, uploaded_at
			FROM media
			WHERE content_id = ?
		`, contentID).Scan(&rec.ID, &rec.ContentID, &rec.OriginalFilename,
			&rec.DisplayName, &rec.Extension, &rec.MediaType, &rec.UploadedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get media %s: %w", ErrPersistence, contentID, err)
	}

	rec.UploadedAt = rec.UploadedAt.UTC()
	return &rec, nil
}

// DeleteMedia removes the catalog row for contentID, returning ErrNotFound
// when no row matched.
func (d *Database) DeleteMedia(ctx context.Context, contentID string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_media", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withSchemaRetry(ctx, func() error {
		res, execErr := d.db.ExecContext(ctx, "DELETE FROM media WHERE content_id = ?", contentID)
		if execErr != nil {
			return execErr
		}
		affected, raErr := res.RowsAffected()
		if raErr != nil {
			return raErr
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: failed to delete media %s: %w", ErrPersistence, contentID, err)
	}

	return nil
}

// DeleteMediaByID removes a catalog row by primary key. Pruning uses this
// form so records whose files vanished are addressed stably even if a
// content token were somehow reused.
func (d *Database) DeleteMediaByID(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_media", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withSchemaRetry(ctx, func() error {
		res, execErr := d.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
		if execErr != nil {
			return execErr
		}
		affected, raErr := res.RowsAffected()
		if raErr != nil {
			return raErr
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: failed to delete media row %d: %w", ErrPersistence, id, err)
	}

	return nil
}

// ListContentIDs returns the set of known content tokens. Reconciliation
// uses it to separate catalog-backed files from strays.
func (d *Database) ListContentIDs(ctx context.Context) (map[string]bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_media", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ids := make(map[string]bool)
	err = d.withSchemaRetry(ctx, func() error {
		rows, queryErr := d.db.QueryContext(ctx, "SELECT content_id FROM media")
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		clear(ids)
		for rows.Next() {
			var id string
			if scanErr := rows.Scan(&id); scanErr != nil {
				return scanErr
			}
			ids[id] = true
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list content tokens: %w", ErrPersistence, err)
	}

	return ids, nil
}

// CountMediaByType returns row counts keyed by media_type.
func (d *Database) CountMediaByType(ctx context.Context) (map[string]int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_media", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	counts := make(map[string]int)
	err = d.withSchemaRetry(ctx, func() error {
		rows, queryErr := d.db.QueryContext(ctx, "SELECT media_type, COUNT(*) FROM media GROUP BY media_type")
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		clear(counts)
		for rows.Next() {
			var mediaType string
			var count int
			if scanErr := rows.Scan(&mediaType, &count); scanErr != nil {
				return scanErr
			}
			counts[mediaType] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count media: %w", ErrPersistence, err)
	}

	return counts, nil
}
