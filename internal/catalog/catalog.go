package catalog

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"slidekiosk/internal/database"
	"slidekiosk/internal/filesystem"
	"slidekiosk/internal/logging"
	"slidekiosk/internal/media"
	"slidekiosk/internal/mediatypes"
	"slidekiosk/internal/metrics"
	"slidekiosk/internal/probe"
)

// Catalog pairs the media table with the files on disk and keeps the two
// consistent. Files are stored flat: originals under uploadsDir as
// <contentID>.<ext>, thumbnails under thumbsDir as <contentID>.png.
type Catalog struct {
	db         *database.Database
	thumbs     *media.ThumbnailGenerator
	uploadsDir string
	thumbsDir  string
	retry      filesystem.RetryConfig
}

// New creates a catalog over the given database and media directories.
func New(db *database.Database, thumbs *media.ThumbnailGenerator, uploadsDir, thumbsDir string) *Catalog {
	return &Catalog{
		db:         db,
		thumbs:     thumbs,
		uploadsDir: uploadsDir,
		thumbsDir:  thumbsDir,
		retry:      filesystem.DefaultRetryConfig(),
	}
}

// OriginalPath returns where the record's original file lives on disk.
func (c *Catalog) OriginalPath(rec *database.MediaRecord) string {
	return filepath.Join(c.uploadsDir, rec.DiskFilename())
}

// ThumbnailPath returns where the record's thumbnail lives on disk.
func (c *Catalog) ThumbnailPath(rec *database.MediaRecord) string {
	return filepath.Join(c.thumbsDir, rec.ThumbnailFilename())
}

// newContentID returns a fresh 32-character lowercase hex identifier.
func newContentID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Register stores a new media file under a fresh content ID and inserts
// its catalog row. Videos must pass the web playability check, which needs
// ffprobe; a failed check removes the file again. A row is only inserted
// for a file that made it to disk, and a failed insert removes the file,
// so the pairing holds in both directions.
func (c *Catalog) Register(ctx context.Context, originalFilename string, content io.Reader) (*database.MediaRecord, error) {
	base := filepath.Base(originalFilename)
	fileType := mediatypes.GetFileType(base)
	if fileType == mediatypes.FileTypeNone {
		metrics.MediaRegistrationsTotal.WithLabelValues(string(fileType), "rejected").Inc()
		return nil, fmt.Errorf("%w: unsupported media type for %q", database.ErrValidation, base)
	}

	if fileType == mediatypes.FileTypeVideo && !c.thumbs.FFprobeAvailable {
		metrics.MediaRegistrationsTotal.WithLabelValues(string(fileType), "rejected").Inc()
		return nil, fmt.Errorf("%w: video uploads need ffprobe, which is not available", database.ErrValidation)
	}

	rec := &database.MediaRecord{
		ContentID:        newContentID(),
		OriginalFilename: base,
		DisplayName:      strings.TrimSuffix(base, filepath.Ext(base)),
		Extension:        strings.TrimPrefix(mediatypes.NormalizeExt(base), "."),
		MediaType:        string(fileType),
	}

	originalPath := c.OriginalPath(rec)
	if err := c.writeOriginal(originalPath, content); err != nil {
		metrics.MediaRegistrationsTotal.WithLabelValues(rec.MediaType, "error").Inc()
		return nil, err
	}

	if fileType == mediatypes.FileTypeVideo {
		if err := probe.ValidateWebPlayable(ctx, originalPath); err != nil {
			c.removeFile(originalPath)
			if errors.Is(err, probe.ErrNotWebPlayable) {
				metrics.MediaRegistrationsTotal.WithLabelValues(rec.MediaType, "rejected").Inc()
				return nil, fmt.Errorf("%w: %v", database.ErrValidation, err)
			}
			metrics.MediaRegistrationsTotal.WithLabelValues(rec.MediaType, "error").Inc()
			return nil, fmt.Errorf("failed to validate video %s: %w", base, err)
		}
	} else if result, err := media.OptimizeImage(ctx, originalPath); err != nil {
		// Oversized stills are a quality-of-life fix, not a gate
		logging.Warn("Failed to optimize %s: %v", base, err)
	} else if result.Rewritten {
		logging.Info("Resized oversized still %s: %dx%d -> %dx%d",
			base, result.OriginalWidth, result.OriginalHeight, result.FinalWidth, result.FinalHeight)
	}

	thumbPath := c.ThumbnailPath(rec)
	if err := c.thumbs.Generate(ctx, originalPath, thumbPath, fileType); err != nil {
		// Thumbnails are cosmetic; registration proceeds without one
		logging.Warn("Failed to generate thumbnail for %s: %v", base, err)
	}

	if err := c.db.InsertMedia(ctx, rec); err != nil {
		c.removeFile(originalPath)
		c.removeFile(thumbPath)
		metrics.MediaRegistrationsTotal.WithLabelValues(rec.MediaType, "error").Inc()
		return nil, err
	}

	if err := c.db.BumpMediaChanged(ctx); err != nil {
		logging.Warn("Failed to bump media change timestamp: %v", err)
	}

	metrics.MediaRegistrationsTotal.WithLabelValues(rec.MediaType, "success").Inc()
	c.updateMediaGauges(ctx)
	logging.Info("Registered %s %q as %s", rec.MediaType, base, rec.ContentID)
	return rec, nil
}

// ListAll returns every catalog record, newest first.
func (c *Catalog) ListAll(ctx context.Context) ([]database.MediaRecord, error) {
	return c.db.ListMedia(ctx)
}

// Get returns the record for a content ID.
func (c *Catalog) Get(ctx context.Context, contentID string) (*database.MediaRecord, error) {
	return c.db.GetMediaByContentID(ctx, contentID)
}

// Delete removes a media item's files and its catalog row. File removal
// is best-effort; only the row delete can fail the operation.
func (c *Catalog) Delete(ctx context.Context, contentID string) error {
	rec, err := c.db.GetMediaByContentID(ctx, contentID)
	if err != nil {
		metrics.MediaDeletionsTotal.WithLabelValues("error").Inc()
		return err
	}

	c.removeFile(c.OriginalPath(rec))
	c.removeFile(c.ThumbnailPath(rec))

	if err := c.db.DeleteMedia(ctx, contentID); err != nil {
		metrics.MediaDeletionsTotal.WithLabelValues("error").Inc()
		return err
	}

	if err := c.db.BumpMediaChanged(ctx); err != nil {
		logging.Warn("Failed to bump media change timestamp: %v", err)
	}

	metrics.MediaDeletionsTotal.WithLabelValues("success").Inc()
	c.updateMediaGauges(ctx)
	logging.Info("Deleted %s %s (%q)", rec.MediaType, rec.ContentID, rec.OriginalFilename)
	return nil
}

// writeOriginal streams content to path, removing any partial file on
// failure.
func (c *Catalog) writeOriginal(path string, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		c.removeFile(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		c.removeFile(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// removeFile deletes best-effort; a file that is already gone is fine.
func (c *Catalog) removeFile(path string) {
	if err := filesystem.RemoveWithRetry(path, c.retry); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove %s: %v", path, err)
	}
}

// updateMediaGauges refreshes the per-type catalog size gauges.
func (c *Catalog) updateMediaGauges(ctx context.Context) {
	counts, err := c.db.CountMediaByType(ctx)
	if err != nil {
		logging.Debug("Failed to refresh media counts: %v", err)
		return
	}
	for _, mediaType := range []string{"image", "video"} {
		metrics.MediaFilesTotal.WithLabelValues(mediaType).Set(float64(counts[mediaType]))
	}
}
