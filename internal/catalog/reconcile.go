package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"slidekiosk/internal/database"
	"slidekiosk/internal/filesystem"
	"slidekiosk/internal/logging"
	"slidekiosk/internal/mediatypes"
	"slidekiosk/internal/metrics"
	"slidekiosk/internal/workers"
)

// maxScanWorkers caps the stat fan-out so a sweep cannot swamp an NFS
// export regardless of the host's core count.
const maxScanWorkers = 16

// ErrOutsideRoot indicates a reported item resolves outside its managed
// directory and will not be touched.
var ErrOutsideRoot = errors.New("path outside managed directory")

// Folder labels identifying which managed directory an item was found in.
const (
	FolderUploads    = "uploads"
	FolderThumbnails = "thumbnails"
)

// MissingEntry is a catalog row whose original file is gone from disk.
type MissingEntry struct {
	Record       database.MediaRecord `json:"record"`
	OriginalPath string               `json:"originalPath"`
	// ThumbnailMissing notes that the thumbnail is gone too. It is
	// informational; only the original's absence makes a row missing.
	ThumbnailMissing bool `json:"thumbnailMissing"`
}

// MissingReport lists rows whose backing files have disappeared.
type MissingReport struct {
	Entries []MissingEntry `json:"entries"`
	Checked int            `json:"checked"`
}

// UnexpectedItem is a directory entry no catalog row accounts for.
type UnexpectedItem struct {
	Folder string `json:"folder"`
	Name   string `json:"name"`
}

// UnexpectedReport groups unaccounted directory entries. The buckets are
// disjoint: every item lands in exactly one.
type UnexpectedReport struct {
	// Orphaned files look like catalog output (content-token stem with a
	// recognized extension) but match no row.
	Orphaned []UnexpectedItem `json:"orphaned"`
	// Files is everything else that is not a directory.
	Files []UnexpectedItem `json:"files"`
	// Dirs are subdirectories; the managed folders are flat.
	Dirs []UnexpectedItem `json:"dirs"`
}

// Total returns the number of items across all buckets.
func (r *UnexpectedReport) Total() int {
	return len(r.Orphaned) + len(r.Files) + len(r.Dirs)
}

// CleanupResult counts what CleanupUnexpected removed.
type CleanupResult struct {
	FilesDeleted int `json:"filesDeleted"`
	DirsDeleted  int `json:"dirsDeleted"`
	Errors       int `json:"errors"`
}

// PruneResult counts what PruneMissing deleted.
type PruneResult struct {
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

// FindMissing stats every registered original and reports rows whose file
// is gone. Thumbnail absence is noted on each entry but never makes a row
// missing on its own.
func (c *Catalog) FindMissing(ctx context.Context) (*MissingReport, error) {
	start := time.Now()

	// A vanished uploads directory reads as a mount failure, never as a
	// catalog where every file is gone.
	if _, err := os.Stat(c.uploadsDir); err != nil {
		return nil, fmt.Errorf("failed to scan %s directory: %w", FolderUploads, err)
	}

	records, err := c.db.ListMedia(ctx)
	if err != nil {
		return nil, err
	}

	// Workers fill disjoint indices; WaitGroup publishes them to the
	// assembly loop below.
	missingOriginal := make([]bool, len(records))
	missingThumb := make([]bool, len(records))

	numWorkers := workers.ForIO(maxScanWorkers)
	if numWorkers > len(records) {
		numWorkers = len(records)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec := &records[i]
				if _, err := filesystem.StatWithRetry(c.OriginalPath(rec), c.retry); os.IsNotExist(err) {
					missingOriginal[i] = true
					if _, err := filesystem.StatWithRetry(c.ThumbnailPath(rec), c.retry); os.IsNotExist(err) {
						missingThumb[i] = true
					}
				}
			}
		}()
	}

	feedErr := func() error {
		defer close(jobs)
		for i := range records {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}()
	wg.Wait()

	if feedErr != nil {
		return nil, feedErr
	}

	report := &MissingReport{Checked: len(records)}
	for i := range records {
		if missingOriginal[i] {
			report.Entries = append(report.Entries, MissingEntry{
				Record:           records[i],
				OriginalPath:     c.OriginalPath(&records[i]),
				ThumbnailMissing: missingThumb[i],
			})
		}
	}

	metrics.ReconcileRunsTotal.WithLabelValues("missing").Inc()
	metrics.ReconcileLastRunDuration.WithLabelValues("missing").Set(time.Since(start).Seconds())
	metrics.MissingFilesFound.Set(float64(len(report.Entries)))

	if len(report.Entries) > 0 {
		logging.Warn("Missing file scan: %d of %d registered files gone", len(report.Entries), report.Checked)
	} else {
		logging.Debug("Missing file scan: all %d registered files present", report.Checked)
	}

	return report, nil
}

// FindUnexpected scans the uploads and thumbnails directories for entries
// no catalog row accounts for.
func (c *Catalog) FindUnexpected(ctx context.Context) (*UnexpectedReport, error) {
	start := time.Now()

	known, err := c.db.ListContentIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &UnexpectedReport{}
	if err := scanFolder(FolderUploads, c.uploadsDir, known, mediatypes.IsMediaFile, report); err != nil {
		return nil, err
	}
	if err := scanFolder(FolderThumbnails, c.thumbsDir, known, isThumbnailName, report); err != nil {
		return nil, err
	}

	metrics.ReconcileRunsTotal.WithLabelValues("unexpected").Inc()
	metrics.ReconcileLastRunDuration.WithLabelValues("unexpected").Set(time.Since(start).Seconds())
	metrics.UnexpectedItemsFound.WithLabelValues("orphaned").Set(float64(len(report.Orphaned)))
	metrics.UnexpectedItemsFound.WithLabelValues("file").Set(float64(len(report.Files)))
	metrics.UnexpectedItemsFound.WithLabelValues("dir").Set(float64(len(report.Dirs)))

	if report.Total() > 0 {
		logging.Warn("Unexpected item scan: %d orphaned, %d files, %d dirs",
			len(report.Orphaned), len(report.Files), len(report.Dirs))
	} else {
		logging.Debug("Unexpected item scan: clean")
	}

	return report, nil
}

func isThumbnailName(name string) bool {
	return mediatypes.NormalizeExt(name) == mediatypes.ThumbnailExt
}

// scanFolder classifies each directory entry into exactly one bucket.
// A folder that cannot be read is an error, never an empty report.
func scanFolder(folder, dir string, known map[string]bool, recognized func(string) bool, report *UnexpectedReport) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to scan %s directory: %w", folder, err)
	}

	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() {
			report.Dirs = append(report.Dirs, UnexpectedItem{Folder: folder, Name: name})
			continue
		}

		if mediatypes.IsSystemArtifact(name) {
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if mediatypes.IsContentToken(stem) && recognized(name) {
			if !known[stem] {
				report.Orphaned = append(report.Orphaned, UnexpectedItem{Folder: folder, Name: name})
			}
			continue
		}

		report.Files = append(report.Files, UnexpectedItem{Folder: folder, Name: name})
	}

	return nil
}

// CleanupUnexpected removes every item in the report. Each path is
// re-resolved and verified to sit under its managed root before anything
// is touched.
func (c *Catalog) CleanupUnexpected(ctx context.Context, report *UnexpectedReport) (*CleanupResult, error) {
	start := time.Now()
	result := &CleanupResult{}

	files := make([]UnexpectedItem, 0, len(report.Orphaned)+len(report.Files))
	files = append(files, report.Orphaned...)
	files = append(files, report.Files...)

	for _, item := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		c.removeUnexpectedFile(item, result)
	}

	for _, item := range report.Dirs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		c.removeUnexpectedDir(item, result)
	}

	metrics.ReconcileRunsTotal.WithLabelValues("cleanup").Inc()
	metrics.ReconcileLastRunDuration.WithLabelValues("cleanup").Set(time.Since(start).Seconds())

	logging.Info("Cleanup removed %d files and %d dirs with %d errors",
		result.FilesDeleted, result.DirsDeleted, result.Errors)
	return result, nil
}

func (c *Catalog) removeUnexpectedFile(item UnexpectedItem, result *CleanupResult) {
	path, err := c.resolveManaged(item)
	if err != nil {
		logging.Error("Refusing cleanup of %s/%s: %v", item.Folder, item.Name, err)
		metrics.CleanupRemovalsTotal.WithLabelValues("file", "error").Inc()
		result.Errors++
		return
	}

	if err := filesystem.RemoveWithRetry(path, c.retry); err != nil {
		if os.IsNotExist(err) {
			logging.Warn("Unexpected file %s already gone", path)
			return
		}
		logging.Error("Failed to remove unexpected file %s: %v", path, err)
		metrics.CleanupRemovalsTotal.WithLabelValues("file", "error").Inc()
		result.Errors++
		return
	}

	metrics.CleanupRemovalsTotal.WithLabelValues("file", "success").Inc()
	result.FilesDeleted++
	logging.Info("Removed unexpected file %s", path)
}

func (c *Catalog) removeUnexpectedDir(item UnexpectedItem, result *CleanupResult) {
	path, err := c.resolveManaged(item)
	if err != nil {
		logging.Error("Refusing cleanup of %s/%s: %v", item.Folder, item.Name, err)
		metrics.CleanupRemovalsTotal.WithLabelValues("dir", "error").Inc()
		result.Errors++
		return
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logging.Warn("Unexpected directory %s already gone", path)
		return
	}

	if err := os.RemoveAll(path); err != nil {
		logging.Error("Failed to remove unexpected directory %s: %v", path, err)
		metrics.CleanupRemovalsTotal.WithLabelValues("dir", "error").Inc()
		result.Errors++
		return
	}

	metrics.CleanupRemovalsTotal.WithLabelValues("dir", "success").Inc()
	result.DirsDeleted++
	logging.Info("Removed unexpected directory %s", path)
}

// resolveManaged maps an item back to an absolute path and verifies it
// still sits strictly inside its managed root. Anything that escapes, or
// resolves to the root itself, is refused.
func (c *Catalog) resolveManaged(item UnexpectedItem) (string, error) {
	var root string
	switch item.Folder {
	case FolderUploads:
		root = c.uploadsDir
	case FolderThumbnails:
		root = c.thumbsDir
	default:
		return "", fmt.Errorf("unknown folder %q", item.Folder)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	path, err := filepath.Abs(filepath.Join(absRoot, item.Name))
	if err != nil {
		return "", err
	}

	if path == absRoot || !strings.HasPrefix(path, absRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q escapes %s", ErrOutsideRoot, item.Name, item.Folder)
	}

	return path, nil
}

// PruneMissing deletes the catalog rows in the report. Each row commits
// on its own; one failure does not roll back the rest.
func (c *Catalog) PruneMissing(ctx context.Context, report *MissingReport) (*PruneResult, error) {
	start := time.Now()
	result := &PruneResult{}

	for i := range report.Entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec := &report.Entries[i].Record
		err := c.db.DeleteMediaByID(ctx, rec.ID)
		switch {
		case err == nil:
			metrics.PrunedRecordsTotal.WithLabelValues("success").Inc()
			result.Deleted++
			logging.Info("Pruned %s (%q): file gone from disk", rec.ContentID, rec.OriginalFilename)
		case errors.Is(err, database.ErrNotFound):
			logging.Warn("Row for %s already gone, skipping", rec.ContentID)
		default:
			metrics.PrunedRecordsTotal.WithLabelValues("error").Inc()
			result.Errors++
			logging.Error("Failed to prune %s: %v", rec.ContentID, err)
		}
	}

	if result.Deleted > 0 {
		if err := c.db.BumpMediaChanged(ctx); err != nil {
			logging.Warn("Failed to bump media change timestamp: %v", err)
		}
		c.updateMediaGauges(ctx)
	}

	metrics.ReconcileRunsTotal.WithLabelValues("prune").Inc()
	metrics.ReconcileLastRunDuration.WithLabelValues("prune").Set(time.Since(start).Seconds())

	logging.Info("Prune removed %d rows with %d errors", result.Deleted, result.Errors)
	return result, nil
}
