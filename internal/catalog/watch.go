package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"slidekiosk/internal/logging"
	"slidekiosk/internal/metrics"
)

// settleDelay is how long the watcher waits after the last relevant event
// before running a sweep, so a burst of file operations triggers one sweep
// instead of dozens.
const settleDelay = 2 * time.Second

// Watch follows the uploads and thumbnails directories and runs a
// consistency sweep after changes settle. It blocks until ctx is done.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Error("Failed to create filesystem watcher: %v", err)
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("Error closing filesystem watcher: %v", err)
		}
	}()

	for _, dir := range []string{c.uploadsDir, c.thumbsDir} {
		if err := watcher.Add(dir); err != nil {
			logging.Error("Failed to watch %s: %v", dir, err)
			return err
		}
	}

	logging.Info("Watching %s and %s for drift", c.uploadsDir, c.thumbsDir)

	// Created stopped; the first relevant event arms it
	settle := time.NewTimer(settleDelay)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.handleWatchEvent(event, settle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Filesystem watcher error: %v", err)
			metrics.WatcherErrorsTotal.Inc()

		case <-settle.C:
			c.runDriftSweep(ctx)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Catalog) handleWatchEvent(event fsnotify.Event, settle *time.Timer) {
	// Skip hidden files (e.g. temporary files from editors)
	if strings.Contains(event.Name, "/.") {
		return
	}

	eventType := getEventType(event.Op)
	metrics.WatcherEventsTotal.WithLabelValues(eventType).Inc()
	logging.Debug("Watcher event: %s %s", eventType, event.Name)

	// Only events that change what exists on disk warrant a sweep
	switch eventType {
	case "create", "remove", "rename":
		if !settle.Stop() {
			select {
			case <-settle.C:
			default:
			}
		}
		settle.Reset(settleDelay)
	}
}

// runDriftSweep reruns the consistency scans after events settle.
func (c *Catalog) runDriftSweep(ctx context.Context) {
	missing, err := c.FindMissing(ctx)
	if err != nil {
		logging.Error("Drift sweep missing-file scan failed: %v", err)
		metrics.WatcherErrorsTotal.Inc()
		return
	}

	unexpected, err := c.FindUnexpected(ctx)
	if err != nil {
		logging.Error("Drift sweep unexpected-item scan failed: %v", err)
		metrics.WatcherErrorsTotal.Inc()
		return
	}

	metrics.WatcherReconcilesTotal.Inc()
	logging.Info("Drift sweep: %d missing, %d orphaned, %d unexpected files, %d unexpected dirs",
		len(missing.Entries), len(unexpected.Orphaned), len(unexpected.Files), len(unexpected.Dirs))
}

// getEventType maps an fsnotify op bitmask to a metric label.
func getEventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return "create"
	case op&fsnotify.Write == fsnotify.Write:
		return "write"
	case op&fsnotify.Remove == fsnotify.Remove:
		return "remove"
	case op&fsnotify.Rename == fsnotify.Rename:
		return "rename"
	case op&fsnotify.Chmod == fsnotify.Chmod:
		return "chmod"
	default:
		return "unknown"
	}
}
