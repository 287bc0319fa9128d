package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"slidekiosk/internal/logging"
	"slidekiosk/internal/mediatypes"
	"slidekiosk/internal/metrics"
	"slidekiosk/internal/probe"

	"github.com/disintegration/imaging"
)

const (
	// ThumbWidth and ThumbHeight bound every generated thumbnail.
	ThumbWidth  = 150
	ThumbHeight = 150

	// ffmpegTimeout bounds a frame extraction when the caller's context
	// carries no deadline of its own.
	ffmpegTimeout = 30 * time.Second

	// seekFraction picks the representative frame a tenth of the way in,
	// past leaders and title cards.
	seekFraction = 0.1

	// minSeekSeconds keeps the seek off the very first frame of short
	// videos.
	minSeekSeconds = 0.1
)

// ThumbnailGenerator renders bounded PNG thumbnails for catalog entries.
// Tool availability is injected from the startup capability probe; a
// missing tool degrades video thumbnails instead of failing construction.
type ThumbnailGenerator struct {
	FFmpegAvailable  bool
	FFprobeAvailable bool
	VipsAvailable    bool
}

// NewThumbnailGenerator builds a generator from probed capabilities.
func NewThumbnailGenerator(ffmpegAvailable, ffprobeAvailable, vipsAvailable bool) *ThumbnailGenerator {
	logging.Debug("ThumbnailGenerator: ffmpeg=%t ffprobe=%t vips=%t",
		ffmpegAvailable, ffprobeAvailable, vipsAvailable)
	return &ThumbnailGenerator{
		FFmpegAvailable:  ffmpegAvailable,
		FFprobeAvailable: ffprobeAvailable,
		VipsAvailable:    vipsAvailable,
	}
}

// Generate writes the thumbnail for srcPath to destPath, creating the
// destination directory if needed. On failure no partial destPath file is
// left behind.
func (t *ThumbnailGenerator) Generate(ctx context.Context, srcPath, destPath string, fileType mediatypes.FileType) error {
	if fileType != mediatypes.FileTypeImage && fileType != mediatypes.FileTypeVideo {
		return fmt.Errorf("unsupported file type: %s", fileType)
	}

	start := time.Now()
	err := t.generate(ctx, srcPath, destPath, fileType)
	recordThumbnail(string(fileType), start, err)
	return err
}

func (t *ThumbnailGenerator) generate(ctx context.Context, srcPath, destPath string, fileType mediatypes.FileType) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	if fileType == mediatypes.FileTypeVideo {
		return t.generateVideoThumbnail(ctx, srcPath, destPath)
	}
	return t.generateImageThumbnail(ctx, srcPath, destPath)
}

// generateImageThumbnail decodes, scales, and encodes in-process.
// Animated inputs contribute their first frame; paletted inputs come out
// of the resampler as full-color NRGBA.
func (t *ThumbnailGenerator) generateImageThumbnail(ctx context.Context, srcPath, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := t.loadImage(srcPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", srcPath, err)
	}

	// Fit preserves aspect ratio inside the box and never upscales.
	thumb := imaging.Fit(img, ThumbWidth, ThumbHeight, imaging.Lanczos)

	if err := imaging.Save(thumb, destPath); err != nil {
		removePartial(destPath)
		return fmt.Errorf("failed to save thumbnail %s: %w", destPath, err)
	}

	logging.Debug("Thumbnail written: %s", destPath)
	return nil
}

// loadImage prefers the vips fast path, which shrinks at decode time,
// and falls back to pure-Go decoding when vips is absent or fails.
func (t *ThumbnailGenerator) loadImage(srcPath string) (image.Image, error) {
	if t.VipsAvailable {
		img, err := LoadImageWithVips(srcPath, ThumbWidth, ThumbHeight)
		if err == nil {
			return img, nil
		}
		metrics.VipsFallbacksTotal.Inc()
		logging.Debug("Vips load failed for %s, using pure-Go decode: %v", srcPath, err)
	}
	return LoadImageConstrained(srcPath, MaxImageDimension, MaxImagePixels)
}

// generateVideoThumbnail extracts one representative frame with ffmpeg.
// The seek point comes from the probed duration, so both external tools
// must have probed available.
func (t *ThumbnailGenerator) generateVideoThumbnail(ctx context.Context, srcPath, destPath string) error {
	if !t.FFmpegAvailable || !t.FFprobeAvailable {
		return fmt.Errorf("video thumbnails require ffmpeg and ffprobe")
	}

	duration, err := probe.ProbeDuration(ctx, srcPath)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", srcPath, err)
	}
	if duration <= 0 {
		return fmt.Errorf("unusable duration %.3fs for %s", duration, srcPath)
	}

	seek := duration * seekFraction
	if seek < minSeekSeconds {
		seek = minSeekSeconds
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ffmpegTimeout)
		defer cancel()
	}

	start := time.Now()

	// scale height -2 derives an even height from the aspect ratio.
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-ss", strconv.FormatFloat(seek, 'f', 2, 64),
		"-i", srcPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", ThumbWidth),
		destPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	recordTool("ffmpeg", start, runErr)
	if runErr != nil {
		removePartial(destPath)
		return fmt.Errorf("ffmpeg frame extraction for %s: %w - %s",
			srcPath, runErr, strings.TrimSpace(stderr.String()))
	}

	// ffmpeg can exit 0 without writing a frame, e.g. when the stream is
	// shorter than the container claims.
	info, statErr := os.Stat(destPath)
	if statErr != nil || info.Size() == 0 {
		removePartial(destPath)
		return fmt.Errorf("ffmpeg wrote no frame for %s", srcPath)
	}

	logging.Debug("Video thumbnail written: %s (seek %.2fs)", destPath, seek)
	return nil
}

// removePartial deletes a possibly half-written destination file.
func removePartial(destPath string) {
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove partial thumbnail %s: %v", destPath, err)
	}
}

func recordThumbnail(fileType string, start time.Time, err error) {
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues(fileType, status).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(fileType).Observe(duration)
}

func recordTool(tool string, start time.Time, err error) {
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}

	metrics.ToolInvocationsTotal.WithLabelValues(tool, status).Inc()
	metrics.ToolInvocationDuration.WithLabelValues(tool).Observe(duration)
}
