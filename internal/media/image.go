package media

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"slidekiosk/internal/logging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the largest width or height decoded in-process.
	// Bigger inputs are downscaled on load.
	MaxImageDimension = 4096

	// MaxImagePixels caps total pixels decoded in-process. 20MP is about
	// 80MB as RGBA.
	MaxImagePixels = 20_000_000
)

const (
	// MinRecommendedWidth and MinRecommendedHeight mark the point below
	// which an upload starts to look soft on a full-screen display.
	MinRecommendedWidth  = 640
	MinRecommendedHeight = 480

	// MaxStillWidth and MaxStillHeight bound stored stills to 4K UHD.
	// Displays are never larger, so extra pixels only cost disk and
	// decode time on every slideshow loop.
	MaxStillWidth  = 3840
	MaxStillHeight = 2160
)

// ImageDimensions holds image width and height.
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// LoadImageConstrained loads an image, downscaling when it exceeds the
// given limits. Keeps a pathological upload from taking the process down
// with it.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		logging.Debug("Could not size %s before decode: %v", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	width, height := dimensions.Width, dimensions.Height
	if width <= maxDimension && height <= maxDimension && width*height <= maxPixels {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	// Constrain the long edge first, then the total pixel count.
	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}
	if targetWidth*targetHeight > maxPixels {
		scale := float64(maxPixels) / float64(targetWidth*targetHeight)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// OptimizeResult reports what the ingest optimizer did to an upload.
type OptimizeResult struct {
	OriginalWidth  int
	OriginalHeight int
	FinalWidth     int
	FinalHeight    int
	Rewritten      bool
}

// OptimizeImage inspects a freshly uploaded image and rewrites oversized
// stills in place, bounded by MaxStillWidth x MaxStillHeight. Undersized
// uploads get a warning but are kept as-is. GIFs are never rewritten
// because a resize would keep only the first frame of an animation, and
// WebP stays as uploaded for lack of an encoder.
func OptimizeImage(ctx context.Context, path string) (*OptimizeResult, error) {
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dimensions of %s: %w", path, err)
	}

	result := &OptimizeResult{
		OriginalWidth:  dimensions.Width,
		OriginalHeight: dimensions.Height,
		FinalWidth:     dimensions.Width,
		FinalHeight:    dimensions.Height,
	}

	if dimensions.Width < MinRecommendedWidth || dimensions.Height < MinRecommendedHeight {
		logging.Warn("Image %s is %dx%d, below the recommended %dx%d; it may look soft full-screen",
			filepath.Base(path), dimensions.Width, dimensions.Height,
			MinRecommendedWidth, MinRecommendedHeight)
	}

	if dimensions.Width <= MaxStillWidth && dimensions.Height <= MaxStillHeight {
		return result, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		logging.Debug("Not resizing oversized %s: %s files are stored as uploaded", filepath.Base(path), ext)
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for resize: %w", path, err)
	}

	resized := imaging.Fit(img, MaxStillWidth, MaxStillHeight, imaging.Lanczos)
	if err := imaging.Save(resized, path, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("failed to save resized %s: %w", path, err)
	}

	bounds := resized.Bounds()
	result.FinalWidth = bounds.Dx()
	result.FinalHeight = bounds.Dy()
	result.Rewritten = true

	logging.Info("Resized %s from %dx%d to %dx%d", filepath.Base(path),
		dimensions.Width, dimensions.Height, result.FinalWidth, result.FinalHeight)

	return result, nil
}
