package media

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func createTestImage(t *testing.T, path string, width, height int, format string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Gradient fill so resizes are visible in the output.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpg", "jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(f, img)
	case "gif":
		err = gif.Encode(f, img, nil)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "dims.png")
	createTestImage(t, path, 320, 240, "png")

	dims, err := GetImageDimensions(path)
	if err != nil {
		t.Fatalf("GetImageDimensions failed: %v", err)
	}
	if dims.Width != 320 || dims.Height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", dims.Width, dims.Height)
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := GetImageDimensions(filepath.Join(tmpDir, "absent.png")); err == nil {
		t.Error("expected error for missing file")
	}

	garbage := filepath.Join(tmpDir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := GetImageDimensions(garbage); err == nil {
		t.Error("expected error for non-image content")
	}
}

func TestLoadImageConstrained(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name         string
		width        int
		height       int
		maxDimension int
		maxPixels    int
		wantW        int
		wantH        int
	}{
		{"Within limits", 50, 40, 4096, 20_000_000, 50, 40},
		{"Long edge constrained", 300, 200, 100, 100_000, 100, 66},
		{"Pixel count constrained", 200, 100, 4096, 5000, 50, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+".png")
			createTestImage(t, path, tt.width, tt.height, "png")

			img, err := LoadImageConstrained(path, tt.maxDimension, tt.maxPixels)
			if err != nil {
				t.Fatalf("LoadImageConstrained failed: %v", err)
			}

			bounds := img.Bounds()
			if bounds.Dx() != tt.wantW || bounds.Dy() != tt.wantH {
				t.Errorf("loaded %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestOptimizeImageKeepsNormalUpload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "normal.jpg")
	createTestImage(t, path, 1920, 1080, "jpg")

	result, err := OptimizeImage(context.Background(), path)
	if err != nil {
		t.Fatalf("OptimizeImage failed: %v", err)
	}
	if result.Rewritten {
		t.Error("expected no rewrite for an in-bounds image")
	}
	if result.FinalWidth != 1920 || result.FinalHeight != 1080 {
		t.Errorf("final = %dx%d, want 1920x1080", result.FinalWidth, result.FinalHeight)
	}
}

func TestOptimizeImageKeepsUndersizedUpload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "tiny.png")
	createTestImage(t, path, 100, 80, "png")

	// Undersized uploads only warn; the file stays as uploaded.
	result, err := OptimizeImage(context.Background(), path)
	if err != nil {
		t.Fatalf("OptimizeImage failed: %v", err)
	}
	if result.Rewritten {
		t.Error("expected no rewrite for an undersized image")
	}
	if result.OriginalWidth != 100 || result.OriginalHeight != 80 {
		t.Errorf("original = %dx%d, want 100x80", result.OriginalWidth, result.OriginalHeight)
	}
}

func TestOptimizeImageRewritesOversizedStill(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "huge.jpg")
	createTestImage(t, path, 4096, 1024, "jpg")

	result, err := OptimizeImage(context.Background(), path)
	if err != nil {
		t.Fatalf("OptimizeImage failed: %v", err)
	}
	if !result.Rewritten {
		t.Fatal("expected a rewrite for an oversized image")
	}
	if result.OriginalWidth != 4096 || result.OriginalHeight != 1024 {
		t.Errorf("original = %dx%d, want 4096x1024", result.OriginalWidth, result.OriginalHeight)
	}
	if result.FinalWidth != 3840 || result.FinalHeight != 960 {
		t.Errorf("final = %dx%d, want 3840x960", result.FinalWidth, result.FinalHeight)
	}

	dims, err := GetImageDimensions(path)
	if err != nil {
		t.Fatalf("Failed to re-read image: %v", err)
	}
	if dims.Width != result.FinalWidth || dims.Height != result.FinalHeight {
		t.Errorf("on disk %dx%d, result claims %dx%d", dims.Width, dims.Height, result.FinalWidth, result.FinalHeight)
	}
}

func TestOptimizeImageSkipsGIF(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "wide.gif")
	createTestImage(t, path, 4000, 100, "gif")

	result, err := OptimizeImage(context.Background(), path)
	if err != nil {
		t.Fatalf("OptimizeImage failed: %v", err)
	}
	if result.Rewritten {
		t.Error("GIFs must never be rewritten")
	}

	dims, err := GetImageDimensions(path)
	if err != nil {
		t.Fatalf("Failed to re-read image: %v", err)
	}
	if dims.Width != 4000 || dims.Height != 100 {
		t.Errorf("on disk %dx%d, want the untouched 4000x100", dims.Width, dims.Height)
	}
}

func TestOptimizeImageCanceledContext(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "huge.jpg")
	createTestImage(t, path, 4096, 1024, "jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := OptimizeImage(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestOptimizeImageUnreadable(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "garbage.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := OptimizeImage(context.Background(), path); err == nil {
		t.Error("expected error for undecodable content")
	}
}
