// Package media renders thumbnails and optimizes uploaded images.
//
// Images are handled in-process (libvips when available, pure Go
// otherwise); video frames are extracted with ffmpeg at a seek point
// derived from the probed duration. Thumbnails are PNG, bounded by
// ThumbWidth x ThumbHeight.
package media
