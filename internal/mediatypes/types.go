package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the kind of a media file.
type FileType string

const (
	// FileTypeImage represents an image file.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file.
	FileTypeVideo FileType = "video"
	// FileTypeNone represents an unknown or unsupported file type.
	FileTypeNone FileType = "none"
)

// ThumbnailExt is the extension of every generated thumbnail.
const ThumbnailExt = ".png"

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".m4v":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",

	// Videos
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".m4v":  "video/x-m4v",
}

// systemArtifacts are files the host OS drops into media directories.
// Reconciliation skips them rather than reporting them as unexpected.
var systemArtifacts = map[string]bool{
	".ds_store": true,
	"thumbs.db": true,
}

// NormalizeExt lowercases and extracts the extension from a filename, a
// dotted extension, or a bare extension. Returns "" when there is none.
func NormalizeExt(nameOrExt string) string {
	s := strings.ToLower(strings.TrimSpace(nameOrExt))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, ".") {
		return "." + s
	}
	return filepath.Ext(s)
}

// GetFileType returns the FileType for a filename or extension.
// Matching is case-insensitive; unrecognized input yields FileTypeNone.
func GetFileType(nameOrExt string) FileType {
	ext := NormalizeExt(nameOrExt)
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	return FileTypeNone
}

// GetMimeType returns the MIME type for a filename or extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(nameOrExt string) string {
	if mime, ok := MimeTypes[NormalizeExt(nameOrExt)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMediaFile returns true if the name or extension represents a supported media file.
func IsMediaFile(nameOrExt string) bool {
	return GetFileType(nameOrExt) != FileTypeNone
}

// IsContentToken reports whether s has the shape of a content identifier:
// exactly 32 lowercase hexadecimal characters.
func IsContentToken(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsSystemArtifact reports whether name is an OS housekeeping file
// such as .DS_Store or Thumbs.db, compared case-insensitively.
func IsSystemArtifact(name string) bool {
	return systemArtifacts[strings.ToLower(name)]
}

// DiskFilename returns the on-disk name of an original file for a content
// identifier and its stored extension (without dot).
func DiskFilename(contentID, ext string) string {
	return contentID + "." + ext
}

// ThumbnailFilename returns the on-disk name of the thumbnail for a content
// identifier.
func ThumbnailFilename(contentID string) string {
	return contentID + ThumbnailExt
}
