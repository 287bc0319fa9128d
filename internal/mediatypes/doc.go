// Package mediatypes provides shared type definitions and utilities for
// media file handling across slidekiosk.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains primitive types,
// constants, and pure utility functions with no external dependencies beyond
// the standard library.
//
// # File Types
//
// The package defines a FileType enum for categorizing media files:
//
//	mediatypes.FileTypeImage // Supported image formats (png, jpg, jpeg, gif, webp)
//	mediatypes.FileTypeVideo // Supported video formats (mp4, webm, mov, m4v)
//	mediatypes.FileTypeNone  // Unrecognized or unsupported files
//
// # Extension Detection
//
// Use GetFileType to determine the type of a file. Input may be a filename,
// a dotted extension, or a bare extension, in any case:
//
//	switch mediatypes.GetFileType(filename) {
//	case mediatypes.FileTypeImage:
//	    // Handle image
//	case mediatypes.FileTypeVideo:
//	    // Handle video
//	}
//
// # Content Identifiers
//
// Catalog entries are keyed by 32-character lowercase hexadecimal content
// identifiers. IsContentToken recognizes that shape, and DiskFilename /
// ThumbnailFilename produce the canonical on-disk names derived from it:
//
//	mediatypes.DiskFilename("4f2a...", "jpg") // "4f2a....jpg"
//	mediatypes.ThumbnailFilename("4f2a...")   // "4f2a....png"
//
// # Supported Formats
//
// The extension maps (ImageExtensions, VideoExtensions) can be used directly
// for format validation or iteration:
//
//	if mediatypes.ImageExtensions[ext] {
//	    // File is a supported image
//	}
package mediatypes
