package database

import (
	"time"

	"slidekiosk/internal/mediatypes"
)

// Setting is one row of the settings store. Value holds the JSON-encoded
// setting value exactly as stored.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// MediaRecord is one row of the media catalog.
type MediaRecord struct {
	ID               int64     `json:"id"`
	ContentID        string    `json:"contentId"`
	OriginalFilename string    `json:"originalFilename"`
	DisplayName      string    `json:"displayName"`
	Extension        string    `json:"extension"` // lowercase, no leading dot
	MediaType        string    `json:"mediaType"` // "image" or "video"
	UploadedAt       time.Time `json:"uploadedAt"`
}

// DiskFilename returns the basename the original file is stored under.
func (m *MediaRecord) DiskFilename() string {
	return mediatypes.DiskFilename(m.ContentID, m.Extension)
}

// ThumbnailFilename returns the basename of the record's thumbnail.
func (m *MediaRecord) ThumbnailFilename() string {
	return mediatypes.ThumbnailFilename(m.ContentID)
}
