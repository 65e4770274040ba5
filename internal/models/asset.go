package models

import (
	"strings"
	"time"
)

// DefaultCollection is applied when an upload is ingested without a collection label.
const DefaultCollection = "default"

// Asset is the metadata record of one uploaded file. The bytes live on Disk
// under UploadPath; derivatives sit next to the original in the same directory.
type Asset struct {
	ID         string    `json:"id"`
	UploadPath string    `json:"upload_path"`
	Extension  string    `json:"ext"`
	Disk       string    `json:"disk"`
	MimeType   string    `json:"mime_type,omitempty"`
	Collection string    `json:"collection,omitempty"`
	Size       float64   `json:"size"` // kilobytes
	Tags       string    `json:"tags,omitempty"`
	Owner      OwnerRef  `json:"owner"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsImage reports whether the recorded MIME type is an image kind.
func (a Asset) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

// OwnedBy reports whether the asset belongs to ref. Orphaned assets are owned by nobody.
func (a Asset) OwnedBy(ref OwnerRef) bool {
	if a.Owner.IsZero() || ref.IsZero() {
		return false
	}
	return a.Owner == ref
}

// ThumbnailSize is a target box for a derivative image.
type ThumbnailSize struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}
