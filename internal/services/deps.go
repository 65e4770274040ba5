package services

import (
	"log"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/metrics"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage/disks"
	"github.com/File-Sharing-BondBridg/Upload-Service/uploads/previews"
)

const defaultSignedTTL = 5 * time.Minute

// Deps are the collaborators shared by the ingest, resolve and delete services.
type Deps struct {
	Disks *disks.Manager
	Store storage.Store
	Codec ImageCodec

	// Sizes maps a size label such as "thumb" to its target box.
	Sizes     map[string]models.ThumbnailSize
	SignedTTL time.Duration

	Events  EventPublisher
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

func (d Deps) withDefaults() *Deps {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Codec == nil {
		d.Codec = previews.NewCodec()
	}
	if d.SignedTTL <= 0 {
		d.SignedTTL = defaultSignedTTL
	}
	if d.Sizes == nil {
		d.Sizes = map[string]models.ThumbnailSize{}
	}
	return &d
}
