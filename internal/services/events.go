package services

import (
	"context"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
)

const (
	EventUploadCreated = "uploads.created"
	EventUploadDeleted = "uploads.deleted"
)

// Event describes a completed lifecycle change of one upload.
type Event struct {
	Type  string       `json:"type"`
	Asset models.Asset `json:"asset"`
	At    time.Time    `json:"at"`
}

// EventPublisher delivers lifecycle events. Publishing failures never fail the operation.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

func (d *Deps) publish(ctx context.Context, kind string, asset models.Asset) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Publish(ctx, Event{Type: kind, Asset: asset, At: time.Now().UTC()}); err != nil {
		d.Logger.Printf("[Events] Failed to publish %s for %s: %v", kind, asset.ID, err)
	}
}
