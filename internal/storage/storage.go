package storage

import (
	"context"
	"errors"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
)

var ErrNotFound = errors.New("upload record not found")

// Store persists asset records.
type Store interface {
	Create(ctx context.Context, asset models.Asset) error
	Get(ctx context.Context, id string) (models.Asset, error)
	// ListByOwner returns the owner's records, oldest first.
	ListByOwner(ctx context.Context, owner models.OwnerRef) ([]models.Asset, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
