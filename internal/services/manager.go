package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage"
)

// Manager is the upload surface an owning record works through: attach files,
// list them, resolve their URLs and delete them.
type Manager struct {
	store    storage.Store
	sizes    map[string]models.ThumbnailSize
	ingester *Ingester
	resolver *Resolver
	deleter  *Deleter
}

type ManagerConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

func NewManager(deps Deps, cfg ManagerConfig) *Manager {
	d := deps.withDefaults()
	cache := NewURLCache(cfg.CacheSize, cfg.CacheTTL)
	return &Manager{
		store:    d.Store,
		sizes:    d.Sizes,
		ingester: &Ingester{deps: d},
		resolver: &Resolver{deps: d, cache: cache, now: time.Now},
		deleter:  &Deleter{deps: d, cache: cache},
	}
}

func (m *Manager) Ingest(ctx context.Context, owner models.HasAssets, file RawFile, opts ...IngestOption) (models.Asset, error) {
	return m.ingester.Ingest(ctx, owner, file, opts...)
}

func (m *Manager) ResolveURL(ctx context.Context, asset models.Asset, label string, opts ...ResolveOption) (string, error) {
	return m.resolver.ResolveURL(ctx, asset, label, opts...)
}

func (m *Manager) Delete(ctx context.Context, owner models.HasAssets, asset *models.Asset) (DeleteReport, error) {
	return m.deleter.Delete(ctx, owner, asset)
}

// Uploads lists the uploads of owner, oldest first.
func (m *Manager) Uploads(ctx context.Context, owner models.HasAssets) ([]models.Asset, error) {
	if owner == nil {
		return nil, nil
	}
	assets, err := m.store.ListByOwner(ctx, owner.AssetOwner())
	if err != nil {
		return nil, fail(KindStorage, "list", err)
	}
	return assets, nil
}

// Get loads one upload record. A missing record is reported as storage.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (models.Asset, error) {
	asset, err := m.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Asset{}, err
	}
	if err != nil {
		return models.Asset{}, fail(KindStorage, "get", fmt.Errorf("failed to load upload %s: %w", id, err))
	}
	return asset, nil
}

// SizeLabels returns the configured derivative labels, sorted.
func (m *Manager) SizeLabels() []string {
	return sortedLabels(m.sizes)
}
