package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage"
)

// DeleteResult is the outcome for one targeted upload.
type DeleteResult struct {
	AssetID string
	Deleted bool
	Err     error
}

// DeleteReport lists every upload a delete call attempted, in order. Records
// after the first failure are not attempted and do not appear.
type DeleteReport struct {
	Results []DeleteResult
	Pending int
}

// OK reports whether every targeted upload was removed.
func (r DeleteReport) OK() bool {
	if r.Pending > 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Deleted {
			return false
		}
	}
	return true
}

func (r DeleteReport) Deleted() []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Deleted {
			ids = append(ids, res.AssetID)
		}
	}
	return ids
}

// Deleter removes uploads together with their files, checking ownership first.
type Deleter struct {
	deps  *Deps
	cache *URLCache
}

func NewDeleter(deps Deps, cache *URLCache) *Deleter {
	return &Deleter{deps: deps.withDefaults(), cache: cache}
}

// Delete removes asset, or every upload of owner when asset is nil. It stops at
// the first failure; uploads removed before that stay removed.
func (d *Deleter) Delete(ctx context.Context, owner models.HasAssets, asset *models.Asset) (DeleteReport, error) {
	const op = "delete"
	if owner == nil || owner.AssetOwner().IsZero() {
		return DeleteReport{}, fail(KindOwnershipMismatch, op, errors.New("no owner given"))
	}
	ref := owner.AssetOwner()

	var targets []models.Asset
	if asset != nil {
		if !asset.OwnedBy(ref) {
			d.deps.Logger.Printf("[Delete] Warning: upload %s is not owned by %s", asset.ID, ref)
			d.deps.Metrics.Delete(string(KindOwnershipMismatch))
			return DeleteReport{}, fail(KindOwnershipMismatch, op, fmt.Errorf("upload %s is not owned by %s", asset.ID, ref))
		}
		targets = []models.Asset{*asset}
	} else {
		var err error
		if targets, err = d.deps.Store.ListByOwner(ctx, ref); err != nil {
			return DeleteReport{}, fail(KindStorage, op, fmt.Errorf("failed to list uploads: %w", err))
		}
	}

	report := DeleteReport{Results: make([]DeleteResult, 0, len(targets))}
	for i, target := range targets {
		if err := d.deleteOne(ctx, target); err != nil {
			d.deps.Metrics.Delete("error")
			d.deps.Logger.Printf("[Delete] Failed to delete upload %s: %v", target.ID, err)
			report.Results = append(report.Results, DeleteResult{AssetID: target.ID, Err: err})
			report.Pending = len(targets) - i - 1
			return report, fail(KindStorage, op, err)
		}
		d.deps.Metrics.Delete("ok")
		report.Results = append(report.Results, DeleteResult{AssetID: target.ID, Deleted: true})
		d.deps.publish(ctx, EventUploadDeleted, target)
	}
	return report, nil
}

func (d *Deleter) deleteOne(ctx context.Context, asset models.Asset) error {
	if asset.UploadPath != "" {
		disk, err := d.deps.Disks.Disk(asset.Disk)
		if err != nil {
			return err
		}
		exists, err := disk.Exists(ctx, asset.UploadPath)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", asset.UploadPath, err)
		}
		if exists {
			if err := disk.DeleteDirectory(ctx, asset.UploadPath); err != nil {
				return fmt.Errorf("failed to delete %s: %w", asset.UploadPath, err)
			}
		}
	}
	if err := d.deps.Store.Delete(ctx, asset.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	if d.cache != nil {
		d.cache.Forget(asset.ID)
	}
	return nil
}
