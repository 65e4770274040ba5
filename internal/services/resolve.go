package services

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage/disks"
	"golang.org/x/sync/singleflight"
)

// FullSize is the size label of the original file.
const FullSize = "full"

type resolveOptions struct {
	regenerate bool
	signedTTL  time.Duration
}

type ResolveOption func(*resolveOptions)

// WithoutRegeneration makes a missing derivative a DerivativeMissing failure.
func WithoutRegeneration() ResolveOption {
	return func(o *resolveOptions) { o.regenerate = false }
}

// WithSignedTTL sets how long signed URLs stay valid.
func WithSignedTTL(ttl time.Duration) ResolveOption {
	return func(o *resolveOptions) {
		if ttl > 0 {
			o.signedTTL = ttl
		}
	}
}

// Resolver turns an asset and size label into a URL, regenerating missing
// derivatives on demand.
type Resolver struct {
	deps   *Deps
	cache  *URLCache
	flight singleflight.Group
	now    func() time.Time
}

func NewResolver(deps Deps, cache *URLCache) *Resolver {
	if cache == nil {
		cache = NewURLCache(defaultCacheSize, defaultCacheTTL)
	}
	return &Resolver{deps: deps.withDefaults(), cache: cache, now: time.Now}
}

func (r *Resolver) Cache() *URLCache {
	return r.cache
}

func (r *Resolver) ResolveURL(ctx context.Context, asset models.Asset, label string, opts ...ResolveOption) (string, error) {
	if label == "" {
		label = FullSize
	}
	o := resolveOptions{regenerate: true, signedTTL: r.deps.SignedTTL}
	for _, opt := range opts {
		opt(&o)
	}

	if url, ok := r.cache.Get(asset.ID, label, o.signedTTL); ok {
		r.deps.Metrics.CacheLookup(true)
		r.deps.Metrics.Resolve("ok")
		return url, nil
	}
	r.deps.Metrics.CacheLookup(false)

	url, err := r.resolve(ctx, asset, label, o)
	if err != nil {
		result := string(KindOf(err))
		if result == "" {
			result = "canceled"
		}
		r.deps.Metrics.Resolve(result)
		return "", err
	}
	r.deps.Metrics.Resolve("ok")
	return url, nil
}

func (r *Resolver) resolve(ctx context.Context, asset models.Asset, label string, o resolveOptions) (string, error) {
	const op = "resolve"

	var size models.ThumbnailSize
	if label != FullSize {
		var ok bool
		if size, ok = r.deps.Sizes[label]; !ok {
			return "", fail(KindInvalidSize, op, fmt.Errorf("unknown size %q", label))
		}
		if !asset.IsImage() {
			return "", fail(KindDerivativeMissing, op, ErrNotImage)
		}
	}

	disk, err := r.deps.Disks.Disk(asset.Disk)
	if err != nil {
		return "", fail(KindStorage, op, err)
	}

	source := originalPath(asset.UploadPath, asset.Extension)
	target := source
	if label != FullSize {
		target = path.Join(asset.UploadPath, DerivativeFilename(size.Width, size.Height, asset.Extension))
	}

	exists, err := disk.Exists(ctx, target)
	if err != nil {
		return "", fail(KindStorage, op, err)
	}
	if exists {
		url, expiresAt, err := r.urlFor(ctx, disk, target, o.signedTTL)
		if err != nil {
			return "", fail(KindStorage, op, err)
		}
		r.cache.Put(asset.ID, label, url, expiresAt, o.signedTTL)
		return url, nil
	}

	if target != source {
		if exists, err = disk.Exists(ctx, source); err != nil {
			return "", fail(KindStorage, op, err)
		}
	}
	if !exists {
		return "", fail(KindSourceMissing, op, fmt.Errorf("%s not found on %s", source, disk.Name()))
	}
	if !o.regenerate {
		return "", fail(KindDerivativeMissing, op, fmt.Errorf("%s not found on %s", target, disk.Name()))
	}

	// The shared regeneration outlives any one caller; each caller only stops waiting.
	work := context.WithoutCancel(ctx)
	ch := r.flight.DoChan(signedKey(asset.ID, label, o.signedTTL), func() (any, error) {
		return r.regenerate(work, disk, asset, label, size, o.signedTTL)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// regenerate derives the missing file and always answers with a signed URL.
func (r *Resolver) regenerate(ctx context.Context, disk disks.Disk, asset models.Asset, label string, size models.ThumbnailSize, ttl time.Duration) (string, error) {
	target, err := derive(ctx, r.deps.Codec, disk, asset, size)
	if err != nil {
		r.deps.Metrics.Derivative("resolve", "error")
		return "", err
	}
	r.deps.Metrics.Derivative("resolve", "ok")
	r.deps.Logger.Printf("[Resolve] Regenerated %s for %s", label, asset.ID)

	expiresAt := r.now().Add(ttl)
	url, err := disk.TemporaryURL(ctx, target, expiresAt)
	if err != nil {
		return "", fail(KindStorage, "resolve", err)
	}
	r.cache.Put(asset.ID, label, url, expiresAt, ttl)
	return url, nil
}

// urlFor returns a permanent URL for public files and a signed one otherwise.
func (r *Resolver) urlFor(ctx context.Context, disk disks.Disk, p string, ttl time.Duration) (string, time.Time, error) {
	v, err := disk.Visibility(ctx, p)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read visibility: %w", err)
	}
	if v == disks.Public {
		return disk.URL(p), time.Time{}, nil
	}
	expiresAt := r.now().Add(ttl)
	url, err := disk.TemporaryURL(ctx, p, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return url, expiresAt, nil
}
