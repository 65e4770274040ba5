package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/google/uuid"
)

// RawFile is an incoming upload. Size is the declared length, or -1 when unknown.
type RawFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FromMultipart opens a multipart file header. The caller closes the returned body.
func FromMultipart(fh *multipart.FileHeader) (RawFile, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return RawFile{}, nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	return RawFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

type ingestOptions struct {
	collection string
	disk       string
	tags       string
}

type IngestOption func(*ingestOptions)

func WithCollection(collection string) IngestOption {
	return func(o *ingestOptions) { o.collection = collection }
}

// WithDisk stores the upload on the named disk instead of the default one.
func WithDisk(disk string) IngestOption {
	return func(o *ingestOptions) { o.disk = disk }
}

func WithTags(tags string) IngestOption {
	return func(o *ingestOptions) { o.tags = tags }
}

// Ingester accepts raw files, writes them to a disk, pre-generates thumbnails
// for images and records the metadata.
type Ingester struct {
	deps *Deps
}

func NewIngester(deps Deps) *Ingester {
	return &Ingester{deps: deps.withDefaults()}
}

func (i *Ingester) Ingest(ctx context.Context, owner models.HasAssets, file RawFile, opts ...IngestOption) (models.Asset, error) {
	asset, err := i.ingest(ctx, owner, file, opts)
	if err != nil {
		i.deps.Metrics.Ingest("error")
		return models.Asset{}, err
	}
	i.deps.Metrics.Ingest("ok")
	i.deps.publish(ctx, EventUploadCreated, asset)
	return asset, nil
}

func (i *Ingester) ingest(ctx context.Context, owner models.HasAssets, file RawFile, opts []IngestOption) (models.Asset, error) {
	const op = "ingest"
	o := ingestOptions{collection: models.DefaultCollection}
	for _, opt := range opts {
		opt(&o)
	}
	if o.collection == "" {
		o.collection = models.DefaultCollection
	}

	if file.Body == nil || file.Size == 0 {
		return models.Asset{}, fail(KindIngestion, op, errors.New("no file given"))
	}
	if owner == nil || owner.AssetOwner().IsZero() {
		return models.Asset{}, fail(KindIngestion, op, errors.New("no owner given"))
	}
	ext := extensionFor(file.Filename, file.ContentType)
	if ext == "" {
		return models.Asset{}, fail(KindIngestion, op, fmt.Errorf("cannot determine extension of %q", file.Filename))
	}
	disk, err := i.deps.Disks.Disk(o.disk)
	if err != nil {
		return models.Asset{}, fail(KindIngestion, op, err)
	}

	dir := NewUploadDirectory()
	cleanup := func() {
		if err := disk.DeleteDirectory(context.WithoutCancel(ctx), dir); err != nil {
			i.deps.Logger.Printf("[Upload] Failed to clean up %s on %s: %v", dir, disk.Name(), err)
		}
	}

	if err := disk.MakeDirectory(ctx, dir); err != nil {
		return models.Asset{}, fail(KindIngestion, op, fmt.Errorf("failed to create directory: %w", err))
	}
	written, err := disk.Put(ctx, dir, OriginalFilename(ext), file.Body, file.Size, file.ContentType)
	if err == nil && written == 0 {
		err = errors.New("empty file")
	}
	if err != nil {
		cleanup()
		return models.Asset{}, fail(KindIngestion, op, fmt.Errorf("failed to store file: %w", err))
	}
	if err := disk.SetVisibility(ctx, originalPath(dir, ext), disk.DefaultVisibility()); err != nil {
		cleanup()
		return models.Asset{}, fail(KindIngestion, op, fmt.Errorf("failed to set visibility: %w", err))
	}

	now := time.Now().UTC()
	asset := models.Asset{
		ID:         uuid.NewString(),
		UploadPath: dir,
		Extension:  ext,
		Disk:       disk.Name(),
		MimeType:   file.ContentType,
		Collection: o.collection,
		Size:       kilobytes(written),
		Tags:       o.tags,
		Owner:      owner.AssetOwner(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if asset.IsImage() {
		for _, label := range sortedLabels(i.deps.Sizes) {
			size := i.deps.Sizes[label]
			if _, err := derive(ctx, i.deps.Codec, disk, asset, size); err != nil {
				i.deps.Metrics.Derivative("ingest", "error")
				i.deps.Logger.Printf("[Upload] Skipping %s thumbnail for %s: %v", label, dir, err)
				continue
			}
			i.deps.Metrics.Derivative("ingest", "ok")
		}
	}

	if err := i.deps.Store.Create(ctx, asset); err != nil {
		cleanup()
		return models.Asset{}, fail(KindIngestion, op, fmt.Errorf("failed to save metadata: %w", err))
	}
	return asset, nil
}

// kilobytes converts a byte count to KB rounded to two decimals.
func kilobytes(n int64) float64 {
	return math.Round(float64(n)/1024*100) / 100
}

var preferredExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"text/plain": "txt",
}

func extensionFor(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path.Base(filename))), "."); ext != "" {
		return ext
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if ext, ok := preferredExtensions[mediaType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.TrimPrefix(exts[0], ".")
}

func sortedLabels(sizes map[string]models.ThumbnailSize) []string {
	labels := make([]string, 0, len(sizes))
	for label := range sizes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
