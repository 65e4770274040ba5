package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage/disks"
)

// ImageCodec resizes a local image file into dst, overwriting it.
type ImageCodec interface {
	Resize(ctx context.Context, src string, width, height int, dst string) error
}

// derive materializes {dir}/{w}x{h}.{ext} from the original on d and applies the
// disk's default visibility. It returns the derivative path. Codec errors come back
// as KindCodec failures, everything else as KindStorage.
// A resize interrupted by ctx returns ctx.Err() unwrapped.
func derive(ctx context.Context, codec ImageCodec, d disks.Disk, asset models.Asset, size models.ThumbnailSize) (string, error) {
	const op = "derive"
	src := originalPath(asset.UploadPath, asset.Extension)
	dst := path.Join(asset.UploadPath, DerivativeFilename(size.Width, size.Height, asset.Extension))

	absSrc, err := d.AbsolutePath(src)
	switch {
	case err == nil:
		absDst, err := d.AbsolutePath(dst)
		if err != nil {
			return "", fail(KindStorage, op, err)
		}
		if err := codec.Resize(ctx, absSrc, size.Width, size.Height, absDst); err != nil {
			return "", codecFailure(ctx, op, err)
		}
	case errors.Is(err, disks.ErrNotLocal):
		if err := deriveRemote(ctx, codec, d, src, dst, asset, size); err != nil {
			return "", err
		}
	default:
		return "", fail(KindStorage, op, err)
	}

	if err := d.SetVisibility(ctx, dst, d.DefaultVisibility()); err != nil {
		return "", fail(KindStorage, op, fmt.Errorf("failed to set visibility: %w", err))
	}
	return dst, nil
}

// deriveRemote stages the original in a temp directory, resizes it there and
// uploads the result next to the original.
func deriveRemote(ctx context.Context, codec ImageCodec, d disks.Disk, src, dst string, asset models.Asset, size models.ThumbnailSize) error {
	const op = "derive"
	tmp, err := os.MkdirTemp("", "upload-derive-*")
	if err != nil {
		return fail(KindStorage, op, err)
	}
	defer os.RemoveAll(tmp)

	localSrc := filepath.Join(tmp, path.Base(src))
	localDst := filepath.Join(tmp, path.Base(dst))

	if err := d.Download(ctx, src, localSrc); err != nil {
		return fail(KindStorage, op, fmt.Errorf("failed to download original: %w", err))
	}
	if err := codec.Resize(ctx, localSrc, size.Width, size.Height, localDst); err != nil {
		return codecFailure(ctx, op, err)
	}
	if err := d.Upload(ctx, localDst, dst, asset.MimeType); err != nil {
		return fail(KindStorage, op, fmt.Errorf("failed to upload derivative: %w", err))
	}
	return nil
}

// codecFailure blames the codec only when ctx is still live.
func codecFailure(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fail(KindCodec, op, err)
}
