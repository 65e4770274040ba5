package previews

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Codec produces resized copies of images on the local filesystem.
type Codec struct {
	Filter imaging.ResampleFilter
}

func NewCodec() *Codec {
	return &Codec{Filter: imaging.Lanczos}
}

// Resize scales src to fit inside width x height, preserving the aspect ratio,
// and writes dst in the format implied by its extension. dst is overwritten.
func (c *Codec) Resize(ctx context.Context, src string, width, height int, dst string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	resized := imaging.Fit(img, width, height, c.Filter)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}
	if err := imaging.Save(resized, dst); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	return nil
}
