package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/metrics"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage/disks"
	"github.com/File-Sharing-BondBridg/Upload-Service/uploads/previews"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var (
	userA = models.OwnerRef{Kind: "user", ID: "a"}
	userB = models.OwnerRef{Kind: "user", ID: "b"}
)

// countingDisk records every blob store call made through it.
type countingDisk struct {
	disks.Disk
	mu     sync.Mutex
	calls  int
	remote bool
	// failDeleteAfter makes DeleteDirectory fail once it has succeeded this many times; -1 disables.
	failDeleteAfter int
	deletes         int
}

func (c *countingDisk) hit() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingDisk) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *countingDisk) MakeDirectory(ctx context.Context, dir string) error {
	c.hit()
	return c.Disk.MakeDirectory(ctx, dir)
}

func (c *countingDisk) Put(ctx context.Context, dir, filename string, r io.Reader, size int64, contentType string) (int64, error) {
	c.hit()
	return c.Disk.Put(ctx, dir, filename, r, size, contentType)
}

func (c *countingDisk) Exists(ctx context.Context, p string) (bool, error) {
	c.hit()
	return c.Disk.Exists(ctx, p)
}

func (c *countingDisk) DeleteDirectory(ctx context.Context, dir string) error {
	c.hit()
	c.mu.Lock()
	fail := c.failDeleteAfter >= 0 && c.deletes >= c.failDeleteAfter
	c.deletes++
	c.mu.Unlock()
	if fail {
		return errors.New("disk unavailable")
	}
	return c.Disk.DeleteDirectory(ctx, dir)
}

func (c *countingDisk) Visibility(ctx context.Context, p string) (disks.Visibility, error) {
	c.hit()
	return c.Disk.Visibility(ctx, p)
}

func (c *countingDisk) SetVisibility(ctx context.Context, p string, v disks.Visibility) error {
	c.hit()
	return c.Disk.SetVisibility(ctx, p, v)
}

func (c *countingDisk) URL(p string) string {
	c.hit()
	return c.Disk.URL(p)
}

func (c *countingDisk) TemporaryURL(ctx context.Context, p string, expiresAt time.Time) (string, error) {
	c.hit()
	return c.Disk.TemporaryURL(ctx, p, expiresAt)
}

func (c *countingDisk) AbsolutePath(p string) (string, error) {
	c.hit()
	if c.remote {
		return "", disks.ErrNotLocal
	}
	return c.Disk.AbsolutePath(p)
}

func (c *countingDisk) Download(ctx context.Context, p, localPath string) error {
	c.hit()
	return c.Disk.Download(ctx, p, localPath)
}

func (c *countingDisk) Upload(ctx context.Context, localPath, p, contentType string) error {
	c.hit()
	return c.Disk.Upload(ctx, localPath, p, contentType)
}

// countingCodec wraps the real codec and can be told to fail.
type countingCodec struct {
	inner ImageCodec
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingCodec) Resize(ctx context.Context, src string, width, height int, dst string) error {
	c.mu.Lock()
	c.calls++
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.inner.Resize(ctx, src, width, height, dst)
}

func (c *countingCodec) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	disk   *countingDisk
	local  *disks.LocalDisk
	codec  *countingCodec
	store  *storage.LocalStorage
	events *recordingPublisher
	deps   Deps
}

func newFixture(t *testing.T, visibility disks.Visibility) *fixture {
	t.Helper()
	local, err := disks.NewLocalDisk(disks.LocalConfig{
		Name:       "public",
		Root:       t.TempDir(),
		BaseURL:    "http://files.test/storage",
		Visibility: visibility,
		Signer:     disks.NewURLSigner("test-secret"),
	})
	require.NoError(t, err)

	f := &fixture{
		disk:   &countingDisk{Disk: local, failDeleteAfter: -1},
		local:  local,
		codec:  &countingCodec{inner: previews.NewCodec()},
		store:  storage.NewMemoryStorage(),
		events: &recordingPublisher{},
	}
	f.deps = Deps{
		Disks: disks.NewManager("public", f.disk),
		Store: f.store,
		Codec: f.codec,
		Sizes: map[string]models.ThumbnailSize{
			"thumb":  {Width: 50, Height: 50},
			"medium": {Width: 100, Height: 100},
		},
		Events:  f.events,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Logger:  log.New(io.Discard, "", 0),
	}
	return f
}

func pngFile(t *testing.T, name string, w, h int) RawFile {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return RawFile{Filename: name, ContentType: "image/png", Size: int64(buf.Len()), Body: &buf}
}

func textFile(name, body string) RawFile {
	return RawFile{Filename: name, ContentType: "text/plain", Size: int64(len(body)), Body: bytes.NewBufferString(body)}
}

// gatedCodec holds every resize until release is closed.
type gatedCodec struct {
	inner   ImageCodec
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedCodec(inner ImageCodec) *gatedCodec {
	return &gatedCodec{inner: inner, started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedCodec) Resize(ctx context.Context, src string, width, height int, dst string) error {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.inner.Resize(ctx, src, width, height, dst)
}
