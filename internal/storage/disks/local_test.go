package disks

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalDisk(t *testing.T, v Visibility) *LocalDisk {
	t.Helper()
	d, err := NewLocalDisk(LocalConfig{
		Name:       "public",
		Root:       t.TempDir(),
		BaseURL:    "http://files.test/storage/",
		Visibility: v,
		Signer:     NewURLSigner("secret"),
	})
	require.NoError(t, err)
	return d
}

func TestLocalDiskPutExistsDelete(t *testing.T) {
	ctx := context.Background()
	d := newTestLocalDisk(t, Public)

	require.NoError(t, d.MakeDirectory(ctx, "uploads/abc"))
	require.NoError(t, d.MakeDirectory(ctx, "uploads/abc"))

	n, err := d.Put(ctx, "uploads/abc", "full.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	ok, err := d.Exists(ctx, "uploads/abc/full.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Exists(ctx, "uploads/abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Exists(ctx, "uploads/abc/missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.DeleteDirectory(ctx, "uploads/abc"))
	ok, err = d.Exists(ctx, "uploads/abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalDiskVisibility(t *testing.T) {
	ctx := context.Background()
	d := newTestLocalDisk(t, Private)

	_, err := d.Put(ctx, "uploads/x", "full.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)

	v, err := d.Visibility(ctx, "uploads/x/full.png")
	require.NoError(t, err)
	assert.Equal(t, Private, v)

	require.NoError(t, d.SetVisibility(ctx, "uploads/x/full.png", Public))
	v, err = d.Visibility(ctx, "uploads/x/full.png")
	require.NoError(t, err)
	assert.Equal(t, Public, v)
}

func TestLocalDiskURLs(t *testing.T) {
	ctx := context.Background()
	d := newTestLocalDisk(t, Public)

	assert.Equal(t, "http://files.test/storage/public/uploads/a/full.jpg", d.URL("uploads/a/full.jpg"))

	raw, err := d.TemporaryURL(ctx, "uploads/a/full.jpg", time.Now().Add(time.Minute))
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/storage/public/uploads/a/full.jpg", u.Path)

	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	assert.NoError(t, d.VerifyToken("uploads/a/full.jpg", token))
	assert.ErrorIs(t, d.VerifyToken("uploads/a/other.jpg", token), ErrInvalidSignature)

	expired, err := d.TemporaryURL(ctx, "uploads/a/full.jpg", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	u, err = url.Parse(expired)
	require.NoError(t, err)
	assert.ErrorIs(t, d.VerifyToken("uploads/a/full.jpg", u.Query().Get("token")), ErrInvalidSignature)
}

func TestLocalDiskAbsolutePathStaysInsideRoot(t *testing.T) {
	d := newTestLocalDisk(t, Public)

	abs, err := d.AbsolutePath("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(abs, d.root+string(filepath.Separator)))

	_, err = d.AbsolutePath("/")
	assert.Error(t, err)
}

func TestLocalDiskDownloadUpload(t *testing.T) {
	ctx := context.Background()
	d := newTestLocalDisk(t, Public)

	_, err := d.Put(ctx, "uploads/y", "full.bin", strings.NewReader("payload"), 7, "")
	require.NoError(t, err)

	local := filepath.Join(t.TempDir(), "copy.bin")
	require.NoError(t, d.Download(ctx, "uploads/y/full.bin", local))
	require.NoError(t, d.Upload(ctx, local, "uploads/z/full.bin", ""))

	abs, err := d.AbsolutePath("uploads/z/full.bin")
	require.NoError(t, err)
	data, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestManager(t *testing.T) {
	d := newTestLocalDisk(t, Public)
	m := NewManager("public", d)

	got, err := m.Disk("")
	require.NoError(t, err)
	assert.Same(t, d, got)

	_, err = m.Disk("s3")
	assert.ErrorIs(t, err, ErrUnknownDisk)
	assert.Equal(t, []string{"public"}, m.Names())
}

func TestParseVisibility(t *testing.T) {
	assert.Equal(t, Public, ParseVisibility("public"))
	assert.Equal(t, Private, ParseVisibility("private"))
	assert.Equal(t, Private, ParseVisibility(""))
}

func TestPublicReadPolicyIsScopedToTaggedObjects(t *testing.T) {
	policy := publicReadPolicy("uploads")
	assert.Contains(t, policy, `"arn:aws:s3:::uploads/*"`)
	assert.Contains(t, policy, `"s3:ExistingObjectTag/visibility": "public"`)
}
