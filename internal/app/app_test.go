package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *configuration.Config {
	t.Helper()
	return &configuration.Config{
		Server:        configuration.ServerConfig{Port: "0"},
		MetadataStore: "memory",
		Uploads: configuration.UploadsConfig{
			DefaultDisk:     "public",
			LocalRoot:       t.TempDir(),
			LocalURL:        "http://localhost/storage",
			LocalVisibility: "public",
			SigningKey:      "secret",
			SignedURLTTL:    5 * time.Minute,
			OwnerKinds:      []string{"user", "post"},
			ThumbnailSizes:  map[string]models.ThumbnailSize{"thumb": {Width: 10, Height: 10}},
		},
	}
}

func TestBuildWiresManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := Build(context.Background(), testConfig(t), false)
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Owners.Known("post"))
	assert.Equal(t, []string{"public"}, a.Disks.Names())

	owner := models.OwnerRef{Kind: "user", ID: "1"}
	asset, err := a.Uploads.Ingest(context.Background(), owner, services.RawFile{
		Filename: "a.txt", ContentType: "text/plain", Size: 3, Body: bytes.NewBufferString("abc"),
	})
	require.NoError(t, err)

	url, err := a.Uploads.ResolveURL(context.Background(), asset, services.FullSize)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/storage/public/"+asset.UploadPath+"/full.txt", url)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetadataStore = "cassandra"
	_, err := Build(context.Background(), cfg, false)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Uploads.DefaultDisk = "s3"
	_, err = Build(context.Background(), cfg, false)
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := Build(context.Background(), testConfig(t), false)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
