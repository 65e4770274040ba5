package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/gin-gonic/gin"
)

// UploadResult is the per-file result object returned to the client.
type UploadResult struct {
	Success bool          `json:"success"`
	File    *models.Asset `json:"file,omitempty"`
	Name    string        `json:"name"`
	Error   string        `json:"error,omitempty"`
	Kind    string        `json:"kind,omitempty"`
}

// IngestUploads attaches one or more files ("files" or "file" form fields) to an owner.
func (h *Handler) IngestUploads(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form: " + err.Error()})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	limit := h.MaxUploadSize
	if limit <= 0 {
		limit = defaultMaxUploadSize
	}
	for _, fh := range files {
		if fh.Size > limit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large: " + fh.Filename})
			return
		}
	}

	opts := []services.IngestOption{
		services.WithCollection(c.PostForm("collection")),
		services.WithDisk(c.PostForm("disk")),
		services.WithTags(c.PostForm("tags")),
	}

	results := make([]UploadResult, 0, len(files))
	created := 0
	for _, fh := range files {
		asset, err := h.ingestOne(c, owner, fh, opts)
		if err != nil {
			results = append(results, UploadResult{Name: fh.Filename, Error: err.Error(), Kind: string(services.KindOf(err))})
			continue
		}
		created++
		results = append(results, UploadResult{Success: true, Name: fh.Filename, File: &asset})
	}

	status := http.StatusCreated
	if created == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"results": results})
}

func (h *Handler) ingestOne(c *gin.Context, owner models.HasAssets, fh *multipart.FileHeader, opts []services.IngestOption) (models.Asset, error) {
	file, body, err := services.FromMultipart(fh)
	if err != nil {
		return models.Asset{}, err
	}
	defer body.Close()
	return h.Uploads.Ingest(c.Request.Context(), owner, file, opts...)
}

// ListUploads returns the uploads of an owner, oldest first.
func (h *Handler) ListUploads(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	assets, err := h.Uploads.Uploads(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	c.JSON(http.StatusOK, gin.H{"uploads": assets, "count": len(assets)})
}
