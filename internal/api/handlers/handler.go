package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage/disks"
	"github.com/gin-gonic/gin"
)

const defaultMaxUploadSize = 200 << 20 // 200 MB

// UploadManager is the upload surface the HTTP handlers drive.
type UploadManager interface {
	Ingest(ctx context.Context, owner models.HasAssets, file services.RawFile, opts ...services.IngestOption) (models.Asset, error)
	ResolveURL(ctx context.Context, asset models.Asset, label string, opts ...services.ResolveOption) (string, error)
	Delete(ctx context.Context, owner models.HasAssets, asset *models.Asset) (services.DeleteReport, error)
	Uploads(ctx context.Context, owner models.HasAssets) ([]models.Asset, error)
	Get(ctx context.Context, id string) (models.Asset, error)
}

type Handler struct {
	Uploads       UploadManager
	Owners        *models.OwnerRegistry
	Disks         *disks.Manager
	MaxUploadSize int64
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// owner resolves the :kind/:id route parameters, writing the error response itself.
func (h *Handler) owner(c *gin.Context) (models.HasAssets, bool) {
	ref := models.OwnerRef{Kind: models.OwnerKind(c.Param("kind")), ID: c.Param("id")}
	owner, err := h.Owners.Resolve(c.Request.Context(), ref)
	switch {
	case err == nil:
		return owner, true
	case errors.Is(err, models.ErrUnknownOwnerKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrOwnerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Owner not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load owner"})
	}
	return nil, false
}

// upload loads an upload by id, writing the error response itself.
func (h *Handler) upload(c *gin.Context, id string) (models.Asset, bool) {
	asset, err := h.Uploads.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
		return models.Asset{}, false
	}
	if err != nil {
		respondError(c, err)
		return models.Asset{}, false
	}
	return asset, true
}

func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindIngestion:
		return http.StatusUnprocessableEntity
	case services.KindInvalidSize:
		return http.StatusBadRequest
	case services.KindSourceMissing, services.KindDerivativeMissing:
		return http.StatusNotFound
	case services.KindOwnershipMismatch:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if kind := services.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	c.JSON(statusFor(err), body)
}
