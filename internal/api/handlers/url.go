package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/gin-gonic/gin"
)

// GetUploadURL resolves the URL of an upload; ?size= picks a derivative,
// ?regenerate=false disables on-demand generation, ?ttl= sets signed URL minutes.
func (h *Handler) GetUploadURL(c *gin.Context) {
	asset, ok := h.upload(c, c.Param("id"))
	if !ok {
		return
	}

	var opts []services.ResolveOption
	if raw := c.Query("regenerate"); raw != "" {
		regenerate, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "regenerate must be a boolean"})
			return
		}
		if !regenerate {
			opts = append(opts, services.WithoutRegeneration())
		}
	}
	if raw := c.Query("ttl"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ttl must be a positive number of minutes"})
			return
		}
		opts = append(opts, services.WithSignedTTL(time.Duration(minutes)*time.Minute))
	}

	size := c.DefaultQuery("size", services.FullSize)
	url, err := h.Uploads.ResolveURL(c.Request.Context(), asset, size, opts...)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": asset.ID, "size": size, "url": url})
}
