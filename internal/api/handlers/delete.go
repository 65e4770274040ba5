package handlers

import (
	"net/http"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/gin-gonic/gin"
)

// DeleteUploads removes every upload of the owner, or the one named by :uploadID.
func (h *Handler) DeleteUploads(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var target *models.Asset
	if id := c.Param("uploadID"); id != "" {
		asset, ok := h.upload(c, id)
		if !ok {
			return
		}
		target = &asset
	}

	report, err := h.Uploads.Delete(c.Request.Context(), owner, target)
	body := gin.H{"deleted": report.Deleted(), "pending": report.Pending}
	if err != nil {
		body["error"] = err.Error()
		body["kind"] = services.KindOf(err)
		c.JSON(statusFor(err), body)
		return
	}
	c.JSON(http.StatusOK, body)
}
