package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage/disks"
	"github.com/gin-gonic/gin"
)

// ServeStorage serves files of local disks. Private files need the token of a temporary URL.
func (h *Handler) ServeStorage(c *gin.Context) {
	disk, err := h.Disks.Disk(c.Param("disk"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	local, ok := disk.(*disks.LocalDisk)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	p := strings.TrimPrefix(c.Param("path"), "/")
	abs, err := local.AbsolutePath(p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	visibility, err := local.Visibility(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	if visibility != disks.Public {
		if err := local.VerifyToken(p, c.Query("token")); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Header("Cache-Control", "private, no-store")
	}

	c.File(abs)
}
