package api

import (
	"net/http"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/api/handlers"
	"github.com/gin-gonic/gin"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

// RegisterRoutes mounts the upload API. metrics may be nil.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, metrics http.Handler) {
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		owners := api.Group("/owners/:kind/:id/uploads")
		owners.POST("", h.IngestUploads)             // attach files to an owner
		owners.GET("", h.ListUploads)                // list an owner's uploads
		owners.DELETE("", h.DeleteUploads)           // delete every upload of an owner
		owners.DELETE("/:uploadID", h.DeleteUploads) // delete one upload

		api.GET("/uploads/:id/url", h.GetUploadURL) // resolve a (derivative) URL
	}

	r.GET("/storage/:disk/*path", h.ServeStorage)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
