// Package http exposes the coordinator's client-facing REST surface.
package http

import (
	"github.com/gin-gonic/gin"

	"filerelay/internal/logging"
	"filerelay/internal/server/config"
	"filerelay/internal/server/services"
)

// Handler binds the services to gin routes.
type Handler struct {
	files  *services.FileService
	users  *services.UserService
	cfg    *config.Config
	logger logging.Logger
}

func NewHandler(files *services.FileService, users *services.UserService, cfg *config.Config, logger logging.Logger) *Handler {
	return &Handler{
		files:  files,
		users:  users,
		cfg:    cfg,
		logger: logger.With("module", "http"),
	}
}

// Router assembles the route tree. Everything except login, health and the
// public key requires a bearer token.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)
	router.POST("/login", h.login)
	router.GET("/publicKey", h.publicKey)

	authorized := router.Group("/", authMiddleware([]byte(h.cfg.SecretKey)))
	{
		authorized.GET("/files", h.listFiles)

		file := authorized.Group("/file")
		{
			file.GET("", h.getFile)
			file.POST("/delete", h.deleteFile)
			file.POST("/transferByURL", h.transferBy)
			file.POST("/transferBySCP", h.transferBy)
			file.POST("/transferByOSS", h.transferBy)
			file.POST("/transferByS3", h.transferBy)
			file.GET("/transferProgress", h.transferProgress)
			file.POST("/setShared", h.setShared)
			file.POST("/unsetShared", h.unsetShared)
			file.POST("/updateDisplayName", h.updateDisplayName)
			file.POST("/ossUpload", h.ossUpload)
			file.GET("/ossUploadProgress", h.ossUploadProgress)
			file.GET("/download", h.download)
			file.POST("/upload", h.upload)
		}
	}

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
