package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openprep/sat-import-service/internal/progress"
	"github.com/openprep/sat-import-service/internal/services"
	"github.com/openprep/sat-import-service/internal/utils"
)

type HandlerManager struct {
	progressHandler *ProgressHandler
}

func NewHandlerManager(store *progress.Store, report services.ReportService, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		progressHandler: NewProgressHandler(store, report, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		progressRoutes := v1.Group("/progress")
		{
			progressRoutes.GET("", hm.progressHandler.ListProgress)
			progressRoutes.GET("/report", hm.progressHandler.DownloadReport)
			progressRoutes.GET("/:key", hm.progressHandler.GetProgress)
			progressRoutes.POST("/:key/reset", hm.progressHandler.ResetProgress)
		}
	}
}
