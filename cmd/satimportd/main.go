// Command satimportd serves read-only import progress over HTTP so
// operators can watch a long-running import without touching the progress
// file directly.
package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/openprep/sat-import-service/internal/config"
	"github.com/openprep/sat-import-service/internal/handlers"
	"github.com/openprep/sat-import-service/internal/progress"
	"github.com/openprep/sat-import-service/internal/services"
	"github.com/openprep/sat-import-service/internal/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := utils.ForEnvironment(cfg.Environment)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := progress.Open(cfg.ProgressFile)
	if err != nil {
		logger.LogError(err, "failed to open progress file", "path", cfg.ProgressFile)
		os.Exit(1)
	}
	report := services.NewReportService(store, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	handlers.NewHandlerManager(store, report, logger).SetupRoutes(router)

	logger.Info("Status server listening", "port", cfg.Port, "progress_file", cfg.ProgressFile)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.LogError(err, "server exited")
		os.Exit(1)
	}
}
