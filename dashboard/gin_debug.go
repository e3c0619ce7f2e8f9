//go:build !release
// +build !release

package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/config"
)

// initializeGin sets up Gin for development builds. Debug mode is only kept
// when the configured log level asks for it.
func initializeGin(cfg *config.Config) *gin.Engine {
	if cfg.LogLevel != "debug" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())

	return router
}
