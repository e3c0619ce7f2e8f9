//go:build release
// +build release

package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/config"
)

// initializeGin sets up Gin in release mode for production builds
func initializeGin(_ *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	// Use gin.New() instead of gin.Default() to avoid debug middleware in release mode
	router := gin.New()

	// The dashboard only listens locally, so no proxy is trusted
	router.SetTrustedProxies(nil)

	return router
}
