package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillasessions "github.com/gorilla/sessions"

	"github.com/yeti47/agentbench/core/agents"
	"github.com/yeti47/agentbench/core/ccc/auth"
	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/config"
	"github.com/yeti47/agentbench/core/hygiene"
	"github.com/yeti47/agentbench/core/tokens"
	"github.com/yeti47/agentbench/dashboard/guard"
	"github.com/yeti47/agentbench/dashboard/sessions"
	"github.com/yeti47/agentbench/dashboard/web/handlers"
	"github.com/yeti47/agentbench/dashboard/web/middleware"
)

// Dependencies are the services the dashboard routes are built from.
type Dependencies struct {
	Vault        tokens.TokenVault
	Unlocked     *tokens.UnlockedTokens
	Tracker      auth.UnlockFailureTracker
	Guard        *guard.SessionGuard
	Copier       *hygiene.ClipboardCopier
	AgentClient  agents.AgentClient
	SessionStore gorillasessions.Store
}

// NewRouter builds the gin engine serving the dashboard's JSON API.
func NewRouter(cfg *config.Config, logger logging.Logger, deps Dependencies) *gin.Engine {
	if logger == nil {
		logger = logging.NopLogger
	}

	router := initializeGin(cfg)
	router.Use(gin.Recovery())

	unlockStoreFactory := sessions.NewUnlockStoreFactory(deps.SessionStore)

	passwordHandler := handlers.NewPasswordHandler(logger)
	tokenHandler := handlers.NewTokenHandler(logger, deps.Vault, deps.Unlocked, deps.Tracker, deps.Copier, unlockStoreFactory, cfg.MinimumStrength())
	unlockHandler := handlers.NewUnlockHandler(logger, deps.Vault, deps.Unlocked, deps.Tracker, deps.Guard, unlockStoreFactory)
	sessionHandler := handlers.NewSessionHandler(logger, deps.Guard)
	agentHandler := handlers.NewAgentHandler(logger, deps.AgentClient, deps.Vault, deps.Unlocked)

	unlockMiddleware := middleware.NewUnlockMiddleware(logger, deps.Unlocked, deps.Guard, unlockStoreFactory)
	originMiddleware := middleware.NewOriginMiddleware(logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "agentbench-dashboard",
		})
	})

	api := router.Group("/api")
	api.Use(originMiddleware.RequireSameOriginJSON)
	{
		api.POST("/password/strength", passwordHandler.Strength)

		api.GET("/tokens", tokenHandler.ListTokens)
		api.POST("/tokens", tokenHandler.CreateToken)
		api.DELETE("/tokens/:id", tokenHandler.DeleteToken)
		api.POST("/tokens/:id/password", tokenHandler.ChangePassword)
		api.POST("/tokens/:id/unlock", unlockHandler.Unlock)
		api.POST("/lock", unlockHandler.Lock)

		api.GET("/session", sessionHandler.Status)
	}

	// Routes that need a token unlocked in this session
	unlocked := api.Group("/")
	unlocked.Use(unlockMiddleware.RequireUnlocked)
	{
		unlocked.POST("/activity", sessionHandler.Activity)
		unlocked.POST("/tokens/:id/copy", tokenHandler.CopyToken)
		unlocked.POST("/agent/send", agentHandler.Send)
	}

	return router
}
