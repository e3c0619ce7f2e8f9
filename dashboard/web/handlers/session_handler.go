package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/inactivity"
	"github.com/yeti47/agentbench/dashboard/guard"
)

type SessionHandler struct {
	logger logging.Logger
	guard  *guard.SessionGuard
}

func NewSessionHandler(logger logging.Logger, sessionGuard *guard.SessionGuard) *SessionHandler {
	if logger == nil {
		logger = logging.NopLogger
	}
	return &SessionHandler{logger: logger, guard: sessionGuard}
}

type activityRequest struct {
	Event string `json:"event"`
}

// Activity handles POST /api/activity, the browser's report of a user interaction.
func (h *SessionHandler) Activity(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, err := inactivity.ParseActivityKind(req.Event)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	accepted := h.guard.Activity(kind)
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// Status handles GET /api/session
func (h *SessionHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.guard.Status())
}
