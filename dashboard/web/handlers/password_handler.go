package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/passwords"
)

type PasswordHandler struct {
	logger logging.Logger
}

func NewPasswordHandler(logger logging.Logger) *PasswordHandler {
	if logger == nil {
		logger = logging.NopLogger
	}
	return &PasswordHandler{logger: logger}
}

type strengthRequest struct {
	Password string `json:"password"`
}

// Strength handles POST /api/password/strength. The result is advisory.
func (h *PasswordHandler) Strength(c *gin.Context) {
	var req strengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	c.JSON(http.StatusOK, passwords.Evaluate(req.Password))
}
