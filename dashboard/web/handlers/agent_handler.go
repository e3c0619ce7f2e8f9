package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/agents"
	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/tokens"
	"github.com/yeti47/agentbench/dashboard/web/middleware"
)

type AgentHandler struct {
	logger   logging.Logger
	client   agents.AgentClient
	vault    tokens.TokenVault
	unlocked *tokens.UnlockedTokens
}

func NewAgentHandler(logger logging.Logger, client agents.AgentClient, vault tokens.TokenVault, unlocked *tokens.UnlockedTokens) *AgentHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &AgentHandler{
		logger:   logger,
		client:   client,
		vault:    vault,
		unlocked: unlocked,
	}
}

type sendRequest struct {
	TokenID string `json:"token_id"`
	agents.AgentRequest
}

// Send handles POST /api/agent/send. The endpoint defaults to the one saved
// with the token.
func (h *AgentHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TokenID == "" {
		respondError(c, http.StatusBadRequest, "token_id is required")
		return
	}

	if !slices.Contains(middleware.UnlockedTokenIDs(c), req.TokenID) {
		respondError(c, http.StatusForbidden, "Token is locked")
		return
	}

	if req.Endpoint == "" {
		token, err := h.vault.GetToken(c.Request.Context(), req.TokenID)
		if err != nil {
			if tokens.IsTokenNotFoundError(err) {
				respondError(c, http.StatusNotFound, "Token not found")
				return
			}
			h.logger.Error("Failed to load token", "id", req.TokenID, "error", err)
			respondError(c, http.StatusInternalServerError, "Failed to load token")
			return
		}
		req.Endpoint = token.Endpoint
	}

	var response *agents.AgentResponse
	err := h.unlocked.Use(req.TokenID, func(value []byte) error {
		var sendErr error
		response, sendErr = h.client.Send(c.Request.Context(), req.AgentRequest, value)
		return sendErr
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, response)
	case tokens.IsTokenLockedError(err):
		respondError(c, http.StatusForbidden, "Token is locked")
	case agents.IsRecoverableAgentError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "recoverable": true})
	case agents.IsAgentRequestError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "recoverable": false})
	default:
		h.logger.Error("Agent request failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Agent request failed")
	}
}
