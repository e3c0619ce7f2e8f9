package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/ccc/auth"
	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/encryption"
	"github.com/yeti47/agentbench/core/hygiene"
	"github.com/yeti47/agentbench/core/tokens"
	"github.com/yeti47/agentbench/dashboard/guard"
	"github.com/yeti47/agentbench/dashboard/sessions"
)

type UnlockHandler struct {
	logger             logging.Logger
	vault              tokens.TokenVault
	unlocked           *tokens.UnlockedTokens
	tracker            auth.UnlockFailureTracker
	guard              *guard.SessionGuard
	unlockStoreFactory sessions.UnlockStoreFactory
	now                func() time.Time
}

func NewUnlockHandler(
	logger logging.Logger,
	vault tokens.TokenVault,
	unlocked *tokens.UnlockedTokens,
	tracker auth.UnlockFailureTracker,
	sessionGuard *guard.SessionGuard,
	unlockStoreFactory sessions.UnlockStoreFactory,
) *UnlockHandler {
	if logger == nil {
		logger = logging.NopLogger
	}
	if tracker == nil {
		tracker = auth.NopFailureTracker
	}

	return &UnlockHandler{
		logger:             logger,
		vault:              vault,
		unlocked:           unlocked,
		tracker:            tracker,
		guard:              sessionGuard,
		unlockStoreFactory: unlockStoreFactory,
		now:                time.Now,
	}
}

type unlockRequest struct {
	Password string `json:"password"`
}

// Unlock handles POST /api/tokens/:id/unlock. A failed attempt is never
// retried; the user has to submit the password again.
func (h *UnlockHandler) Unlock(c *gin.Context) {
	id := c.Param("id")

	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Password is required")
		return
	}

	now := h.now()
	if h.tracker.ShouldLockOut(h.tracker.FailureCount(id, now)) {
		h.logger.Warn("Unlock refused, too many failed attempts", "id", id)
		respondError(c, http.StatusTooManyRequests, "Too many failed attempts, try again later")
		return
	}

	password := []byte(req.Password)
	defer hygiene.SecureWipe(password)

	value, err := h.vault.UnlockToken(c.Request.Context(), id, password)
	if err != nil {
		switch {
		case tokens.IsTokenNotFoundError(err):
			respondError(c, http.StatusNotFound, "Token not found")
		case encryption.IsDecryptionError(err):
			count := h.tracker.RecordFailure(id, c.ClientIP(), now)
			if h.tracker.ShouldLockOut(count) {
				h.logger.Warn("Token locked out after failed unlock attempts", "id", id, "failures", count)
			}
			respondError(c, http.StatusUnauthorized, decryptionFailedMessage)
		default:
			h.logger.Error("Failed to unlock token", "id", id, "error", err)
			respondError(c, http.StatusInternalServerError, "Failed to unlock token")
		}
		return
	}

	h.tracker.Reset(id)
	h.unlocked.Put(id, value)

	if err := h.unlockStoreFactory(c).AddUnlocked(id); err != nil {
		h.logger.Error("Failed to store unlocked token in session", "error", err)
		h.unlocked.Remove(id)
		respondError(c, http.StatusInternalServerError, "Failed to start session")
		return
	}

	if err := h.guard.Start(); err != nil {
		h.logger.Error("Failed to start session guard", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to start session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "unlocked": true})
}

// Lock handles POST /api/lock
func (h *UnlockHandler) Lock(c *gin.Context) {
	if err := h.unlockStoreFactory(c).Clear(); err != nil {
		// Don't block locking, just log the error.
		h.logger.Warn("Failed to clear dashboard session", "error", err)
	}

	cleared := h.guard.Lock()
	c.JSON(http.StatusOK, gin.H{"locked": true, "cleared": cleared})
}
