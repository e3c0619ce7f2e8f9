package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/tokens"
	"github.com/yeti47/agentbench/dashboard/guard"
	"github.com/yeti47/agentbench/dashboard/sessions"
)

// UnlockedTokenIDsKey holds the []string of token ids the request may use.
const UnlockedTokenIDsKey = "unlockedTokenIDs"

type UnlockMiddleware struct {
	logger             logging.Logger
	unlocked           *tokens.UnlockedTokens
	guard              *guard.SessionGuard
	unlockStoreFactory sessions.UnlockStoreFactory
}

func NewUnlockMiddleware(logger logging.Logger, unlocked *tokens.UnlockedTokens, sessionGuard *guard.SessionGuard, unlockStoreFactory sessions.UnlockStoreFactory) *UnlockMiddleware {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &UnlockMiddleware{
		logger:             logger,
		unlocked:           unlocked,
		guard:              sessionGuard,
		unlockStoreFactory: unlockStoreFactory,
	}
}

// RequireUnlocked admits requests whose session holds at least one token that
// is still unlocked in memory.
func (m *UnlockMiddleware) RequireUnlocked(c *gin.Context) {
	if m.guard.IsExpired() {
		m.logger.Info("Rejecting request, session expired")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired", "state": guard.StateExpired})
		return
	}

	store := m.unlockStoreFactory(c)
	ids, err := store.UnlockedIDs()
	if err != nil {
		m.logger.Warn("Failed to read dashboard session", "error", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No unlocked token", "state": guard.StateLocked})
		return
	}

	active := make([]string, 0, len(ids))
	for _, id := range ids {
		if m.unlocked.Has(id) {
			active = append(active, id)
		}
	}

	if len(active) == 0 {
		m.logger.Info("Rejecting request, no unlocked token")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No unlocked token", "state": guard.StateLocked})
		return
	}

	c.Set(UnlockedTokenIDsKey, active)
	c.Next()
}

// UnlockedTokenIDs returns the ids RequireUnlocked stored on the context.
func UnlockedTokenIDs(c *gin.Context) []string {
	value, exists := c.Get(UnlockedTokenIDsKey)
	if !exists {
		return nil
	}
	ids, _ := value.([]string)
	return ids
}
