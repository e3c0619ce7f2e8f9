package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/ccc/auth"
	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/encryption"
	"github.com/yeti47/agentbench/core/hygiene"
	"github.com/yeti47/agentbench/core/passwords"
	"github.com/yeti47/agentbench/core/tokens"
	"github.com/yeti47/agentbench/dashboard/sessions"
	"github.com/yeti47/agentbench/dashboard/web/middleware"
)

type TokenHandler struct {
	logger             logging.Logger
	vault              tokens.TokenVault
	unlocked           *tokens.UnlockedTokens
	tracker            auth.UnlockFailureTracker
	copier             *hygiene.ClipboardCopier
	unlockStoreFactory sessions.UnlockStoreFactory
	minimumStrength    passwords.Strength
	now                func() time.Time
}

func NewTokenHandler(
	logger logging.Logger,
	vault tokens.TokenVault,
	unlocked *tokens.UnlockedTokens,
	tracker auth.UnlockFailureTracker,
	copier *hygiene.ClipboardCopier,
	unlockStoreFactory sessions.UnlockStoreFactory,
	minimumStrength passwords.Strength,
) *TokenHandler {
	if logger == nil {
		logger = logging.NopLogger
	}
	if tracker == nil {
		tracker = auth.NopFailureTracker
	}

	return &TokenHandler{
		logger:             logger,
		vault:              vault,
		unlocked:           unlocked,
		tracker:            tracker,
		copier:             copier,
		unlockStoreFactory: unlockStoreFactory,
		minimumStrength:    minimumStrength,
		now:                time.Now,
	}
}

// TokenResponse is a saved token as the dashboard lists it. The envelope is never sent.
type TokenResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Endpoint  string    `json:"endpoint"`
	Unlocked  bool      `json:"unlocked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *TokenHandler) toResponse(token *tokens.Token) TokenResponse {
	return TokenResponse{
		ID:        token.ID,
		Name:      token.Name,
		Endpoint:  token.Endpoint,
		Unlocked:  h.unlocked.Has(token.ID),
		CreatedAt: token.CreatedAt,
		UpdatedAt: token.UpdatedAt,
	}
}

type createTokenRequest struct {
	Name            string `json:"name"`
	Endpoint        string `json:"endpoint"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ListTokens handles GET /api/tokens
func (h *TokenHandler) ListTokens(c *gin.Context) {
	list, err := h.vault.ListTokens(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list tokens", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to load tokens")
		return
	}

	response := make([]TokenResponse, 0, len(list))
	for _, token := range list {
		response = append(response, h.toResponse(token))
	}
	c.JSON(http.StatusOK, response)
}

// CreateToken handles POST /api/tokens
func (h *TokenHandler) CreateToken(c *gin.Context) {
	var req createTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if result, err := passwords.ValidateNewPassword(req.Password, req.ConfirmPassword, h.minimumStrength); err != nil {
		respondPasswordRejected(c, err, result)
		return
	}

	password := []byte(req.Password)
	defer hygiene.SecureWipe(password)

	token, err := h.vault.SaveToken(c.Request.Context(), tokens.SaveTokenRequest{
		Name:     req.Name,
		Endpoint: req.Endpoint,
		Secret:   []byte(req.Token),
	}, password)
	if err != nil {
		switch {
		case tokens.IsTokenValidationError(err):
			respondError(c, http.StatusBadRequest, err.Error())
		case tokens.IsTokenAlreadyExistsError(err):
			respondError(c, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Failed to save token", "error", err)
			respondError(c, http.StatusInternalServerError, "Failed to save token")
		}
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(token))
}

// DeleteToken handles DELETE /api/tokens/:id
func (h *TokenHandler) DeleteToken(c *gin.Context) {
	id := c.Param("id")

	if err := h.vault.DeleteToken(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete token", "id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to delete token")
		return
	}

	h.unlocked.Remove(id)
	h.tracker.Reset(id)
	if err := h.unlockStoreFactory(c).RemoveUnlocked(id); err != nil {
		h.logger.Warn("Failed to update dashboard session", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ChangePassword handles POST /api/tokens/:id/password
func (h *TokenHandler) ChangePassword(c *gin.Context) {
	id := c.Param("id")

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if result, err := passwords.ValidateNewPassword(req.NewPassword, req.ConfirmPassword, h.minimumStrength); err != nil {
		respondPasswordRejected(c, err, result)
		return
	}

	now := h.now()
	if h.tracker.ShouldLockOut(h.tracker.FailureCount(id, now)) {
		respondError(c, http.StatusTooManyRequests, "Too many failed attempts, try again later")
		return
	}

	oldPassword := []byte(req.OldPassword)
	newPassword := []byte(req.NewPassword)
	defer hygiene.SecureWipeAll(oldPassword, newPassword)

	err := h.vault.ChangePassword(c.Request.Context(), id, oldPassword, newPassword)
	switch {
	case err == nil:
		h.tracker.Reset(id)
		c.JSON(http.StatusOK, gin.H{"changed": true})
	case tokens.IsTokenNotFoundError(err):
		respondError(c, http.StatusNotFound, "Token not found")
	case encryption.IsDecryptionError(err):
		h.tracker.RecordFailure(id, c.ClientIP(), now)
		respondError(c, http.StatusUnauthorized, decryptionFailedMessage)
	default:
		h.logger.Error("Failed to change token password", "id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to change password")
	}
}

// CopyToken handles POST /api/tokens/:id/copy. The token must be unlocked in
// this session; the clipboard is cleared automatically.
func (h *TokenHandler) CopyToken(c *gin.Context) {
	id := c.Param("id")

	if !slices.Contains(middleware.UnlockedTokenIDs(c), id) {
		respondError(c, http.StatusForbidden, "Token is locked")
		return
	}

	err := h.unlocked.Use(id, func(value []byte) error {
		return h.copier.CopyBytes(value, true)
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"copied":            true,
			"clears_in_seconds": int(h.copier.ClearDelay().Seconds()),
		})
	case tokens.IsTokenLockedError(err):
		respondError(c, http.StatusForbidden, "Token is locked")
	case hygiene.IsClipboardError(err):
		respondError(c, http.StatusServiceUnavailable, "Clipboard unavailable")
	default:
		h.logger.Error("Failed to copy token", "id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to copy token")
	}
}
