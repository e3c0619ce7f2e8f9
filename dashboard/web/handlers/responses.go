package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/passwords"
)

// decryptionFailedMessage is shown for every failed unlock, whatever the cause.
const decryptionFailedMessage = "Incorrect password or corrupted data"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondPasswordRejected(c *gin.Context, err error, result passwords.Result) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":    err.Error(),
		"strength": result,
	})
}
