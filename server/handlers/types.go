package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// badRequest writes the standard 400 envelope
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "bad_request",
			"message": message,
		},
	})
}

// internalError writes the standard 500 envelope
func internalError(c *gin.Context, code, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// fatalGeneration writes the JSON error body the voice client expects
// on a failed turn. The timestamp lets users correlate with telemetry.
func fatalGeneration(c *gin.Context, details string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     "Failed to generate response",
		"details":   details,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
