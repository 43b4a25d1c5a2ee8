package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// pushConfigured reports whether availability notifications can be sent.
func (h *Handler) pushConfigured() bool {
	return h.webpush != nil && h.webpush.VAPIDPublicKey != ""
}

func pushUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability notifications are not configured"})
}

// GetVAPIDPublicKey returns the key browsers need to subscribe to slot
// availability pushes.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if !h.pushConfigured() {
		pushUnavailable(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
