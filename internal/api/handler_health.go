package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports process liveness plus database reachability.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
