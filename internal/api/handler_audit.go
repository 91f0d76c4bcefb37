package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solar-fleet-backend/internal/mw"
	"solar-fleet-backend/internal/store"
)

// ListAuditLogs returns a filtered page of the tenant's audit trail.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	f := store.AuditFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		Limit:      intQuery(c, "limit", 100),
		Offset:     intQuery(c, "offset", 0),
	}
	items, err := h.store.ListAuditLogs(c.Request.Context(), mw.ActiveTenantID(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
