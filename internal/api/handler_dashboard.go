package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
	"solar-fleet-backend/internal/store"
)

// DashboardSummary returns the tenant KPIs: device counts per status,
// open alert counts per severity, and today's rollup totals.
func (h *Handler) DashboardSummary(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)

	deviceCounts, err := h.store.CountDevicesByStatus(ctx, tenantID)
	if err != nil {
		h.fail(c, err)
		return
	}

	alerts := map[string]int64{}
	for _, sev := range []model.Severity{model.SeverityInfo, model.SeverityWarning, model.SeverityCritical} {
		_, total, aerr := h.store.ListAlertEvents(ctx, tenantID, store.AlertEventFilter{
			Status:   []model.AlertEventStatus{model.AlertEventOpen, model.AlertEventAcknowledged},
			Severity: []model.Severity{sev},
			Limit:    1,
		})
		if aerr != nil {
			h.fail(c, aerr)
			return
		}
		alerts[string(sev)] = total
	}

	// Yesterday is the latest fully rolled-up day.
	day := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	energyKwh, waterLiters, err := h.store.SumRollupsForDay(ctx, tenantID, day)
	if err != nil {
		h.fail(c, err)
		return
	}

	devices := map[string]int64{}
	for status, n := range deviceCounts {
		devices[string(status)] = n
	}
	c.JSON(http.StatusOK, gin.H{
		"devices":    devices,
		"openAlerts": alerts,
		"lastDay": gin.H{
			"date":        day,
			"energyKwh":   energyKwh,
			"waterLiters": waterLiters,
		},
	})
}
