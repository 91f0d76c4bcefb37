package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
)

type simActionRequest struct {
	Action string `json:"action" binding:"required"`
}

var simActions = map[string]bool{
	"ACTIVATE":   true,
	"DEACTIVATE": true,
	"REFRESH":    true,
}

// SimAction forwards a carrier action for a SIM and logs the outcome.
func (h *Handler) SimAction(c *gin.Context) {
	var req simActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	action := strings.ToUpper(req.Action)
	if !simActions[action] {
		h.fail(c, apperr.Validation("unknown sim action"))
		return
	}

	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)
	p := mw.GetPrincipal(c)
	iccid := c.Param("iccid")

	result, err := h.sim.Execute(ctx, iccid, action)
	if err != nil {
		h.fail(c, err)
		return
	}

	row := &model.SimAction{
		ID:          model.NewID(),
		TenantID:    tenantID,
		ICCID:       iccid,
		Action:      action,
		Status:      result.Status,
		RequestedBy: p.UserID,
	}
	if err := h.store.CreateSimAction(ctx, row); err != nil {
		h.fail(c, err)
		return
	}

	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditSimAction,
		EntityType:  "sim",
		EntityID:    iccid,
		Metadata:    map[string]any{"action": action, "status": result.Status},
	})
	c.JSON(http.StatusOK, row)
}
