package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
	"solar-fleet-backend/internal/store"
)

type createAlertRuleRequest struct {
	Name     string              `json:"name" binding:"required"`
	Type     model.AlertRuleType `json:"type" binding:"required"`
	Params   datatypes.JSONMap   `json:"params"`
	Severity model.Severity      `json:"severity"`
	Enabled  *bool               `json:"enabled"`
}

var alertRuleTypes = map[model.AlertRuleType]bool{
	model.AlertRuleNoTelemetry:      true,
	model.AlertRuleOverTemp:         true,
	model.AlertRulePossibleLeak:     true,
	model.AlertRuleSensorOutOfRange: true,
}

var severities = map[model.Severity]bool{
	model.SeverityInfo:     true,
	model.SeverityWarning:  true,
	model.SeverityCritical: true,
}

// CreateAlertRule registers a rule to be swept against the tenant fleet.
func (h *Handler) CreateAlertRule(c *gin.Context) {
	var req createAlertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !alertRuleTypes[req.Type] {
		h.fail(c, apperr.Validation("unknown rule type"))
		return
	}
	severity := model.SeverityWarning
	if req.Severity != "" {
		if !severities[req.Severity] {
			h.fail(c, apperr.Validation("unknown severity"))
			return
		}
		severity = req.Severity
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule := &model.AlertRule{
		ID:       model.NewID(),
		TenantID: mw.ActiveTenantID(c),
		Name:     req.Name,
		Enabled:  enabled,
		Type:     req.Type,
		Params:   req.Params,
		Severity: severity,
	}
	if err := h.store.CreateAlertRule(c.Request.Context(), rule); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// ListAlertRules returns the tenant's rules.
func (h *Handler) ListAlertRules(c *gin.Context) {
	rules, err := h.store.ListAlertRules(c.Request.Context(), mw.ActiveTenantID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rules})
}

// ListAlertEvents returns a filtered page of alert events.
func (h *Handler) ListAlertEvents(c *gin.Context) {
	f := store.AlertEventFilter{
		DeviceID: c.Query("deviceId"),
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
	}
	if s := c.Query("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			f.Status = append(f.Status, model.AlertEventStatus(part))
		}
	}
	if s := c.Query("severity"); s != "" {
		for _, part := range strings.Split(s, ",") {
			f.Severity = append(f.Severity, model.Severity(part))
		}
	}

	events, total, err := h.store.ListAlertEvents(c.Request.Context(), mw.ActiveTenantID(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": events, "total": total})
}

// AckAlertEvent moves an OPEN alert to ACKNOWLEDGED.
func (h *Handler) AckAlertEvent(c *gin.Context) {
	ctx := c.Request.Context()
	event, err := h.store.GetAlertEvent(ctx, mw.ActiveTenantID(c), c.Param("alertId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if event.Status != model.AlertEventOpen {
		h.fail(c, apperr.Conflict("alert is not open"))
		return
	}

	now := time.Now().UTC()
	event.Status = model.AlertEventAcknowledged
	event.AcknowledgedAt = &now
	if err := h.store.SaveAlertEvent(ctx, event); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// CloseAlertEvent closes an OPEN or ACKNOWLEDGED alert. Closing releases
// the dedupe key so a later sweep may open a fresh event for the same
// device and rule.
func (h *Handler) CloseAlertEvent(c *gin.Context) {
	ctx := c.Request.Context()
	event, err := h.store.GetAlertEvent(ctx, mw.ActiveTenantID(c), c.Param("alertId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if event.Status == model.AlertEventClosed {
		h.fail(c, apperr.Conflict("alert is already closed"))
		return
	}

	now := time.Now().UTC()
	event.Status = model.AlertEventClosed
	event.ClosedAt = &now
	event.DedupeKey = nil
	if err := h.store.SaveAlertEvent(ctx, event); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}
