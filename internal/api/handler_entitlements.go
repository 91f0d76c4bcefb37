package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
)

var entitlementKeys = map[model.EntitlementKey]bool{
	model.EntitlementBasicRemoteBoost:     true,
	model.EntitlementSmartHomeIntegration: true,
}

type putEntitlementRequest struct {
	Scope    model.EntitlementScope `json:"scope" binding:"required"`
	Key      model.EntitlementKey   `json:"key" binding:"required"`
	DeviceID string                 `json:"deviceId"`
	Enabled  *bool                  `json:"enabled" binding:"required"`
}

// PutEntitlement upserts a feature flag at tenant or device scope.
func (h *Handler) PutEntitlement(c *gin.Context) {
	var req putEntitlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !entitlementKeys[req.Key] {
		h.fail(c, apperr.Validation("unknown entitlement key"))
		return
	}

	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)

	deviceID := ""
	switch req.Scope {
	case model.EntitlementScopeTenant:
		if req.DeviceID != "" {
			h.fail(c, apperr.Validation("deviceId is not allowed at TENANT scope"))
			return
		}
	case model.EntitlementScopeDevice:
		if req.DeviceID == "" {
			h.fail(c, apperr.Validation("deviceId is required at DEVICE scope"))
			return
		}
		if _, err := h.store.GetDevice(ctx, tenantID, req.DeviceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.fail(c, apperr.Validation("device does not exist in tenant"))
				return
			}
			h.fail(c, err)
			return
		}
		deviceID = req.DeviceID
	default:
		h.fail(c, apperr.Validation("unknown scope"))
		return
	}

	row := &model.Entitlement{
		ID:       model.NewID(),
		TenantID: tenantID,
		Scope:    req.Scope,
		Key:      req.Key,
		DeviceID: deviceID,
		Enabled:  *req.Enabled,
	}
	if err := h.store.UpsertEntitlement(ctx, row); err != nil {
		h.fail(c, err)
		return
	}

	p := mw.GetPrincipal(c)
	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditEntitlementSet,
		EntityType:  "entitlement",
		EntityID:    row.ID,
		Metadata: map[string]any{
			"key":     string(req.Key),
			"scope":   string(req.Scope),
			"enabled": *req.Enabled,
		},
	})
	c.JSON(http.StatusOK, row)
}

// ListEntitlements returns the tenant's stored flag rows.
func (h *Handler) ListEntitlements(c *gin.Context) {
	items, err := h.store.ListEntitlements(c.Request.Context(), mw.ActiveTenantID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CheckEntitlement resolves one flag for the active tenant, optionally
// for a specific device.
func (h *Handler) CheckEntitlement(c *gin.Context) {
	key := model.EntitlementKey(c.Query("key"))
	if !entitlementKeys[key] {
		h.fail(c, apperr.Validation("unknown entitlement key"))
		return
	}
	enabled, err := h.entitlements.Check(
		c.Request.Context(), mw.ActiveTenantID(c), key, c.Query("deviceId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": string(key), "enabled": enabled})
}
