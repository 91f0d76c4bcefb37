package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
)

type createTenantRequest struct {
	Name     string            `json:"name" binding:"required"`
	Type     model.TenantType  `json:"type" binding:"required"`
	Settings datatypes.JSONMap `json:"settings"`
}

var tenantTypes = map[model.TenantType]bool{
	model.TenantTypeManufacturer:    true,
	model.TenantTypeRetailer:        true,
	model.TenantTypeInstaller:       true,
	model.TenantTypePropertyManager: true,
}

// CreateTenant registers a new tenant. Platform admin only.
func (h *Handler) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !tenantTypes[req.Type] {
		h.fail(c, apperr.Validation("unknown tenant type"))
		return
	}

	tenant := &model.Tenant{
		ID:       model.NewID(),
		Name:     req.Name,
		Type:     req.Type,
		Status:   model.TenantStatusActive,
		Settings: req.Settings,
	}
	if err := h.store.CreateTenant(c.Request.Context(), tenant); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// ListTenants returns every tenant for a platform admin, and only the
// caller's member tenants for everyone else.
func (h *Handler) ListTenants(c *gin.Context) {
	p := mw.GetPrincipal(c)

	if p.IsPlatformAdmin() {
		tenants, err := h.store.ListTenants(c.Request.Context())
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": tenants})
		return
	}

	ids := make([]string, 0, len(p.Memberships))
	for _, m := range p.Memberships {
		ids = append(ids, m.TenantID)
	}
	tenants, err := h.store.ListTenantsByIDs(c.Request.Context(), ids)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": tenants})
}

// GetTenant returns one tenant the caller can see.
func (h *Handler) GetTenant(c *gin.Context) {
	tenantID := mw.ActiveTenantID(c)
	tenant, err := h.store.GetTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}
