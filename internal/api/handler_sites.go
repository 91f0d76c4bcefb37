package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
)

type createSiteRequest struct {
	Name        string   `json:"name" binding:"required"`
	AddressLine string   `json:"addressLine"`
	City        string   `json:"city"`
	PostalCode  string   `json:"postalCode"`
	Country     string   `json:"country"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func validCoords(lat, lon *float64) bool {
	if (lat == nil) != (lon == nil) {
		return false
	}
	if lat == nil {
		return true
	}
	return *lat >= -90 && *lat <= 90 && *lon >= -180 && *lon <= 180
}

// CreateSite registers a site under the active tenant. Coordinates given
// here count as a manual fix.
func (h *Handler) CreateSite(c *gin.Context) {
	var req createSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !validCoords(req.Latitude, req.Longitude) {
		h.fail(c, apperr.Validation("latitude and longitude must be a valid pair"))
		return
	}

	p := mw.GetPrincipal(c)
	site := &model.Site{
		ID:          model.NewID(),
		TenantID:    mw.ActiveTenantID(c),
		Name:        req.Name,
		AddressLine: req.AddressLine,
		City:        req.City,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
	}
	if req.Latitude != nil {
		now := time.Now().UTC()
		src := model.LocationSourceManual
		site.Latitude = req.Latitude
		site.Longitude = req.Longitude
		site.LocationSource = &src
		site.LocationUpdatedAt = &now
		site.LocationUpdatedBy = &p.UserID
	}
	if err := h.store.CreateSite(c.Request.Context(), site); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, site)
}

// ListSites returns the active tenant's sites.
func (h *Handler) ListSites(c *gin.Context) {
	sites, err := h.store.ListSites(c.Request.Context(), mw.ActiveTenantID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sites})
}

// GetSite returns one site in the active tenant.
func (h *Handler) GetSite(c *gin.Context) {
	site, err := h.store.GetSite(c.Request.Context(), mw.ActiveTenantID(c), c.Param("siteId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

type patchLocationRequest struct {
	Latitude  *float64              `json:"latitude" binding:"required"`
	Longitude *float64              `json:"longitude" binding:"required"`
	AccuracyM *float64              `json:"accuracyM"`
	Source    *model.LocationSource `json:"source"`
	Lock      *bool                 `json:"lock"`
}

// PatchSiteLocation sets the site coordinates from a human fix. An end
// user may only adjust sites where they own a device; admin and installer
// roles may adjust any site in the tenant. A manual fix overrides a
// locked location and may toggle the lock itself.
func (h *Handler) PatchSiteLocation(c *gin.Context) {
	var req patchLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !validCoords(req.Latitude, req.Longitude) {
		h.fail(c, apperr.Validation("latitude and longitude out of range"))
		return
	}

	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)
	p := mw.GetPrincipal(c)

	site, err := h.store.GetSite(ctx, tenantID, c.Param("siteId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if mw.ActiveRole(c) == model.RoleEndUser {
		owns, oerr := h.store.DeviceOwnedOnSite(ctx, site.ID, p.UserID)
		if oerr != nil {
			h.fail(c, oerr)
			return
		}
		if !owns {
			h.fail(c, apperr.Forbidden("no owned device on this site"))
			return
		}
	}

	now := time.Now().UTC()
	src := model.LocationSourceManual
	if req.Source != nil {
		src = *req.Source
	}
	site.Latitude = req.Latitude
	site.Longitude = req.Longitude
	site.LocationAccuracyM = req.AccuracyM
	site.LocationSource = &src
	site.LocationUpdatedAt = &now
	site.LocationUpdatedBy = &p.UserID
	if req.Lock != nil {
		site.LocationLock = *req.Lock
	}
	if err := h.store.SaveSite(ctx, site); err != nil {
		h.fail(c, err)
		return
	}

	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditSiteLocationUpdated,
		EntityType:  "site",
		EntityID:    site.ID,
		Metadata: map[string]any{
			"lat":    *req.Latitude,
			"lon":    *req.Longitude,
			"source": string(src),
			"lock":   site.LocationLock,
		},
	})
	c.JSON(http.StatusOK, site)
}
