package api

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/auth"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
	"solar-fleet-backend/internal/store"
)

type createDeviceRequest struct {
	SerialNumber string            `json:"serialNumber" binding:"required"`
	Model        string            `json:"model"`
	Name         string            `json:"name"`
	SiteID       *string           `json:"siteId"`
	OwnerUserID  *string           `json:"ownerUserId"`
	SimICCID     *string           `json:"simIccid"`
	Tags         datatypes.JSONMap `json:"tags"`
}

// provisionDevice creates the device row and its credential digest in one
// transaction, returning the one-time device token.
func (h *Handler) provisionDevice(c *gin.Context, req createDeviceRequest) (*model.Device, string, error) {
	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)

	if req.SiteID != nil {
		if _, err := h.store.GetSite(ctx, tenantID, *req.SiteID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", apperr.Validation("siteId does not exist in tenant")
			}
			return nil, "", err
		}
	}

	device := &model.Device{
		ID:           model.NewID(),
		TenantID:     tenantID,
		SiteID:       req.SiteID,
		OwnerUserID:  req.OwnerUserID,
		SerialNumber: req.SerialNumber,
		Model:        req.Model,
		Name:         req.Name,
		SimICCID:     req.SimICCID,
		Tags:         req.Tags,
		Status:       model.DeviceStatusProvisioned,
	}

	err := h.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateDevice(ctx, device); err != nil {
			return err
		}
		secret := &model.DeviceSecret{
			ID:        model.NewID(),
			DeviceID:  device.ID,
			MACDigest: auth.DeviceMAC(h.cfg.Auth.DeviceHMACSecret, device.ID),
		}
		return tx.CreateDeviceSecret(ctx, secret)
	})
	if err != nil {
		if apperr.IsDuplicate(err) {
			return nil, "", apperr.Conflict("serial number already registered in tenant")
		}
		return nil, "", err
	}
	return device, auth.DeviceToken(h.cfg.Auth.DeviceHMACSecret, device.ID), nil
}

// CreateDevice provisions one device and returns its credential. The
// token is shown only in this response.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}

	device, token, err := h.provisionDevice(c, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	tenantID := mw.ActiveTenantID(c)
	p := mw.GetPrincipal(c)
	h.audit.Record(c.Request.Context(), audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditDeviceCreated,
		EntityType:  "device",
		EntityID:    device.ID,
		Metadata:    map[string]any{"serialNumber": device.SerialNumber},
	})
	c.JSON(http.StatusCreated, gin.H{"device": device, "deviceToken": token})
}

type importRowResult struct {
	Line         int    `json:"line"`
	SerialNumber string `json:"serialNumber"`
	DeviceID     string `json:"deviceId,omitempty"`
	DeviceToken  string `json:"deviceToken,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ImportDevices bulk-provisions devices from a CSV body with the header
// serialNumber,model,name,siteId. Rows fail independently.
func (h *Handler) ImportDevices(c *gin.Context) {
	reader := csv.NewReader(c.Request.Body)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		h.fail(c, apperr.Validation("empty or unreadable csv"))
		return
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["serialNumber"]; !ok {
		h.fail(c, apperr.Validation("csv must have a serialNumber column"))
		return
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var results []importRowResult
	line := 1
	for {
		record, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		line++
		if rerr != nil {
			results = append(results, importRowResult{Line: line, Error: rerr.Error()})
			continue
		}

		req := createDeviceRequest{
			SerialNumber: field(record, "serialNumber"),
			Model:        field(record, "model"),
			Name:         field(record, "name"),
		}
		if req.SerialNumber == "" {
			results = append(results, importRowResult{Line: line, Error: "serialNumber is required"})
			continue
		}
		if siteID := field(record, "siteId"); siteID != "" {
			req.SiteID = &siteID
		}

		device, token, perr := h.provisionDevice(c, req)
		if perr != nil {
			results = append(results, importRowResult{
				Line:         line,
				SerialNumber: req.SerialNumber,
				Error:        apperr.From(perr).Message,
			})
			continue
		}
		results = append(results, importRowResult{
			Line:         line,
			SerialNumber: device.SerialNumber,
			DeviceID:     device.ID,
			DeviceToken:  token,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// ListDevices returns a filtered page of the tenant's devices. End users
// only see devices they own.
func (h *Handler) ListDevices(c *gin.Context) {
	f := store.DeviceFilter{
		SiteID: c.Query("siteId"),
		Search: c.Query("search"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if s := c.Query("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			f.Status = append(f.Status, model.DeviceStatus(part))
		}
	}

	devices, total, err := h.store.ListDevices(c.Request.Context(), mw.ActiveTenantID(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}

	if mw.ActiveRole(c) == model.RoleEndUser {
		p := mw.GetPrincipal(c)
		owned := devices[:0]
		for _, d := range devices {
			if d.OwnerUserID != nil && *d.OwnerUserID == p.UserID {
				owned = append(owned, d)
			}
		}
		devices = owned
		total = int64(len(owned))
	}
	c.JSON(http.StatusOK, gin.H{"items": devices, "total": total})
}

// getTenantDevice loads the device inside the active tenant and applies
// the end-user ownership restriction.
func (h *Handler) getTenantDevice(c *gin.Context, deviceID string) (*model.Device, error) {
	device, err := h.store.GetDevice(c.Request.Context(), mw.ActiveTenantID(c), deviceID)
	if err != nil {
		return nil, err
	}
	if mw.ActiveRole(c) == model.RoleEndUser {
		p := mw.GetPrincipal(c)
		if device.OwnerUserID == nil || *device.OwnerUserID != p.UserID {
			return nil, apperr.Forbidden("device is not owned by caller")
		}
	}
	return device, nil
}

// GetDevice returns one device.
func (h *Handler) GetDevice(c *gin.Context) {
	device, err := h.getTenantDevice(c, c.Param("deviceId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

type patchDeviceRequest struct {
	Name        *string             `json:"name"`
	Notes       *string             `json:"notes"`
	Tags        *datatypes.JSONMap  `json:"tags"`
	Status      *model.DeviceStatus `json:"status"`
	SiteID      *string             `json:"siteId"`
	OwnerUserID *string             `json:"ownerUserId"`
	SimICCID    *string             `json:"simIccid"`
}

var deviceStatuses = map[model.DeviceStatus]bool{
	model.DeviceStatusProvisioned: true,
	model.DeviceStatusInstalled:   true,
	model.DeviceStatusActive:      true,
	model.DeviceStatusSuspended:   true,
	model.DeviceStatusRetired:     true,
}

// PatchDevice updates mutable device fields.
func (h *Handler) PatchDevice(c *gin.Context) {
	var req patchDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}

	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)
	device, err := h.store.GetDevice(ctx, tenantID, c.Param("deviceId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	changed := map[string]any{}
	if req.Name != nil {
		device.Name = *req.Name
		changed["name"] = *req.Name
	}
	if req.Notes != nil {
		device.Notes = *req.Notes
		changed["notes"] = true
	}
	if req.Tags != nil {
		device.Tags = *req.Tags
		changed["tags"] = true
	}
	if req.Status != nil {
		if !deviceStatuses[*req.Status] {
			h.fail(c, apperr.Validation("unknown device status"))
			return
		}
		device.Status = *req.Status
		changed["status"] = string(*req.Status)
	}
	if req.SiteID != nil {
		if *req.SiteID == "" {
			device.SiteID = nil
		} else {
			if _, serr := h.store.GetSite(ctx, tenantID, *req.SiteID); serr != nil {
				if errors.Is(serr, gorm.ErrRecordNotFound) {
					h.fail(c, apperr.Validation("siteId does not exist in tenant"))
					return
				}
				h.fail(c, serr)
				return
			}
			device.SiteID = req.SiteID
		}
		changed["siteId"] = true
	}
	if req.OwnerUserID != nil {
		if *req.OwnerUserID == "" {
			device.OwnerUserID = nil
		} else {
			device.OwnerUserID = req.OwnerUserID
		}
		changed["ownerUserId"] = true
	}
	if req.SimICCID != nil {
		device.SimICCID = req.SimICCID
		changed["simIccid"] = true
	}

	if err := h.store.SaveDevice(ctx, device); err != nil {
		h.fail(c, err)
		return
	}

	p := mw.GetPrincipal(c)
	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditDeviceUpdated,
		EntityType:  "device",
		EntityID:    device.ID,
		Metadata:    changed,
	})
	c.JSON(http.StatusOK, device)
}

// GetDeviceTwin returns the last-known state document for a device.
func (h *Handler) GetDeviceTwin(c *gin.Context) {
	device, err := h.getTenantDevice(c, c.Param("deviceId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	twin, err := h.store.GetTwin(c.Request.Context(), device.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(c, apperr.NotFound("no telemetry received yet"))
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, twin)
}

// GetDeviceTelemetry returns raw telemetry in a [from, to) window.
func (h *Handler) GetDeviceTelemetry(c *gin.Context) {
	device, err := h.getTenantDevice(c, c.Param("deviceId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	if v := c.Query("from"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			h.fail(c, apperr.Validation("from must be RFC3339"))
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			h.fail(c, apperr.Validation("to must be RFC3339"))
			return
		}
		to = t
	}
	if !from.Before(to) {
		h.fail(c, apperr.Validation("from must precede to"))
		return
	}

	rows, err := h.store.TelemetryForWindow(c.Request.Context(), device.ID, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

// GetDeviceRollup returns the daily rollup for one device and day.
func (h *Handler) GetDeviceRollup(c *gin.Context) {
	device, err := h.getTenantDevice(c, c.Param("deviceId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	day := c.Query("day")
	if _, perr := time.Parse("2006-01-02", day); perr != nil {
		h.fail(c, apperr.Validation("day must be YYYY-MM-DD"))
		return
	}
	rollup, err := h.store.GetDailyRollup(c.Request.Context(), device.ID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(c, apperr.NotFound("no rollup for that day"))
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rollup)
}
