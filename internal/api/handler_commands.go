package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
)

type createCommandRequest struct {
	Type    model.CommandType `json:"type" binding:"required"`
	Payload datatypes.JSONMap `json:"payload"`
}

var commandTypes = map[model.CommandType]bool{
	model.CommandTypeRemoteBoostSet: true,
	model.CommandTypeSetSchedule:    true,
	model.CommandTypeSetConfig:      true,
}

// CreateCommand queues an instruction for a device. Remote boost is
// entitlement-gated.
func (h *Handler) CreateCommand(c *gin.Context) {
	var req createCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !commandTypes[req.Type] {
		h.fail(c, apperr.Validation("unknown command type"))
		return
	}

	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)
	p := mw.GetPrincipal(c)

	device, err := h.getTenantDevice(c, c.Param("deviceId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if device.Status == model.DeviceStatusSuspended || device.Status == model.DeviceStatusRetired {
		h.fail(c, apperr.Conflict("device does not accept commands in status " + string(device.Status)))
		return
	}

	if req.Type == model.CommandTypeRemoteBoostSet {
		if err := h.entitlements.Require(ctx, tenantID, model.EntitlementBasicRemoteBoost, device.ID); err != nil {
			h.fail(c, err)
			return
		}
	}

	cmd := &model.Command{
		ID:                model.NewID(),
		TenantID:          tenantID,
		DeviceID:          device.ID,
		Type:              req.Type,
		Payload:           req.Payload,
		Status:            model.CommandStatusQueued,
		RequestedByUserID: p.UserID,
		RequestedAt:       time.Now().UTC(),
	}
	if err := h.store.CreateCommand(ctx, cmd); err != nil {
		h.fail(c, err)
		return
	}

	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditCommandCreated,
		EntityType:  "command",
		EntityID:    cmd.ID,
		Metadata:    map[string]any{"deviceId": device.ID, "type": string(req.Type)},
	})
	c.JSON(http.StatusCreated, cmd)
}

// PendingCommands hands the device its queued commands in request order
// and marks each one DELIVERED in the same transaction.
func (h *Handler) PendingCommands(c *gin.Context) {
	commands, err := h.store.PendingCommandsMarkDelivered(
		c.Request.Context(), mw.GetDeviceID(c), time.Now().UTC())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": commands})
}

type ackCommandRequest struct {
	Status   model.CommandStatus `json:"status" binding:"required"`
	ErrorMsg *string             `json:"errorMsg"`
}

// AckCommand records the device's terminal report for a delivered
// command. Only DELIVERED commands may be acked.
func (h *Handler) AckCommand(c *gin.Context) {
	var req ackCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if req.Status != model.CommandStatusAcked && req.Status != model.CommandStatusFailed {
		h.fail(c, apperr.Validation("status must be ACKED or FAILED"))
		return
	}

	ctx := c.Request.Context()
	deviceID := mw.GetDeviceID(c)
	cmd, err := h.store.GetCommandForDevice(ctx, deviceID, c.Param("commandId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if cmd.Status != model.CommandStatusDelivered {
		h.fail(c, apperr.Conflict("command is not awaiting acknowledgement"))
		return
	}

	now := time.Now().UTC()
	cmd.Status = req.Status
	cmd.AckAt = &now
	cmd.ErrorMsg = req.ErrorMsg
	if err := h.store.SaveCommand(ctx, cmd); err != nil {
		h.fail(c, err)
		return
	}

	action := model.AuditCommandAcked
	if req.Status == model.CommandStatusFailed {
		action = model.AuditCommandFailed
	}
	h.audit.Record(ctx, audit.Entry{
		TenantID:   &cmd.TenantID,
		ActorType:  model.ActorDevice,
		Action:     action,
		EntityType: "command",
		EntityID:   cmd.ID,
		Metadata:   map[string]any{"deviceId": deviceID},
	})
	c.JSON(http.StatusOK, cmd)
}
