package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
)

type createChannelRequest struct {
	Type    model.ChannelType `json:"type" binding:"required"`
	Config  datatypes.JSONMap `json:"config" binding:"required"`
	Enabled *bool             `json:"enabled"`
}

// requiredChannelConfig maps a channel type to the config key it needs.
var requiredChannelConfig = map[model.ChannelType]string{
	model.ChannelEmail:   "to",
	model.ChannelSMS:     "phone",
	model.ChannelWebhook: "url",
}

// CreateNotificationChannel registers a delivery endpoint for the tenant.
func (h *Handler) CreateNotificationChannel(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	needed, ok := requiredChannelConfig[req.Type]
	if !ok {
		h.fail(c, apperr.Validation("unknown channel type"))
		return
	}
	if v, _ := req.Config[needed].(string); v == "" {
		h.fail(c, apperr.Validation("config."+needed+" is required for "+string(req.Type)))
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	channel := &model.NotificationChannel{
		ID:       model.NewID(),
		TenantID: mw.ActiveTenantID(c),
		Type:     req.Type,
		Config:   req.Config,
		Enabled:  enabled,
	}
	if err := h.store.CreateNotificationChannel(c.Request.Context(), channel); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, channel)
}

// ListNotificationChannels returns the tenant's delivery endpoints.
func (h *Handler) ListNotificationChannels(c *gin.Context) {
	items, err := h.store.ListNotificationChannels(c.Request.Context(), mw.ActiveTenantID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
