package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/ingest"
	"solar-fleet-backend/internal/mw"
)

// IngestTelemetry accepts one reading from an authenticated device.
func (h *Handler) IngestTelemetry(c *gin.Context) {
	var reading ingest.Reading
	if err := c.ShouldBindJSON(&reading); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), mw.GetDeviceID(c), reading)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
