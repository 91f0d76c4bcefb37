package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/mw"
	"solar-fleet-backend/internal/store"
)

// parseBBox reads "minLon,minLat,maxLon,maxLat".
func parseBBox(raw string) (store.BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return store.BBox{}, apperr.Validation("bbox must be minLon,minLat,maxLon,maxLat")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return store.BBox{}, apperr.Validation("bbox values must be numbers")
		}
		vals[i] = v
	}
	box := store.BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if box.MinLon >= box.MaxLon || box.MinLat >= box.MaxLat {
		return store.BBox{}, apperr.Validation("bbox min values must be below max values")
	}
	if box.MinLat < -90 || box.MaxLat > 90 || box.MinLon < -180 || box.MaxLon > 180 {
		return store.BBox{}, apperr.Validation("bbox values out of range")
	}
	return box, nil
}

// MapDevices returns devices whose reported position falls inside the
// requested bounding box.
func (h *Handler) MapDevices(c *gin.Context) {
	box, err := parseBBox(c.Query("bbox"))
	if err != nil {
		h.fail(c, err)
		return
	}
	devices, err := h.store.ListDevicesInBBox(c.Request.Context(), mw.ActiveTenantID(c), box)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": devices})
}
