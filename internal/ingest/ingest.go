// Package ingest is the device-facing telemetry pipeline: validate the
// reading, persist it, refresh the device and its twin, and reconcile the
// site location, all inside one transaction per call.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/geo"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

// metricRange is the plausibility window for a known numeric metric.
type metricRange struct {
	Min, Max float64
}

// metricRanges is the fixed plausibility table. Out-of-range values
// produce non-fatal warnings, never rejections.
var metricRanges = map[string]metricRange{
	"tankTempC":    {-10, 120},
	"ambientTempC": {-50, 70},
	"humidityPct":  {0, 100},
	"lux":          {0, 200000},
	"flowLpm":      {0, 50},
	"powerW":       {0, 10000},
	"batteryPct":   {0, 100},
	"rssiDbm":      {-130, 0},
}

// GeoInput is the optional location fix attached to a reading.
type GeoInput struct {
	Lat       float64              `json:"lat"`
	Lon       float64              `json:"lon"`
	AccuracyM *float64             `json:"accuracyM,omitempty"`
	Source    model.LocationSource `json:"source"`
}

// Reading is the ingest payload.
type Reading struct {
	DeviceID string         `json:"deviceId"`
	Ts       time.Time      `json:"ts"`
	Metrics  map[string]any `json:"metrics"`
	Geo      *GeoInput      `json:"geo,omitempty"`
}

// Result is the ingest response body.
type Result struct {
	ID       string   `json:"id"`
	Warnings []string `json:"warnings,omitempty"`
}

// Service runs the ingest pipeline.
type Service struct {
	store  store.Store
	audit  *audit.Sink
	logger *zap.Logger
}

func NewService(s store.Store, sink *audit.Sink, logger *zap.Logger) *Service {
	return &Service{store: s, audit: sink, logger: logger}
}

// Ingest processes one reading for the authenticated device. authDeviceID
// is the identity established by the MAC token and must match the payload.
func (s *Service) Ingest(ctx context.Context, authDeviceID string, r Reading) (*Result, error) {
	if r.DeviceID == "" || r.DeviceID != authDeviceID {
		return nil, apperr.Validation("deviceId does not match authenticated device")
	}
	if r.Ts.IsZero() {
		return nil, apperr.Validation("ts is required")
	}

	device, err := s.store.GetDeviceByID(ctx, r.DeviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("device not found")
		}
		return nil, err
	}

	warnings := validateMetrics(r.Metrics)

	row := &model.Telemetry{
		ID:       model.NewID(),
		DeviceID: device.ID,
		Ts:       r.Ts,
		Metrics:  r.Metrics,
	}
	if r.Geo != nil {
		row.GeoLatitude = &r.Geo.Lat
		row.GeoLongitude = &r.Geo.Lon
		row.GeoAccuracyM = r.Geo.AccuracyM
		src := r.Geo.Source
		row.GeoSource = &src
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateTelemetry(ctx, row); err != nil {
			return err
		}

		ts := r.Ts
		device.LastSeenAt = &ts
		if r.Geo != nil {
			device.ReportedLatitude = &r.Geo.Lat
			device.ReportedLongitude = &r.Geo.Lon
			src := r.Geo.Source
			device.ReportedGeoSource = &src
			device.ReportedAccuracyM = r.Geo.AccuracyM
		}
		if err := tx.SaveDevice(ctx, device); err != nil {
			return err
		}

		if err := s.updateTwin(ctx, tx, device.ID, r); err != nil {
			return err
		}

		if device.SiteID != nil {
			if err := s.reconcileSite(ctx, tx, device, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{ID: row.ID, Warnings: warnings}, nil
}

// updateTwin recomputes the shadow's derived state from the new reading,
// keeping prior distinguished values when the reading omits them.
func (s *Service) updateTwin(ctx context.Context, tx store.Store, deviceID string, r Reading) error {
	derived := map[string]any{}
	if twin, err := tx.GetTwin(ctx, deviceID); err == nil && twin.DerivedState != nil {
		for k, v := range twin.DerivedState {
			derived[k] = v
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	for k, v := range r.Metrics {
		derived["last_"+k] = v
	}

	distinguished := map[string]string{
		"tankTempC":    "lastTankTempC",
		"ambientTempC": "lastAmbientTempC",
		"heaterOn":     "heaterOn",
		"powerW":       "lastPowerW",
		"rssiDbm":      "lastRssi",
	}
	for metric, field := range distinguished {
		if v, ok := r.Metrics[metric]; ok {
			derived[field] = v
		}
	}

	derived["isOnline"] = true
	derived["healthScore"] = healthScore(r.Metrics)

	if r.Geo != nil {
		derived["lastGeoLat"] = r.Geo.Lat
		derived["lastGeoLon"] = r.Geo.Lon
		derived["lastGeoSource"] = string(r.Geo.Source)
	}

	ts := r.Ts
	return tx.SaveTwin(ctx, &model.DeviceTwin{
		DeviceID:     deviceID,
		LastTs:       &ts,
		DerivedState: derived,
	})
}

// healthScore starts at 100 and deducts for weak signal, low battery, and
// overheated tank; floored at zero.
func healthScore(metrics map[string]any) float64 {
	score := 100.0
	if v, ok := numeric(metrics["rssiDbm"]); ok && v < -100 {
		score -= 20
	}
	if v, ok := numeric(metrics["batteryPct"]); ok && v < 20 {
		score -= 30
	}
	if v, ok := numeric(metrics["tankTempC"]); ok && v > 85 {
		score -= 20
	}
	if score < 0 {
		score = 0
	}
	return score
}

// reconcileSite applies the device's geo fix to the site when allowed, and
// flags implausible jumps. These audits are the only device-sourced
// mutations to Site.
func (s *Service) reconcileSite(ctx context.Context, tx store.Store, device *model.Device, r Reading) error {
	if r.Geo == nil {
		return nil
	}
	site, err := tx.GetSiteByID(ctx, *device.SiteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if !site.LocationLock && site.Latitude == nil {
		now := time.Now().UTC()
		site.Latitude = &r.Geo.Lat
		site.Longitude = &r.Geo.Lon
		src := r.Geo.Source
		site.LocationSource = &src
		site.LocationAccuracyM = r.Geo.AccuracyM
		site.LocationUpdatedAt = &now
		if err := tx.SaveSite(ctx, site); err != nil {
			return err
		}
		s.audit.RecordWith(ctx, tx, audit.Entry{
			TenantID:   &site.TenantID,
			ActorType:  model.ActorDevice,
			Action:     model.AuditSiteLocationSetFromDevice,
			EntityType: "site",
			EntityID:   site.ID,
			Metadata: map[string]any{
				"deviceId": device.ID,
				"lat":      r.Geo.Lat,
				"lon":      r.Geo.Lon,
				"source":   string(r.Geo.Source),
			},
		})
		return nil
	}

	if site.Latitude != nil && site.Longitude != nil {
		dist := geo.DistanceKm(*site.Latitude, *site.Longitude, r.Geo.Lat, r.Geo.Lon)
		if dist > 1 {
			s.audit.RecordWith(ctx, tx, audit.Entry{
				TenantID:   &site.TenantID,
				ActorType:  model.ActorDevice,
				Action:     model.AuditDeviceGeoLargeJump,
				EntityType: "device",
				EntityID:   device.ID,
				Metadata: map[string]any{
					"siteId":     site.ID,
					"siteLat":    *site.Latitude,
					"siteLon":    *site.Longitude,
					"deviceLat":  r.Geo.Lat,
					"deviceLon":  r.Geo.Lon,
					"distanceKm": dist,
				},
			})
		}
	}
	return nil
}

// validateMetrics range-checks known numeric metrics; unknown keys pass
// through untouched.
func validateMetrics(metrics map[string]any) []string {
	var warnings []string
	for name, rng := range metricRanges {
		v, ok := numeric(metrics[name])
		if !ok {
			continue
		}
		if v < rng.Min || v > rng.Max {
			warnings = append(warnings,
				fmt.Sprintf("%s=%v outside plausible range [%v, %v]", name, v, rng.Min, rng.Max))
		}
	}
	return warnings
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
