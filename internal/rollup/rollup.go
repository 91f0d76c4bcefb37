// Package rollup computes the per-device per-day aggregates from raw
// telemetry.
package rollup

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

// firstIntervalMinutes is assumed for the first reading of a day, which
// has no predecessor to measure against.
const firstIntervalMinutes = 5.0

// Roller computes and upserts daily rollups.
type Roller struct {
	store  store.Store
	logger *zap.Logger
}

func NewRoller(s store.Store, logger *zap.Logger) *Roller {
	return &Roller{store: s, logger: logger}
}

// RunForDay aggregates the UTC day starting at dayStart for every ACTIVE
// or INSTALLED device with telemetry in the window. Rerunning for the
// same day produces identical rows.
func (r *Roller) RunForDay(ctx context.Context, dayStart time.Time) (int, error) {
	dayStart = dayStart.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)
	dayDate := dayStart.Format("2006-01-02")

	tenants, err := r.store.ListTenants(ctx)
	if err != nil {
		return 0, err
	}

	liveStatuses := []model.DeviceStatus{model.DeviceStatusActive, model.DeviceStatusInstalled}
	written := 0
	for _, tenant := range tenants {
		devices, err := r.store.ListDevicesByStatus(ctx, tenant.ID, liveStatuses)
		if err != nil {
			r.logger.Error("rollup: listing devices failed",
				zap.String("tenantId", tenant.ID), zap.Error(err))
			continue
		}
		for i := range devices {
			ok, err := r.rollDevice(ctx, &devices[i], dayStart, dayEnd, dayDate)
			if err != nil {
				r.logger.Error("rollup: device aggregation failed",
					zap.String("deviceId", devices[i].ID), zap.Error(err))
				continue
			}
			if ok {
				written++
			}
		}
	}
	r.logger.Info("daily rollup finished",
		zap.String("day", dayDate), zap.Int("devices", written))
	return written, nil
}

func (r *Roller) rollDevice(ctx context.Context, device *model.Device, dayStart, dayEnd time.Time, dayDate string) (bool, error) {
	rows, err := r.store.TelemetryForWindow(ctx, device.ID, dayStart, dayEnd)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}

	agg := Aggregate(rows)
	agg.DeviceID = device.ID
	agg.DayDate = dayDate
	if err := r.store.UpsertDailyRollup(ctx, agg); err != nil {
		return false, err
	}
	return true, nil
}

// Aggregate folds a day of readings (ascending by ts) into a rollup row.
func Aggregate(rows []model.Telemetry) *model.DailyRollup {
	var (
		energyKwh   float64
		waterLiters float64
		heaterMins  float64
		tankMin     *float64
		tankMax     *float64
		ambientSum  float64
		ambientN    int
	)

	var prevTs time.Time
	for i, row := range rows {
		intervalMin := firstIntervalMinutes
		if i > 0 {
			intervalMin = row.Ts.Sub(prevTs).Minutes()
		}
		prevTs = row.Ts

		if p, ok := numeric(row.Metrics["powerW"]); ok {
			energyKwh += (p / 1000) * (intervalMin / 60)
		}
		if f, ok := numeric(row.Metrics["flowLpm"]); ok {
			waterLiters += f * intervalMin
		}
		if on, ok := row.Metrics["heaterOn"].(bool); ok && on {
			heaterMins += intervalMin
		}
		if t, ok := numeric(row.Metrics["tankTempC"]); ok {
			if tankMin == nil || t < *tankMin {
				v := t
				tankMin = &v
			}
			if tankMax == nil || t > *tankMax {
				v := t
				tankMax = &v
			}
		}
		if a, ok := numeric(row.Metrics["ambientTempC"]); ok {
			ambientSum += a
			ambientN++
		}
	}

	out := &model.DailyRollup{
		EnergyKwh:       round2(energyKwh),
		WaterLiters:     round2(waterLiters),
		HeaterOnMinutes: int(math.Round(heaterMins)),
		TankTempMin:     roundPtr2(tankMin),
		TankTempMax:     roundPtr2(tankMax),
	}
	if ambientN > 0 {
		avg := round1(ambientSum / float64(ambientN))
		out.AmbientTempAvg = &avg
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }

func roundPtr2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
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
	default:
		return 0, false
	}
}
