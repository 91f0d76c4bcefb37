package store

import (
	"context"

	"gorm.io/gorm/clause"

	"solar-fleet-backend/internal/model"
)

// UpsertDailyRollup writes the aggregate keyed on (device, day); rerunning
// the job for the same day overwrites with identical values.
func (s *gormStore) UpsertDailyRollup(ctx context.Context, r *model.DailyRollup) error {
	if r.ID == "" {
		r.ID = model.NewID()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "device_id"}, {Name: "day_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"energy_kwh", "water_liters", "heater_on_minutes",
				"tank_temp_min", "tank_temp_max", "ambient_temp_avg", "updated_at",
			}),
		}).
		Create(r).Error
}

func (s *gormStore) GetDailyRollup(ctx context.Context, deviceID, dayDate string) (*model.DailyRollup, error) {
	var r model.DailyRollup
	err := s.db.WithContext(ctx).
		First(&r, "device_id = ? AND day_date = ?", deviceID, dayDate).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) SumRollupsForDay(ctx context.Context, tenantID, dayDate string) (float64, float64, error) {
	type sums struct {
		Energy float64
		Water  float64
	}
	var out sums
	err := s.db.WithContext(ctx).Model(&model.DailyRollup{}).
		Select("COALESCE(SUM(daily_rollups.energy_kwh),0) as energy, COALESCE(SUM(daily_rollups.water_liters),0) as water").
		Joins("JOIN devices ON devices.id = daily_rollups.device_id").
		Where("devices.tenant_id = ? AND daily_rollups.day_date = ?", tenantID, dayDate).
		Scan(&out).Error
	return out.Energy, out.Water, err
}
