package store

import (
	"context"

	"gorm.io/gorm/clause"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) UpsertWeatherData(ctx context.Context, w *model.WeatherData) error {
	if w.ID == "" {
		w.ID = model.NewID()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "site_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"temp_min_c", "temp_max_c", "irradiance_wh", "cloud_pct", "updated_at",
			}),
		}).
		Create(w).Error
}

func (s *gormStore) CreateSimAction(ctx context.Context, a *model.SimAction) error {
	if a.ID == "" {
		a.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(a).Error
}
