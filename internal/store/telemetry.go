package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateTelemetry(ctx context.Context, t *model.Telemetry) error {
	if t.ID == "" {
		t.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *gormStore) GetTwin(ctx context.Context, deviceID string) (*model.DeviceTwin, error) {
	var tw model.DeviceTwin
	if err := s.db.WithContext(ctx).First(&tw, "device_id = ?", deviceID).Error; err != nil {
		return nil, err
	}
	return &tw, nil
}

// SaveTwin upserts the shadow row keyed on device id.
func (s *gormStore) SaveTwin(ctx context.Context, tw *model.DeviceTwin) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			UpdateAll: true,
		}).
		Create(tw).Error
}

func (s *gormStore) RecentTelemetrySince(ctx context.Context, deviceID string, since time.Time, limit int) ([]model.Telemetry, error) {
	var rows []model.Telemetry
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND ts >= ?", deviceID, since).
		Order("ts DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (s *gormStore) LastTelemetry(ctx context.Context, deviceID string, n int) ([]model.Telemetry, error) {
	var rows []model.Telemetry
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("ts DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}

// TelemetryForWindow returns readings with start <= ts < end, ascending.
func (s *gormStore) TelemetryForWindow(ctx context.Context, deviceID string, start, end time.Time) ([]model.Telemetry, error) {
	var rows []model.Telemetry
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND ts >= ? AND ts < ?", deviceID, start, end).
		Order("ts ASC").
		Find(&rows).Error
	return rows, err
}
