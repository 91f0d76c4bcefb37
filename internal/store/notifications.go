package store

import (
	"context"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateNotificationChannel(ctx context.Context, c *model.NotificationChannel) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormStore) ListNotificationChannels(ctx context.Context, tenantID string) ([]model.NotificationChannel, error) {
	var channels []model.NotificationChannel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).Order("created_at").Find(&channels).Error
	return channels, err
}

func (s *gormStore) ListEnabledChannels(ctx context.Context, tenantID string) ([]model.NotificationChannel, error) {
	var channels []model.NotificationChannel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND enabled = ?", tenantID, true).
		Find(&channels).Error
	return channels, err
}

func (s *gormStore) CreateNotificationEvent(ctx context.Context, e *model.NotificationEvent) error {
	if e.ID == "" {
		e.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(e).Error
}

// ListQueuedNotifications returns up to limit QUEUED events, oldest first,
// with their channel preloaded for adapter dispatch.
func (s *gormStore) ListQueuedNotifications(ctx context.Context, limit int) ([]model.NotificationEvent, error) {
	var events []model.NotificationEvent
	err := s.db.WithContext(ctx).
		Preload("Channel").
		Where("status = ?", model.NotificationQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (s *gormStore) SaveNotificationEvent(ctx context.Context, e *model.NotificationEvent) error {
	return s.db.WithContext(ctx).Save(e).Error
}
