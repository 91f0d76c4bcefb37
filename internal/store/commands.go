package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateCommand(ctx context.Context, c *model.Command) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormStore) GetCommandForDevice(ctx context.Context, deviceID, cmdID string) (*model.Command, error) {
	var c model.Command
	err := s.db.WithContext(ctx).
		First(&c, "id = ? AND device_id = ?", cmdID, deviceID).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PendingCommandsMarkDelivered selects the device's QUEUED commands in
// requestedAt order and flips them to DELIVERED before returning them, all
// in one transaction. A repeat poll never resurfaces delivered rows.
func (s *gormStore) PendingCommandsMarkDelivered(ctx context.Context, deviceID string, now time.Time) ([]model.Command, error) {
	var pending []model.Command
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("device_id = ? AND status = ?", deviceID, model.CommandStatusQueued).
			Order("requested_at ASC").
			Find(&pending).Error; err != nil {
			return err
		}
		for i := range pending {
			pending[i].Status = model.CommandStatusDelivered
			pending[i].DeliveredAt = &now
			if err := tx.Save(&pending[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *gormStore) SaveCommand(ctx context.Context, c *model.Command) error {
	return s.db.WithContext(ctx).Save(c).Error
}
