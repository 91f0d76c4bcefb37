package store

import (
	"context"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateAuditLog(ctx context.Context, a *model.AuditLog) error {
	if a.ID == "" {
		a.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *gormStore) ListAuditLogs(ctx context.Context, tenantID string, f AuditFilter) ([]model.AuditLog, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	var logs []model.AuditLog
	err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&logs).Error
	return logs, err
}

// LastAuditByAction returns the most recent audit row for an action and
// entity, if any. Used to detect the first device-sourced site fill.
func (s *gormStore) LastAuditByAction(ctx context.Context, action, entityID string) (*model.AuditLog, error) {
	var a model.AuditLog
	err := s.db.WithContext(ctx).
		Where("action = ? AND entity_id = ?", action, entityID).
		Order("created_at DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
