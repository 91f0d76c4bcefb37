package store

import (
	"context"

	"gorm.io/gorm/clause"

	"solar-fleet-backend/internal/model"
)

// UpsertEntitlement creates or updates the flag on the unique
// (tenant, key, device) triple.
func (s *gormStore) UpsertEntitlement(ctx context.Context, e *model.Entitlement) error {
	if e.ID == "" {
		e.ID = model.NewID()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"}, {Name: "key"}, {Name: "device_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "scope", "updated_at"}),
		}).
		Create(e).Error
}

// GetEntitlementRow fetches the exact (tenant, key, device) row. Pass
// deviceID == "" for the tenant-scope row.
func (s *gormStore) GetEntitlementRow(ctx context.Context, tenantID string, key model.EntitlementKey, deviceID string) (*model.Entitlement, error) {
	var e model.Entitlement
	err := s.db.WithContext(ctx).
		First(&e, "tenant_id = ? AND key = ? AND device_id = ?", tenantID, key, deviceID).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) ListEntitlements(ctx context.Context, tenantID string) ([]model.Entitlement, error) {
	var es []model.Entitlement
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).Order("key").Find(&es).Error
	return es, err
}
