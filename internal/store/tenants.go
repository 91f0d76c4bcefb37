package store

import (
	"context"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateTenant(ctx context.Context, t *model.Tenant) error {
	if t.ID == "" {
		t.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *gormStore) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := s.db.WithContext(ctx).Order("created_at").Find(&tenants).Error
	return tenants, err
}

func (s *gormStore) ListTenantsByIDs(ctx context.Context, ids []string) ([]model.Tenant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tenants []model.Tenant
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at").Find(&tenants).Error
	return tenants, err
}
