package store

import (
	"context"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateSite(ctx context.Context, site *model.Site) error {
	if site.ID == "" {
		site.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(site).Error
}

func (s *gormStore) GetSite(ctx context.Context, tenantID, id string) (*model.Site, error) {
	var site model.Site
	err := s.db.WithContext(ctx).
		First(&site, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// GetSiteByID bypasses the tenant filter; used only on the
// device-authenticated ingest path where the device row carries the tenant.
func (s *gormStore) GetSiteByID(ctx context.Context, id string) (*model.Site, error) {
	var site model.Site
	if err := s.db.WithContext(ctx).First(&site, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *gormStore) ListSites(ctx context.Context, tenantID string) ([]model.Site, error) {
	var sites []model.Site
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).Order("created_at").Find(&sites).Error
	return sites, err
}

func (s *gormStore) SaveSite(ctx context.Context, site *model.Site) error {
	return s.db.WithContext(ctx).Save(site).Error
}

func (s *gormStore) ListSitesWithCoords(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	err := s.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Find(&sites).Error
	return sites, err
}
