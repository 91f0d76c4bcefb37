package store

import (
	"context"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateDevice(ctx context.Context, d *model.Device) error {
	if d.ID == "" {
		d.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *gormStore) CreateDeviceSecret(ctx context.Context, sec *model.DeviceSecret) error {
	if sec.ID == "" {
		sec.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(sec).Error
}

func (s *gormStore) GetDevice(ctx context.Context, tenantID, id string) (*model.Device, error) {
	var d model.Device
	err := s.db.WithContext(ctx).
		First(&d, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDeviceByID bypasses the tenant filter; used on device-authenticated
// paths where the device identity was established by its MAC token.
func (s *gormStore) GetDeviceByID(ctx context.Context, id string) (*model.Device, error) {
	var d model.Device
	if err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *gormStore) ListDevices(ctx context.Context, tenantID string, f DeviceFilter) ([]model.Device, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Device{}).Where("tenant_id = ?", tenantID)
	if len(f.Status) > 0 {
		q = q.Where("status IN ?", f.Status)
	}
	if f.SiteID != "" {
		q = q.Where("site_id = ?", f.SiteID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("serial_number LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var devices []model.Device
	if err := q.Order("created_at").Find(&devices).Error; err != nil {
		return nil, 0, err
	}
	return devices, total, nil
}

func (s *gormStore) ListDevicesInBBox(ctx context.Context, tenantID string, box BBox) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("reported_latitude IS NOT NULL AND reported_longitude IS NOT NULL").
		Where("reported_longitude >= ? AND reported_longitude <= ?", box.MinLon, box.MaxLon).
		Where("reported_latitude >= ? AND reported_latitude <= ?", box.MinLat, box.MaxLat).
		Find(&devices).Error
	return devices, err
}

func (s *gormStore) ListDevicesByStatus(ctx context.Context, tenantID string, statuses []model.DeviceStatus) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID, statuses).
		Find(&devices).Error
	return devices, err
}

func (s *gormStore) SaveDevice(ctx context.Context, d *model.Device) error {
	return s.db.WithContext(ctx).Save(d).Error
}

func (s *gormStore) CountDevicesByStatus(ctx context.Context, tenantID string) (map[model.DeviceStatus]int64, error) {
	type row struct {
		Status model.DeviceStatus
		N      int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&model.Device{}).
		Select("status, count(*) as n").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.DeviceStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// DeviceOwnedOnSite reports whether userID owns any device currently bound
// to the site. This is the END_USER site-edit ownership rule.
func (s *gormStore) DeviceOwnedOnSite(ctx context.Context, siteID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("site_id = ? AND owner_user_id = ?", siteID, userID).
		Count(&n).Error
	return n > 0, err
}
