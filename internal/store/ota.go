package store

import (
	"context"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateFirmware(ctx context.Context, f *model.FirmwarePackage) error {
	if f.ID == "" {
		f.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(f).Error
}

func (s *gormStore) GetFirmware(ctx context.Context, id string) (*model.FirmwarePackage, error) {
	var f model.FirmwarePackage
	if err := s.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *gormStore) ListFirmware(ctx context.Context) ([]model.FirmwarePackage, error) {
	var fws []model.FirmwarePackage
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&fws).Error
	return fws, err
}

func (s *gormStore) CreateOtaJob(ctx context.Context, j *model.OtaJob) error {
	if j.ID == "" {
		j.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(j).Error
}

func (s *gormStore) GetOtaJob(ctx context.Context, tenantID, id string) (*model.OtaJob, error) {
	var j model.OtaJob
	err := s.db.WithContext(ctx).
		First(&j, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetOtaJobByID bypasses the tenant filter; used on the device report path.
func (s *gormStore) GetOtaJobByID(ctx context.Context, id string) (*model.OtaJob, error) {
	var j model.OtaJob
	if err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *gormStore) ListOtaJobs(ctx context.Context, tenantID string) ([]model.OtaJob, error) {
	var jobs []model.OtaJob
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).Order("scheduled_at").Find(&jobs).Error
	return jobs, err
}

// PendingOtaJobForDevice returns the earliest-scheduled live job whose
// tenant matches the device and whose target covers it.
func (s *gormStore) PendingOtaJobForDevice(ctx context.Context, d *model.Device) (*model.OtaJob, error) {
	var j model.OtaJob
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", d.TenantID,
			[]model.OtaJobStatus{model.OtaJobStatusScheduled, model.OtaJobStatusInProgress}).
		Where("(target_type = ? AND device_id = ?) OR target_type = ?",
			model.OtaTargetDevice, d.ID, model.OtaTargetGroup).
		Order("scheduled_at ASC").
		First(&j).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *gormStore) SaveOtaJob(ctx context.Context, j *model.OtaJob) error {
	return s.db.WithContext(ctx).Save(j).Error
}
