package store

import (
	"context"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateAlertRule(ctx context.Context, r *model.AlertRule) error {
	if r.ID == "" {
		r.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *gormStore) ListAlertRules(ctx context.Context, tenantID string) ([]model.AlertRule, error) {
	var rules []model.AlertRule
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).Order("created_at").Find(&rules).Error
	return rules, err
}

// ListEnabledAlertRules returns enabled rules across every tenant; the
// evaluator sweep iterates all of them.
func (s *gormStore) ListEnabledAlertRules(ctx context.Context) ([]model.AlertRule, error) {
	var rules []model.AlertRule
	err := s.db.WithContext(ctx).Where("enabled = ?", true).Find(&rules).Error
	return rules, err
}

func (s *gormStore) CreateAlertEvent(ctx context.Context, e *model.AlertEvent) error {
	if e.ID == "" {
		e.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *gormStore) GetAlertEvent(ctx context.Context, tenantID, id string) (*model.AlertEvent, error) {
	var e model.AlertEvent
	err := s.db.WithContext(ctx).
		First(&e, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) ListAlertEvents(ctx context.Context, tenantID string, f AlertEventFilter) ([]model.AlertEvent, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.AlertEvent{}).Where("tenant_id = ?", tenantID)
	if len(f.Status) > 0 {
		q = q.Where("status IN ?", f.Status)
	}
	if len(f.Severity) > 0 {
		q = q.Where("severity IN ?", f.Severity)
	}
	if f.DeviceID != "" {
		q = q.Where("device_id = ?", f.DeviceID)
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

	var events []model.AlertEvent
	if err := q.Order("opened_at DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// HasLiveAlert reports whether any OPEN or ACKNOWLEDGED event holds the
// dedupe key. CLOSED events have their key cleared and never match.
func (s *gormStore) HasLiveAlert(ctx context.Context, dedupeKey string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.AlertEvent{}).
		Where("dedupe_key = ? AND status IN ?", dedupeKey,
			[]model.AlertEventStatus{model.AlertEventOpen, model.AlertEventAcknowledged}).
		Count(&n).Error
	return n > 0, err
}

func (s *gormStore) SaveAlertEvent(ctx context.Context, e *model.AlertEvent) error {
	return s.db.WithContext(ctx).Save(e).Error
}
