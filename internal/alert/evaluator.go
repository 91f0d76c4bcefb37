// Package alert is the periodic rule sweep over the fleet. Each sweep
// walks every enabled rule, evaluates its predicate against the tenant's
// live devices, and opens deduplicated events with notification fan-out.
package alert

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/notify"
	"solar-fleet-backend/internal/store"
)

// Defaults carries the deployment-level rule parameter defaults.
type Defaults struct {
	NoTelemetryThresholdMinutes int
	OverTempThresholdC          float64
	SensorOutOfRangeRepeat      int
}

// Evaluator runs the sweep.
type Evaluator struct {
	store    store.Store
	producer *notify.Producer
	defaults Defaults
	logger   *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewEvaluator(s store.Store, producer *notify.Producer, d Defaults, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		store:    s,
		producer: producer,
		defaults: d,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Sweep performs one evaluation pass. Per-device failures are logged and
// skipped; the sweep itself is idempotent thanks to the dedupe-key
// constraint.
func (e *Evaluator) Sweep(ctx context.Context) (opened int) {
	rules, err := e.store.ListEnabledAlertRules(ctx)
	if err != nil {
		e.logger.Error("alert sweep: listing rules failed", zap.Error(err))
		return 0
	}

	liveStatuses := []model.DeviceStatus{model.DeviceStatusActive, model.DeviceStatusInstalled}

	for _, rule := range rules {
		devices, err := e.store.ListDevicesByStatus(ctx, rule.TenantID, liveStatuses)
		if err != nil {
			e.logger.Error("alert sweep: listing devices failed",
				zap.String("ruleId", rule.ID), zap.Error(err))
			continue
		}
		for i := range devices {
			if e.evaluateDevice(ctx, rule, &devices[i]) {
				opened++
			}
		}
	}
	if opened > 0 {
		e.logger.Info("alert sweep opened events", zap.Int("count", opened))
	}
	return opened
}

// evaluateDevice checks the dedupe key, runs the predicate, and on fire
// opens the event and enqueues notifications in one transaction.
func (e *Evaluator) evaluateDevice(ctx context.Context, rule model.AlertRule, device *model.Device) bool {
	key := model.DedupeKeyFor(device.ID, rule.ID)

	live, err := e.store.HasLiveAlert(ctx, key)
	if err != nil {
		e.logger.Error("alert sweep: dedupe lookup failed",
			zap.String("dedupeKey", key), zap.Error(err))
		return false
	}
	if live {
		return false
	}

	fired, details := e.shouldFire(ctx, rule, device)
	if !fired {
		return false
	}

	now := e.now()
	event := &model.AlertEvent{
		ID:        model.NewID(),
		TenantID:  rule.TenantID,
		DeviceID:  device.ID,
		RuleID:    rule.ID,
		Severity:  rule.Severity,
		Status:    model.AlertEventOpen,
		DedupeKey: &key,
		Details:   details,
		OpenedAt:  now,
	}

	err = e.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateAlertEvent(ctx, event); err != nil {
			return err
		}
		return e.producer.EnqueueForAlert(ctx, tx, event, rule.Name, device.Name)
	})
	if err != nil {
		// A concurrent sweep may have opened the same event; the unique
		// index turns that race into a benign no-op.
		if apperr.IsDuplicate(err) {
			return false
		}
		e.logger.Error("alert sweep: opening event failed",
			zap.String("dedupeKey", key), zap.Error(err))
		return false
	}
	return true
}
