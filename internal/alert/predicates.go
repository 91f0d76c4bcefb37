package alert

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/model"
)

// shouldFire dispatches the rule's predicate. The rule types are a closed
// set; each variant returns whether to open an event plus the details map
// stored on it.
func (e *Evaluator) shouldFire(ctx context.Context, rule model.AlertRule, device *model.Device) (bool, map[string]any) {
	switch rule.Type {
	case model.AlertRuleNoTelemetry:
		return e.fireNoTelemetry(rule, device)
	case model.AlertRuleOverTemp:
		return e.fireOverTemp(ctx, rule, device)
	case model.AlertRulePossibleLeak:
		return e.firePossibleLeak(ctx, rule, device)
	case model.AlertRuleSensorOutOfRange:
		return e.fireSensorOutOfRange(ctx, rule, device)
	default:
		e.logger.Warn("unknown alert rule type", zap.String("type", string(rule.Type)))
		return false, nil
	}
}

func (e *Evaluator) fireNoTelemetry(rule model.AlertRule, device *model.Device) (bool, map[string]any) {
	threshold := paramFloat(rule.Params, "thresholdMinutes", float64(e.defaults.NoTelemetryThresholdMinutes))
	cutoff := e.now().Add(-time.Duration(threshold) * time.Minute)

	if device.LastSeenAt != nil && !device.LastSeenAt.Before(cutoff) {
		return false, nil
	}
	details := map[string]any{"thresholdMinutes": threshold}
	if device.LastSeenAt != nil {
		details["lastSeenAt"] = device.LastSeenAt.Format(time.RFC3339)
	}
	return true, details
}

func (e *Evaluator) fireOverTemp(ctx context.Context, rule model.AlertRule, device *model.Device) (bool, map[string]any) {
	threshold := paramFloat(rule.Params, "thresholdC", e.defaults.OverTempThresholdC)

	twin, err := e.store.GetTwin(ctx, device.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.logger.Error("over-temp predicate: twin lookup failed",
				zap.String("deviceId", device.ID), zap.Error(err))
		}
		return false, nil
	}
	temp, ok := numericValue(twin.DerivedState["lastTankTempC"])
	if !ok || temp <= threshold {
		return false, nil
	}
	return true, map[string]any{"lastTankTempC": temp, "thresholdC": threshold}
}

func (e *Evaluator) firePossibleLeak(ctx context.Context, rule model.AlertRule, device *model.Device) (bool, map[string]any) {
	lookback := paramFloat(rule.Params, "lookbackMinutes", 60)
	since := e.now().Add(-time.Duration(lookback) * time.Minute)

	rows, err := e.store.RecentTelemetrySince(ctx, device.ID, since, 10)
	if err != nil {
		e.logger.Error("leak predicate: telemetry lookup failed",
			zap.String("deviceId", device.ID), zap.Error(err))
		return false, nil
	}
	if len(rows) < 5 {
		return false, nil
	}
	for _, row := range rows {
		flow, ok := numericValue(row.Metrics["flowLpm"])
		if !ok || flow <= 0.1 {
			return false, nil
		}
	}
	return true, map[string]any{
		"lookbackMinutes": lookback,
		"samples":         len(rows),
	}
}

func (e *Evaluator) fireSensorOutOfRange(ctx context.Context, rule model.AlertRule, device *model.Device) (bool, map[string]any) {
	metric := paramString(rule.Params, "metric", "tankTempC")
	min := paramFloat(rule.Params, "min", -10)
	max := paramFloat(rule.Params, "max", 120)
	repeat := int(paramFloat(rule.Params, "repeatCount", float64(e.defaults.SensorOutOfRangeRepeat)))
	if repeat <= 0 {
		repeat = 1
	}

	rows, err := e.store.LastTelemetry(ctx, device.ID, repeat)
	if err != nil {
		e.logger.Error("out-of-range predicate: telemetry lookup failed",
			zap.String("deviceId", device.ID), zap.Error(err))
		return false, nil
	}
	if len(rows) < repeat {
		return false, nil
	}
	for _, row := range rows {
		v, ok := numericValue(row.Metrics[metric])
		// Values exactly at min or max are in range.
		if !ok || (v >= min && v <= max) {
			return false, nil
		}
	}
	return true, map[string]any{
		"metric":      metric,
		"min":         min,
		"max":         max,
		"repeatCount": repeat,
	}
}

func paramFloat(params map[string]any, key string, def float64) float64 {
	if v, ok := numericValue(params[key]); ok {
		return v
	}
	return def
}

func paramString(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
