package alert

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/db"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/notify"
	"solar-fleet-backend/internal/store"
)

var testDefaults = Defaults{
	NoTelemetryThresholdMinutes: 30,
	OverTempThresholdC:          85,
	SensorOutOfRangeRepeat:      3,
}

func newTestEvaluator(t *testing.T) (*Evaluator, store.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	s := store.NewGormStore(gormDB)
	return NewEvaluator(s, notify.NewProducer(), testDefaults, zap.NewNop()), s
}

type fixture struct {
	tenant *model.Tenant
	device *model.Device
}

func seedFixture(t *testing.T, s store.Store, status model.DeviceStatus, lastSeen *time.Time) fixture {
	t.Helper()
	ctx := context.Background()
	tenant := &model.Tenant{ID: model.NewID(), Name: "t", Type: model.TenantTypeInstaller}
	require.NoError(t, s.CreateTenant(ctx, tenant))
	device := &model.Device{
		ID:           model.NewID(),
		TenantID:     tenant.ID,
		SerialNumber: "SN-" + tenant.ID[:8],
		Status:       status,
		LastSeenAt:   lastSeen,
	}
	require.NoError(t, s.CreateDevice(ctx, device))
	return fixture{tenant: tenant, device: device}
}

func seedRule(t *testing.T, s store.Store, tenantID string, typ model.AlertRuleType, params map[string]any) *model.AlertRule {
	t.Helper()
	rule := &model.AlertRule{
		ID:       model.NewID(),
		TenantID: tenantID,
		Name:     string(typ),
		Enabled:  true,
		Type:     typ,
		Params:   params,
		Severity: model.SeverityWarning,
	}
	require.NoError(t, s.CreateAlertRule(context.Background(), rule))
	return rule
}

func openEvents(t *testing.T, s store.Store, tenantID string) []model.AlertEvent {
	t.Helper()
	events, _, err := s.ListAlertEvents(context.Background(), tenantID, store.AlertEventFilter{})
	require.NoError(t, err)
	return events
}

func TestSweep_NoTelemetry(t *testing.T) {
	e, s := newTestEvaluator(t)
	ctx := context.Background()

	stale := time.Now().UTC().Add(-2 * time.Hour)
	fx := seedFixture(t, s, model.DeviceStatusActive, &stale)
	seedRule(t, s, fx.tenant.ID, model.AlertRuleNoTelemetry, nil)

	assert.Equal(t, 1, e.Sweep(ctx))

	events := openEvents(t, s, fx.tenant.ID)
	require.Len(t, events, 1)
	assert.Equal(t, model.AlertEventOpen, events[0].Status)
	assert.Equal(t, fx.device.ID, events[0].DeviceID)
}

func TestSweep_NoTelemetry_FreshDeviceDoesNotFire(t *testing.T) {
	e, s := newTestEvaluator(t)

	fresh := time.Now().UTC().Add(-time.Minute)
	fx := seedFixture(t, s, model.DeviceStatusActive, &fresh)
	seedRule(t, s, fx.tenant.ID, model.AlertRuleNoTelemetry, nil)

	assert.Equal(t, 0, e.Sweep(context.Background()))
	assert.Empty(t, openEvents(t, s, fx.tenant.ID))
}

func TestSweep_NeverSeenDeviceFires(t *testing.T) {
	e, s := newTestEvaluator(t)

	fx := seedFixture(t, s, model.DeviceStatusInstalled, nil)
	seedRule(t, s, fx.tenant.ID, model.AlertRuleNoTelemetry, nil)

	assert.Equal(t, 1, e.Sweep(context.Background()))
}

func TestSweep_SkipsNonLiveDevices(t *testing.T) {
	e, s := newTestEvaluator(t)

	fx := seedFixture(t, s, model.DeviceStatusSuspended, nil)
	seedRule(t, s, fx.tenant.ID, model.AlertRuleNoTelemetry, nil)

	assert.Equal(t, 0, e.Sweep(context.Background()))
}

func TestSweep_OverTemp_StrictThreshold(t *testing.T) {
	e, s := newTestEvaluator(t)
	ctx := context.Background()

	now := time.Now().UTC()
	fx := seedFixture(t, s, model.DeviceStatusActive, &now)
	seedRule(t, s, fx.tenant.ID, model.AlertRuleOverTemp, map[string]any{"thresholdC": 85.0})

	// Exactly at the threshold does not fire.
	require.NoError(t, s.SaveTwin(ctx, &model.DeviceTwin{
		DeviceID:     fx.device.ID,
		LastTs:       &now,
		DerivedState: map[string]any{"lastTankTempC": 85.0},
	}))
	assert.Equal(t, 0, e.Sweep(ctx))

	// Strictly above fires.
	require.NoError(t, s.SaveTwin(ctx, &model.DeviceTwin{
		DeviceID:     fx.device.ID,
		LastTs:       &now,
		DerivedState: map[string]any{"lastTankTempC": 85.1},
	}))
	assert.Equal(t, 1, e.Sweep(ctx))
}

func TestSweep_DedupeSuppressesRepeats(t *testing.T) {
	e, s := newTestEvaluator(t)
	ctx := context.Background()

	stale := time.Now().UTC().Add(-2 * time.Hour)
	fx := seedFixture(t, s, model.DeviceStatusActive, &stale)
	seedRule(t, s, fx.tenant.ID, model.AlertRuleNoTelemetry, nil)

	assert.Equal(t, 1, e.Sweep(ctx))
	assert.Equal(t, 0, e.Sweep(ctx), "still-open event suppresses a second one")

	// Acknowledging keeps suppressing.
	events := openEvents(t, s, fx.tenant.ID)
	require.Len(t, events, 1)
	now := time.Now().UTC()
	events[0].Status = model.AlertEventAcknowledged
	events[0].AcknowledgedAt = &now
	require.NoError(t, s.SaveAlertEvent(ctx, &events[0]))
	assert.Equal(t, 0, e.Sweep(ctx))

	// Closing releases the key; the condition still holds, so a fresh
	// event opens.
	events[0].Status = model.AlertEventClosed
	events[0].ClosedAt = &now
	events[0].DedupeKey = nil
	require.NoError(t, s.SaveAlertEvent(ctx, &events[0]))
	assert.Equal(t, 1, e.Sweep(ctx))

	all := openEvents(t, s, fx.tenant.ID)
	assert.Len(t, all, 2)
}

func TestSweep_PossibleLeak(t *testing.T) {
	e, s := newTestEvaluator(t)
	ctx := context.Background()

	now := time.Now().UTC()
	fx := seedFixture(t, s, model.DeviceStatusActive, &now)
	seedRule(t, s, fx.tenant.ID, model.AlertRulePossibleLeak, nil)

	// Four samples of continuous flow are not enough.
	for i := 0; i < 4; i++ {
		require.NoError(t, s.CreateTelemetry(ctx, &model.Telemetry{
			ID:       model.NewID(),
			DeviceID: fx.device.ID,
			Ts:       now.Add(-time.Duration(i) * time.Minute),
			Metrics:  map[string]any{"flowLpm": 2.0},
		}))
	}
	assert.Equal(t, 0, e.Sweep(ctx))

	require.NoError(t, s.CreateTelemetry(ctx, &model.Telemetry{
		ID:       model.NewID(),
		DeviceID: fx.device.ID,
		Ts:       now.Add(-5 * time.Minute),
		Metrics:  map[string]any{"flowLpm": 2.0},
	}))
	assert.Equal(t, 1, e.Sweep(ctx))
}

func TestSweep_PossibleLeak_ZeroFlowBreaksRun(t *testing.T) {
	e, s := newTestEvaluator(t)
	ctx := context.Background()

	now := time.Now().UTC()
	fx := seedFixture(t, s, model.DeviceStatusActive, &now)
	seedRule(t, s, fx.tenant.ID, model.AlertRulePossibleLeak, nil)

	for i := 0; i < 6; i++ {
		flow := 2.0
		if i == 3 {
			flow = 0.0
		}
		require.NoError(t, s.CreateTelemetry(ctx, &model.Telemetry{
			ID:       model.NewID(),
			DeviceID: fx.device.ID,
			Ts:       now.Add(-time.Duration(i) * time.Minute),
			Metrics:  map[string]any{"flowLpm": flow},
		}))
	}
	assert.Equal(t, 0, e.Sweep(ctx))
}

func TestSweep_SensorOutOfRange(t *testing.T) {
	e, s := newTestEvaluator(t)
	ctx := context.Background()

	now := time.Now().UTC()
	fx := seedFixture(t, s, model.DeviceStatusActive, &now)
	seedRule(t, s, fx.tenant.ID, model.AlertRuleSensorOutOfRange, map[string]any{
		"metric":      "tankTempC",
		"min":         -10.0,
		"max":         120.0,
		"repeatCount": 2.0,
	})

	// Boundary values count as in range.
	for i, v := range []float64{120.0, 120.0} {
		require.NoError(t, s.CreateTelemetry(ctx, &model.Telemetry{
			ID:       model.NewID(),
			DeviceID: fx.device.ID,
			Ts:       now.Add(-time.Duration(i) * time.Minute),
			Metrics:  map[string]any{"tankTempC": v},
		}))
	}
	assert.Equal(t, 0, e.Sweep(ctx))

	// Two consecutive readings strictly outside fire.
	for i, v := range []float64{130.0, 140.0} {
		require.NoError(t, s.CreateTelemetry(ctx, &model.Telemetry{
			ID:       model.NewID(),
			DeviceID: fx.device.ID,
			Ts:       now.Add(time.Duration(i+1) * time.Minute),
			Metrics:  map[string]any{"tankTempC": v},
		}))
	}
	assert.Equal(t, 1, e.Sweep(ctx))
}

func TestSweep_EnqueuesNotifications(t *testing.T) {
	e, s := newTestEvaluator(t)
	ctx := context.Background()

	stale := time.Now().UTC().Add(-2 * time.Hour)
	fx := seedFixture(t, s, model.DeviceStatusActive, &stale)
	seedRule(t, s, fx.tenant.ID, model.AlertRuleNoTelemetry, nil)

	require.NoError(t, s.CreateNotificationChannel(ctx, &model.NotificationChannel{
		ID:       model.NewID(),
		TenantID: fx.tenant.ID,
		Type:     model.ChannelEmail,
		Config:   map[string]any{"to": "ops@example.com"},
		Enabled:  true,
	}))

	require.Equal(t, 1, e.Sweep(ctx))

	queued, err := s.ListQueuedNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, model.NotificationQueued, queued[0].Status)
	assert.Equal(t, fx.device.ID, queued[0].Payload["deviceId"])
}
