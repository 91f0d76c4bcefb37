package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/db"
	"solar-fleet-backend/internal/model"
)

// newTestStore opens a per-test in-memory SQLite database with the full
// schema migrated.
func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return NewGormStore(gormDB)
}

func seedTenantDevice(t *testing.T, s Store, tenantName string) (*model.Tenant, *model.Device) {
	t.Helper()
	ctx := context.Background()
	tenant := &model.Tenant{
		ID:   model.NewID(),
		Name: tenantName,
		Type: model.TenantTypeInstaller,
	}
	require.NoError(t, s.CreateTenant(ctx, tenant))
	device := &model.Device{
		ID:           model.NewID(),
		TenantID:     tenant.ID,
		SerialNumber: "SN-" + tenant.ID[:8],
		Status:       model.DeviceStatusActive,
	}
	require.NoError(t, s.CreateDevice(ctx, device))
	return tenant, device
}

func TestGetDevice_TenantScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenantA, deviceA := seedTenantDevice(t, s, "tenant-a")
	tenantB, _ := seedTenantDevice(t, s, "tenant-b")

	got, err := s.GetDevice(ctx, tenantA.ID, deviceA.ID)
	require.NoError(t, err)
	assert.Equal(t, deviceA.ID, got.ID)

	// The same id through another tenant's scope does not exist.
	_, err = s.GetDevice(ctx, tenantB.ID, deviceA.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, total, err := s.ListDevices(ctx, tenantB.ID, DeviceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCreateDevice_DuplicateSerial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant, device := seedTenantDevice(t, s, "tenant-a")

	dup := &model.Device{
		ID:           model.NewID(),
		TenantID:     tenant.ID,
		SerialNumber: device.SerialNumber,
	}
	err := s.CreateDevice(ctx, dup)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// The same serial under another tenant is fine.
	other, _ := seedTenantDevice(t, s, "tenant-b")
	ok := &model.Device{
		ID:           model.NewID(),
		TenantID:     other.ID,
		SerialNumber: device.SerialNumber,
	}
	assert.NoError(t, s.CreateDevice(ctx, ok))
}

func TestAlertEvent_DedupeKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant, device := seedTenantDevice(t, s, "tenant-a")

	rule := &model.AlertRule{
		ID:       model.NewID(),
		TenantID: tenant.ID,
		Name:     "overheat",
		Enabled:  true,
		Type:     model.AlertRuleOverTemp,
		Severity: model.SeverityCritical,
	}
	require.NoError(t, s.CreateAlertRule(ctx, rule))

	key := model.DedupeKeyFor(device.ID, rule.ID)
	open := func() error {
		k := key
		return s.CreateAlertEvent(ctx, &model.AlertEvent{
			ID:        model.NewID(),
			TenantID:  tenant.ID,
			DeviceID:  device.ID,
			RuleID:    rule.ID,
			Severity:  rule.Severity,
			Status:    model.AlertEventOpen,
			DedupeKey: &k,
			OpenedAt:  time.Now().UTC(),
		})
	}

	require.NoError(t, open())
	live, err := s.HasLiveAlert(ctx, key)
	require.NoError(t, err)
	assert.True(t, live)

	// A second open for the same (device, rule) hits the unique index.
	assert.ErrorIs(t, open(), gorm.ErrDuplicatedKey)

	// Closing clears the key, after which a fresh event may open.
	events, _, err := s.ListAlertEvents(ctx, tenant.ID, AlertEventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	now := time.Now().UTC()
	events[0].Status = model.AlertEventClosed
	events[0].ClosedAt = &now
	events[0].DedupeKey = nil
	require.NoError(t, s.SaveAlertEvent(ctx, &events[0]))

	live, err = s.HasLiveAlert(ctx, key)
	require.NoError(t, err)
	assert.False(t, live)
	assert.NoError(t, open())
}

func TestPendingCommandsMarkDelivered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant, device := seedTenantDevice(t, s, "tenant-a")

	base := time.Now().UTC().Add(-time.Hour)
	for i, typ := range []model.CommandType{
		model.CommandTypeSetConfig,
		model.CommandTypeRemoteBoostSet,
		model.CommandTypeSetSchedule,
	} {
		require.NoError(t, s.CreateCommand(ctx, &model.Command{
			ID:                model.NewID(),
			TenantID:          tenant.ID,
			DeviceID:          device.ID,
			Type:              typ,
			Status:            model.CommandStatusQueued,
			RequestedByUserID: "user-1",
			RequestedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	now := time.Now().UTC()
	delivered, err := s.PendingCommandsMarkDelivered(ctx, device.ID, now)
	require.NoError(t, err)
	require.Len(t, delivered, 3)

	// Oldest request first.
	assert.Equal(t, model.CommandTypeSetConfig, delivered[0].Type)
	assert.Equal(t, model.CommandTypeSetSchedule, delivered[2].Type)
	for _, cmd := range delivered {
		assert.Equal(t, model.CommandStatusDelivered, cmd.Status)
		require.NotNil(t, cmd.DeliveredAt)
	}

	// A second poll returns nothing.
	again, err := s.PendingCommandsMarkDelivered(ctx, device.ID, now)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestUpsertEntitlement(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant, device := seedTenantDevice(t, s, "tenant-a")

	row := &model.Entitlement{
		ID:       model.NewID(),
		TenantID: tenant.ID,
		Scope:    model.EntitlementScopeDevice,
		Key:      model.EntitlementBasicRemoteBoost,
		DeviceID: device.ID,
		Enabled:  false,
	}
	require.NoError(t, s.UpsertEntitlement(ctx, row))

	// Upserting the same (tenant, key, device) flips the flag in place.
	update := &model.Entitlement{
		ID:       model.NewID(),
		TenantID: tenant.ID,
		Scope:    model.EntitlementScopeDevice,
		Key:      model.EntitlementBasicRemoteBoost,
		DeviceID: device.ID,
		Enabled:  true,
	}
	require.NoError(t, s.UpsertEntitlement(ctx, update))

	got, err := s.GetEntitlementRow(ctx, tenant.ID, model.EntitlementBasicRemoteBoost, device.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)

	rows, err := s.ListEntitlements(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUpsertDailyRollup_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, device := seedTenantDevice(t, s, "tenant-a")

	first := &model.DailyRollup{
		ID:        model.NewID(),
		DeviceID:  device.ID,
		DayDate:   "2026-08-23",
		EnergyKwh: 1.5,
	}
	require.NoError(t, s.UpsertDailyRollup(ctx, first))

	second := &model.DailyRollup{
		ID:        model.NewID(),
		DeviceID:  device.ID,
		DayDate:   "2026-08-23",
		EnergyKwh: 2.25,
	}
	require.NoError(t, s.UpsertDailyRollup(ctx, second))

	got, err := s.GetDailyRollup(ctx, device.ID, "2026-08-23")
	require.NoError(t, err)
	assert.Equal(t, 2.25, got.EnergyKwh)
}

func TestSaveTwin_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, device := seedTenantDevice(t, s, "tenant-a")

	ts1 := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, s.SaveTwin(ctx, &model.DeviceTwin{
		DeviceID:     device.ID,
		LastTs:       &ts1,
		DerivedState: map[string]any{"lastTankTempC": 55.0},
	}))

	ts2 := time.Now().UTC()
	require.NoError(t, s.SaveTwin(ctx, &model.DeviceTwin{
		DeviceID:     device.ID,
		LastTs:       &ts2,
		DerivedState: map[string]any{"lastTankTempC": 60.0},
	}))

	twin, err := s.GetTwin(ctx, device.ID)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, twin.DerivedState["lastTankTempC"], 1e-9)
}
